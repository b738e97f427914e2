// Package backup runs bookmark backups and exposes the operations behind the CLI.
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/juju/clock"
	"golang.org/x/sync/singleflight"

	"github.com/mrz1836/marksafe/internal/history"
	"github.com/mrz1836/marksafe/internal/metrics"
	"github.com/mrz1836/marksafe/internal/schedule"
	"github.com/mrz1836/marksafe/internal/serializer"
	"github.com/mrz1836/marksafe/internal/settings"
	"github.com/mrz1836/marksafe/internal/storage"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

const runKey = "backup"

// Config holds the collaborators of a Service. Opener decrypts sealed files
// for Verify and is nil when no passphrase is known.
type Config struct {
	Source      BookmarkSource
	Settings    *settings.Repository
	History     *history.Ledger
	Storage     *storage.Selector
	Directories DirectoryGranter
	Scheduler   *schedule.Scheduler
	Clock       clock.Clock
	Opener      Opener
	BrowserInfo string
	Logger      Logger
	Metrics     *metrics.Metrics
}

// Service orchestrates backups.
type Service struct {
	source      BookmarkSource
	settings    *settings.Repository
	history     *history.Ledger
	storage     *storage.Selector
	dirs        DirectoryGranter
	scheduler   *schedule.Scheduler
	clock       clock.Clock
	opener      Opener
	browserInfo string
	logger      Logger
	metrics     *metrics.Metrics

	runs singleflight.Group
}

// NewService creates a backup service.
func NewService(cfg *Config) *Service {
	s := &Service{
		source:      cfg.Source,
		settings:    cfg.Settings,
		history:     cfg.History,
		storage:     cfg.Storage,
		dirs:        cfg.Directories,
		scheduler:   cfg.Scheduler,
		clock:       cfg.Clock,
		opener:      cfg.Opener,
		browserInfo: cfg.BrowserInfo,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
	if s.clock == nil {
		s.clock = clock.WallClock
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	if s.metrics == nil {
		s.metrics = &metrics.Metrics{}
	}
	return s
}

// Result is the outcome of one backup run.
type Result struct {
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
	HistoryItem *history.Item   `json:"historyItem,omitempty"`
	Backend     storage.Backend `json:"backend,omitempty"`
	FellBack    bool            `json:"fellBack,omitempty"`
	NextBackup  int64           `json:"nextBackup,omitempty"`

	// Err is the structured failure, for exit codes.
	Err error `json:"-"`
}

// PerformBackup runs one backup. A call made while another run is in flight
// joins that run and receives its result. Failures are reported in the
// Result; nothing is returned as an error or panics across this boundary.
func (s *Service) PerformBackup(ctx context.Context) Result {
	v, _, shared := s.runs.Do(runKey, func() (any, error) {
		return s.run(context.WithoutCancel(ctx)), nil
	})
	if shared {
		s.metrics.RecordJoin()
	}
	return v.(Result) //nolint:forcetypeassert // the group only stores Result
}

func (s *Service) run(ctx context.Context) (result Result) {
	start := s.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			result = s.fail(start, nil, mserr.WithCause(mserr.ErrBackupFailed, panicError{r}))
		}
		s.metrics.RecordRun(s.clock.Now().Sub(start), result.Err)
	}()

	st, err := s.settings.Load()
	if err != nil {
		return s.fail(start, nil, stepError("loading settings", err))
	}

	s.logger.Info("backup started (format=%s, mode=%s)", st.Format, st.StorageMode)

	tree, err := s.source.Tree(ctx)
	if err != nil {
		return s.fail(start, &st, mserr.WithCause(mserr.ErrBookmarksUnavailable, err))
	}

	format := serializer.Format(st.Format)
	data := serializer.NewBackupData(tree, s.browserInfo, start)
	content, err := serializer.Render(data, format)
	if err != nil {
		return s.fail(start, &st, stepError("serializing bookmarks", err))
	}

	item := history.Item{
		Timestamp:     start.UnixMilli(),
		Filename:      serializer.Filename(format, start),
		BookmarkCount: data.TotalBookmarks,
		Format:        string(format),
		Size:          len(content),
		Checksum:      CalculateChecksum(content),
	}

	out, err := s.storage.Store(ctx, content, item.Filename, format.MIMEType(), st)
	if err != nil {
		return s.fail(start, &st, stepError("storing backup", err))
	}
	item.Data = out.Data
	item.Location = out.Location
	item.Encrypted = out.Encrypted
	if out.Location != "" {
		item.Filename = filepath.Base(out.Location)
	}

	item, err = s.history.Append(item, st.KeepBackupCount)
	if err != nil {
		return s.fail(start, &st, stepError("recording history", err))
	}

	// Reload so a settings change saved while this run was in flight is kept.
	if fresh, loadErr := s.settings.Load(); loadErr == nil {
		st = fresh
	}
	st.LastBackup = start.UnixMilli()
	next, err := schedule.NextTrigger(st, start)
	if err != nil {
		return s.fail(start, &st, stepError("computing next backup", err))
	}
	st.NextBackup = next.UnixMilli()
	saved, err := s.settings.Save(st)
	if err != nil {
		return s.fail(start, &st, stepError("saving settings", err))
	}
	st = saved

	if _, err := s.reschedule(st); err != nil {
		return s.fail(start, &st, stepError("re-arming timer", err))
	}

	s.logger.Info("backup %s finished: %d bookmarks, %d bytes, backend=%s, checksum=%s",
		item.ID, item.BookmarkCount, item.Size, out.Backend, shortChecksum(item.Checksum))

	return Result{
		Success:     true,
		HistoryItem: &item,
		Backend:     out.Backend,
		FellBack:    out.FellBack,
		NextBackup:  st.NextBackup,
	}
}

// fail builds a failed Result. When the settings are known the timer is
// re-armed for the next natural cycle after the failure and that time is
// recorded; lastBackup is left alone.
func (s *Service) fail(at time.Time, st *settings.Settings, err error) Result {
	s.logger.Error("backup failed: %v", err)
	result := Result{Success: false, Error: err.Error(), Err: err}
	if st == nil {
		return result
	}

	next, rerr := s.reschedule(*st)
	if rerr != nil {
		s.logger.Error("re-arming timer after failed backup: %v", rerr)
		return result
	}
	if next.IsZero() {
		return result
	}

	result.NextBackup = next.UnixMilli()
	fresh, lerr := s.settings.Load()
	if lerr != nil {
		return result
	}
	fresh.NextBackup = next.UnixMilli()
	if _, serr := s.settings.Save(fresh); serr != nil {
		s.logger.Error("recording next backup after failure at %s: %v", at.Format(time.RFC3339), serr)
	}
	return result
}

// reschedule re-arms the timer from the current settings.
func (s *Service) reschedule(st settings.Settings) (time.Time, error) {
	if s.scheduler == nil {
		return time.Time{}, nil
	}
	next, err := s.scheduler.Reschedule(st)
	if err != nil {
		return time.Time{}, err
	}
	s.metrics.RecordReschedule()
	if next.IsZero() {
		s.logger.Debug("backups disabled, timer cleared")
	} else {
		s.logger.Debug("next backup armed for %s", next.Format(time.RFC3339))
	}
	return next, nil
}

// stepError marks err as a failed backup, naming the step that failed.
func stepError(step string, err error) error {
	return mserr.WithCause(mserr.ErrBackupFailed, fmt.Errorf("%s: %w", step, err))
}

type panicError struct{ value any }

func (p panicError) Error() string {
	return fmt.Sprintf("unexpected panic: %v", p.value)
}
