package backup

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrz1836/marksafe/internal/bookmarks"
	"github.com/mrz1836/marksafe/internal/history"
	"github.com/mrz1836/marksafe/internal/schedule"
	"github.com/mrz1836/marksafe/internal/serializer"
	"github.com/mrz1836/marksafe/internal/settings"
	"github.com/mrz1836/marksafe/internal/storage"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

// Stats summarizes the live bookmark tree and the schedule.
type Stats struct {
	TotalBookmarks int   `json:"totalBookmarks"`
	LastBackup     int64 `json:"lastBackup,omitempty"`
	NextBackup     int64 `json:"nextBackup,omitempty"`
	Enabled        bool  `json:"enabled"`
	HistoryCount   int   `json:"historyCount"`
}

// ExportRequest selects content to export: either a history entry by ID, or
// inline content with its file name and MIME type.
type ExportRequest struct {
	HistoryID string
	Content   []byte
	Filename  string
	MIMEType  string
}

// DirectoryStatus describes the granted directory.
type DirectoryStatus struct {
	Handle     *storage.Handle `json:"handle,omitempty"`
	Permission string          `json:"permission"`
	InUse      bool            `json:"inUse"`
	Supported  bool            `json:"supported"`
}

// Stats returns the bookmark count and the schedule state.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.settings.Load()
	if err != nil {
		return Stats{}, err
	}

	tree, err := s.source.Tree(ctx)
	if err != nil {
		return Stats{}, mserr.WithCause(mserr.ErrBookmarksUnavailable, err)
	}

	items, err := s.history.List()
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		TotalBookmarks: bookmarks.Count(tree),
		LastBackup:     st.LastBackup,
		NextBackup:     st.NextBackup,
		Enabled:        st.Enabled,
		HistoryCount:   len(items),
	}, nil
}

// UpdateSchedule re-derives the next trigger from the stored settings, re-arms
// the timer and records the new time. It returns the zero time when backups
// are disabled.
func (s *Service) UpdateSchedule(_ context.Context) (time.Time, error) {
	st, err := s.settings.Load()
	if err != nil {
		return time.Time{}, err
	}
	saved, err := s.applySchedule(st)
	if err != nil {
		return time.Time{}, err
	}
	if saved.NextBackup == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(saved.NextBackup).In(s.clock.Now().Location()), nil
}

// Export writes stored or inline content into the downloads folder and
// returns the final path.
func (s *Service) Export(ctx context.Context, req ExportRequest) (string, error) {
	st, err := s.settings.Load()
	if err != nil {
		return "", err
	}

	content, filename, mimeType := req.Content, req.Filename, req.MIMEType
	if req.HistoryID != "" {
		item, err := s.HistoryItem(req.HistoryID)
		if err != nil {
			return "", err
		}
		if !item.HasData() {
			return "", mserr.WithSuggestion(
				mserr.WithDetails(mserr.ErrNoBackupData, map[string]string{"id": item.ID}),
				"only backups taken in extension storage mode keep their content; look for the file at its recorded location")
		}
		content, filename = []byte(item.Data), item.Filename
		if format, ferr := serializer.ParseFormat(item.Format); ferr == nil {
			mimeType = format.MIMEType()
		}
	}

	if len(content) == 0 || filename == "" {
		return "", mserr.WithSuggestion(mserr.ErrInvalidInput, "provide a history id, or content with a file name")
	}
	filename = filepath.Base(filename)
	if mimeType == "" {
		mimeType = mimeFor(filename)
	}

	out, err := s.storage.Export(ctx, content, filename, mimeType, st)
	if err != nil {
		return "", mserr.Wrap(err, "exporting %s", filename)
	}
	s.logger.Info("exported %s to %s", filename, out.Location)
	return out.Location, nil
}

func mimeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Settings returns the stored settings, creating defaults on first use.
func (s *Service) Settings() (settings.Settings, error) {
	return s.settings.Load()
}

// SaveSettings validates and stores st, then re-arms the timer.
func (s *Service) SaveSettings(st settings.Settings) (settings.Settings, error) {
	if err := st.Validate(); err != nil {
		return settings.Settings{}, mserr.WithCause(mserr.ErrSettingsInvalid, err)
	}
	return s.applySchedule(st)
}

// ResetSettings restores the default settings and re-arms the timer.
func (s *Service) ResetSettings() (settings.Settings, error) {
	st, err := s.settings.Reset()
	if err != nil {
		return settings.Settings{}, err
	}
	return s.applySchedule(st)
}

// applySchedule records the next trigger for st, saves it and re-arms the timer.
func (s *Service) applySchedule(st settings.Settings) (settings.Settings, error) {
	st.NextBackup = 0
	if st.Enabled {
		next, err := schedule.NextTrigger(st, s.clock.Now())
		if err != nil {
			return settings.Settings{}, mserr.WithCause(mserr.ErrSettingsInvalid, err)
		}
		st.NextBackup = next.UnixMilli()
	}

	saved, err := s.settings.Save(st)
	if err != nil {
		return settings.Settings{}, mserr.WithCause(mserr.ErrSettingsInvalid, err)
	}
	if _, err := s.reschedule(saved); err != nil {
		return settings.Settings{}, err
	}
	return saved, nil
}

// History returns the ledger, newest first.
func (s *Service) History() ([]history.Item, error) {
	return s.history.List()
}

// HistoryItem returns one ledger entry.
func (s *Service) HistoryItem(id string) (history.Item, error) {
	item, err := s.history.Get(id)
	if errors.Is(err, history.ErrNotFound) {
		return history.Item{}, mserr.WithDetails(mserr.ErrHistoryNotFound, map[string]string{"id": id})
	}
	return item, err
}

// DeleteHistoryItem removes one ledger entry. Files on disk are left alone.
func (s *Service) DeleteHistoryItem(id string) error {
	err := s.history.Delete(id)
	if errors.Is(err, history.ErrNotFound) {
		return mserr.WithDetails(mserr.ErrHistoryNotFound, map[string]string{"id": id})
	}
	return err
}

// ClearHistory empties the ledger.
func (s *Service) ClearHistory() error {
	return s.history.Clear()
}

// GrantDirectory grants dir as the custom backup directory and turns on
// useCustomDirectory. An empty dir means the user cancelled and is a no-op
// returning nil.
func (s *Service) GrantDirectory(dir string) (*storage.Handle, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil //nolint:nilnil // cancellation is not an error
	}

	h, err := s.dirs.Grant(dir)
	if err != nil {
		return nil, mserr.WithCause(mserr.ErrInvalidInput, err)
	}
	if s.dirs.CheckPermission(h) != storage.PermissionGranted {
		return nil, mserr.WithDetails(mserr.ErrDirectoryDenied, map[string]string{"path": h.Path})
	}

	st, err := s.settings.Load()
	if err != nil {
		return nil, err
	}
	st.UseCustomDirectory = true
	st.CustomDirectoryName = h.Name
	if _, err := s.settings.Save(st); err != nil {
		return nil, err
	}
	return h, nil
}

// RevokeDirectory forgets the custom directory and turns off useCustomDirectory.
func (s *Service) RevokeDirectory() error {
	if err := s.dirs.Revoke(); err != nil {
		return err
	}
	st, err := s.settings.Load()
	if err != nil {
		return err
	}
	st.UseCustomDirectory = false
	st.CustomDirectoryName = ""
	_, err = s.settings.Save(st)
	return err
}

// DirectoryStatus reports the granted directory and whether it is still usable.
func (s *Service) DirectoryStatus() (DirectoryStatus, error) {
	st, err := s.settings.Load()
	if err != nil {
		return DirectoryStatus{}, err
	}

	status := DirectoryStatus{
		Permission: storage.PermissionDenied.String(),
		InUse:      st.UseCustomDirectory,
		Supported:  s.storage.Capabilities().Directory,
	}

	h, err := s.dirs.Resolve()
	if errors.Is(err, storage.ErrNoDirectory) {
		return status, nil
	}
	if err != nil {
		return DirectoryStatus{}, err
	}
	status.Handle = h
	status.Permission = s.dirs.CheckPermission(h).String()
	return status, nil
}

// Verify checks a history entry's content against its recorded checksum.
// Content kept in the ledger is checked directly; otherwise the file at the
// recorded location is read, and opened first when it was sealed.
func (s *Service) Verify(_ context.Context, id string) error {
	item, err := s.HistoryItem(id)
	if err != nil {
		return err
	}
	if item.Checksum == "" {
		return mserr.WithDetails(mserr.ErrNoBackupData, map[string]string{"id": id, "reason": "no checksum recorded"})
	}

	if item.HasData() {
		return VerifyChecksum([]byte(item.Data), item.Checksum)
	}
	if item.Location == "" {
		return mserr.WithDetails(mserr.ErrNoBackupData, map[string]string{"id": id})
	}

	content, err := os.ReadFile(item.Location) //nolint:gosec // G304: location recorded by a previous run
	if err != nil {
		if os.IsNotExist(err) {
			return mserr.WithDetails(mserr.ErrNotFound, map[string]string{"path": item.Location})
		}
		return fmt.Errorf("reading %s: %w", item.Location, err)
	}

	if item.Encrypted {
		if s.opener == nil {
			return mserr.WithSuggestion(mserr.ErrPassphraseMissing, "run 'marksafe passphrase set' or export MARKSAFE_PASSPHRASE")
		}
		if content, err = s.opener.Open(content); err != nil {
			return mserr.WithCause(mserr.ErrDecryptionFailed, err)
		}
	}

	return VerifyChecksum(content, item.Checksum)
}
