package backup

import (
	"context"
	"time"

	"github.com/mrz1836/marksafe/internal/schedule"
)

// Run drives scheduled backups until ctx is cancelled. It arms the timer from
// the stored settings, runs a missed backup at once when catch-up applies,
// performs a backup for every accepted timer fire and re-arms whenever
// changes delivers a notice that the store was modified by someone else.
// changes may be nil, and a closed changes channel is ignored from then on.
func (s *Service) Run(ctx context.Context, changes <-chan struct{}) error {
	st, err := s.settings.Load()
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if missedBackup(st.Enabled, st.NextBackup, now) {
		s.logger.Info("backup due at %s was missed, running now", time.UnixMilli(st.NextBackup).Format(time.RFC3339))
		s.report(s.PerformBackup(ctx))
	} else if _, err := s.applySchedule(st); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if s.scheduler != nil {
				s.scheduler.Cancel()
			}
			s.logger.Info("scheduler stopped")
			return nil

		case f := <-s.fired():
			if !s.scheduler.Accept(f) {
				s.logger.Debug("ignoring stale timer fire for %s", f.At.Format(time.RFC3339))
				continue
			}
			s.metrics.RecordFire()
			s.report(s.PerformBackup(ctx))

		case _, ok := <-changes:
			if !ok {
				s.logger.Debug("store change notices stopped")
				changes = nil
				continue
			}
			s.metrics.RecordStoreChange()
			// Only re-arm here: writing would trigger another change notice.
			current, err := s.settings.Load()
			if err != nil {
				s.logger.Error("reloading settings after store change: %v", err)
				continue
			}
			if _, err := s.reschedule(current); err != nil {
				s.logger.Error("re-arming after store change: %v", err)
			}
		}
	}
}

// NextArmed returns the trigger currently armed in this process.
func (s *Service) NextArmed() time.Time {
	if s.scheduler == nil {
		return time.Time{}
	}
	return s.scheduler.Next()
}

func (s *Service) fired() <-chan schedule.Fire {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Fired()
}

func (s *Service) report(r Result) {
	if r.Success {
		return
	}
	s.logger.Error("scheduled backup failed: %s", r.Error)
}

// missedBackup reports whether an enabled schedule's recorded trigger has passed.
func missedBackup(enabled bool, nextBackupMs int64, now time.Time) bool {
	return enabled && nextBackupMs > 0 && nextBackupMs <= now.UnixMilli()
}
