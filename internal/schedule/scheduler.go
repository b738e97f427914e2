package schedule

import (
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/mrz1836/marksafe/internal/settings"
)

// SlotName is the one timer slot used for backups.
const SlotName = "bookmark-backup"

// Scheduler owns the backup slot. Every re-arm goes through Reschedule.
type Scheduler struct {
	mu     sync.Mutex
	timers TimerService
	clock  clock.Clock
	next   time.Time
}

// NewScheduler creates a scheduler arming timers against clk's notion of now.
func NewScheduler(timers TimerService, clk clock.Clock) *Scheduler {
	return &Scheduler{timers: timers, clock: clk}
}

// Reschedule cancels the slot and, when s is enabled, arms it at the next
// trigger. It returns the armed time, or the zero time when disabled.
func (s *Scheduler) Reschedule(st settings.Settings) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timers.Cancel(SlotName)
	s.next = time.Time{}

	if !st.Enabled {
		return time.Time{}, nil
	}

	next, err := NextTrigger(st, s.clock.Now())
	if err != nil {
		return time.Time{}, err
	}

	s.timers.Arm(SlotName, next)
	s.next = next
	return next, nil
}

// Cancel disarms the slot.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers.Cancel(SlotName)
	s.next = time.Time{}
}

// Next returns the currently armed trigger, or the zero time.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Now returns the scheduler clock's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Fired delivers raw fire events; pass each to Accept.
func (s *Scheduler) Fired() <-chan Fire {
	return s.timers.Fired()
}

// Accept reports whether f is the fire of the currently armed slot and, if so,
// marks the slot as consumed. Fires left over from replaced arms are rejected.
func (s *Scheduler) Accept(f Fire) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Name != SlotName || s.next.IsZero() || !f.At.Equal(s.next) {
		return false
	}
	s.next = time.Time{}
	return true
}
