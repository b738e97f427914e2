package schedule

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

// Fire is delivered when an armed slot comes due.
type Fire struct {
	Name string
	At   time.Time
}

// TimerService arms one-shot fires by slot name. Arming a name that is
// already armed replaces the earlier fire.
type TimerService interface {
	Cancel(name string)
	Arm(name string, when time.Time)
	Fired() <-chan Fire
}

// Compile-time interface check.
var _ TimerService = (*ClockTimers)(nil)

const fireBuffer = 4

// Logger receives fires that could not be delivered.
type Logger interface {
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Error(string, ...any) {}

type armedTimer struct {
	timer clock.Timer
}

// ClockTimers implements TimerService on a juju clock.
type ClockTimers struct {
	mu     sync.Mutex
	clock  clock.Clock
	slots  map[string]*armedTimer
	fired  chan Fire
	logger Logger
}

// TimerOption configures ClockTimers.
type TimerOption func(*ClockTimers)

// WithTimerLogger sets the logger used for dropped fires.
func WithTimerLogger(l Logger) TimerOption {
	return func(c *ClockTimers) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClockTimers creates timers driven by clk. Pass clock.WallClock in production.
func NewClockTimers(clk clock.Clock, opts ...TimerOption) *ClockTimers {
	c := &ClockTimers{
		clock:  clk,
		slots:  make(map[string]*armedTimer),
		fired:  make(chan Fire, fireBuffer),
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Arm schedules a fire for name at when, replacing any pending one.
func (c *ClockTimers) Arm(name string, when time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked(name)

	armed := &armedTimer{}
	// AfterFunc callbacks run on their own goroutine, so taking c.mu here
	// waits for Arm to finish registering the slot.
	armed.timer = c.clock.AfterFunc(when.Sub(c.clock.Now()), func() {
		c.mu.Lock()
		current := c.slots[name] == armed
		if current {
			delete(c.slots, name)
		}
		c.mu.Unlock()
		if !current {
			return
		}
		select {
		case c.fired <- Fire{Name: name, At: when}:
		default:
			c.logger.Error("dropped timer fire for %s at %s: %d fires already pending",
				name, when.Format(time.RFC3339), fireBuffer)
		}
	})
	c.slots[name] = armed
}

// Cancel drops the pending fire for name, if any.
func (c *ClockTimers) Cancel(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked(name)
}

// Stop cancels every slot.
func (c *ClockTimers) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name := range c.slots {
		c.cancelLocked(name)
	}
}

// Fired returns the channel on which fires are delivered.
func (c *ClockTimers) Fired() <-chan Fire {
	return c.fired
}

// Pending returns the names of armed slots that have not fired yet.
func (c *ClockTimers) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.slots))
	for name := range c.slots {
		names = append(names, name)
	}
	return names
}

func (c *ClockTimers) cancelLocked(name string) {
	armed, ok := c.slots[name]
	if !ok {
		return
	}
	if armed.timer != nil {
		armed.timer.Stop()
	}
	delete(c.slots, name)
}
