// Package input turns raw channel samples into debounced events.
//
// Each monitor owns one channel and one sampling goroutine. The goroutine is
// the only writer of the monitor's raw/stable state; getters return snapshots
// taken under the monitor's lock. Event handlers are copied out of the lock and
// invoked unlocked, so a handler may run while the next sample is processed.
//
// The per-tick handlers (handleInput) take their time from an injected clock,
// which keeps the debounce and trigger state machines deterministic in tests.
package input

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/exp/constraints"
)

// Defaults, mirroring the wiring table of the device.
const (
	DefaultDigitalDebounce    = 20 * time.Millisecond
	DefaultLongTriggerWindow  = 150 * time.Millisecond
	DefaultMultiTriggerWindow = 400 * time.Millisecond
	DefaultMultiTriggerTarget = 2

	DefaultAnalogDebounce = 10 * time.Millisecond

	// DefaultPollInterval is the digital sampling period while an edge burst
	// is being tracked.
	DefaultPollInterval = time.Millisecond

	// DefaultAnalogInterval is the analog sampling period.
	DefaultAnalogInterval = 10 * time.Millisecond

	// NotificationWindow is how long a digital monitor keeps polling after the
	// last edge notification before it goes back to waiting on edges only.
	NotificationWindow = 5 * time.Second
)

// Option configures a monitor.
type Option func(*config)

type config struct {
	name     string
	debounce time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	// digital only
	activeHigh bool
}

// WithName labels the monitor in log output.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithDebounce overrides the variant's default debounce window.
func WithDebounce(d time.Duration) Option {
	return func(c *config) { c.debounce = d }
}

// WithInterval overrides the sampling period.
func WithInterval(d time.Duration) Option {
	return func(c *config) { c.interval = d }
}

// WithClock injects the time source used by the debounce logic.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithActiveHigh makes a high level count as triggered. Digital inputs are
// active-low by default (buttons to ground with pull-ups).
func WithActiveHigh() Option {
	return func(c *config) { c.activeHigh = true }
}

func newConfig(debounce, interval time.Duration, opts []Option) config {
	c := config{
		debounce: debounce,
		interval: interval,
		now:      time.Now,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.name != "" {
		c.logger = c.logger.With("input", c.name)
	}
	if c.interval <= 0 {
		c.interval = interval
	}
	return c
}

// task is a restartable background goroutine.
type task struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// start launches run unless the task is already running. setup, when not
// nil, runs under the task lock before the goroutine is launched; a setup
// error aborts the start. It reports whether a goroutine was started.
func (t *task) start(setup func() error, run func(ctx context.Context)) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return false, nil
	}
	if setup != nil {
		if err := setup(); err != nil {
			return false, err
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	go func() {
		defer close(done)
		run(ctx)
	}()
	return true, nil
}

// stop cancels the goroutine and waits for it to return. teardown, when not
// nil, runs under the task lock if the task was running. Safe to call when
// not running. Callers must not hold locks the goroutine may take.
func (t *task) stop(teardown func()) {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	if cancel != nil && teardown != nil {
		teardown()
	}
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *task) running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func absDiff[T constraints.Integer](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}
