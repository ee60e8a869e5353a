package input

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/hw"
)

// AnalogEventHandler receives the new stable magnitude.
type AnalogEventHandler func(value uint16)

// deadBand is the largest raw/stable difference treated as sensor noise.
const deadBand = 1

// AnalogInput debounces a magnitude channel. A value is committed once two
// consecutive samples agree, the debounce window has elapsed since the raw
// value last changed, and it differs from the stable value by more than the
// dead-band.
type AnalogInput struct {
	reader   hw.MagnitudeReader
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu         sync.Mutex // guards everything below
	debounce   time.Duration
	handler    AnalogEventHandler
	lastRaw    uint16
	stable     uint16
	lastChange time.Time

	task task
}

// NewAnalogInput creates a monitor for reader and takes the initial sample
// synchronously.
func NewAnalogInput(reader hw.MagnitudeReader, opts ...Option) (*AnalogInput, error) {
	cfg := newConfig(DefaultAnalogDebounce, DefaultAnalogInterval, opts)
	a := &AnalogInput{
		reader:   reader,
		interval: cfg.interval,
		now:      cfg.now,
		logger:   cfg.logger,
		debounce: cfg.debounce,
	}

	v, err := reader.Magnitude()
	if err != nil {
		return nil, fmt.Errorf("initial sample: %w", err)
	}
	a.lastRaw = v
	a.stable = v
	return a, nil
}

// Begin starts the sampling goroutine. Calling Begin on a running monitor is
// a no-op.
func (a *AnalogInput) Begin() error {
	if started, _ := a.task.start(nil, a.run); started {
		a.logger.Debug("analog input started", "interval", a.interval, "debounce", a.Debounce())
	}
	return nil
}

// End stops the sampling goroutine. Safe to call more than once.
func (a *AnalogInput) End() {
	a.task.stop(nil)
}

// Value returns the last stable magnitude.
func (a *AnalogInput) Value() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stable
}

// OnEvent replaces the event handler. A nil handler disables events.
func (a *AnalogInput) OnEvent(h AnalogEventHandler) {
	a.mu.Lock()
	a.handler = h
	a.mu.Unlock()
}

// SetDebounce sets the debounce window. It takes effect on the next sample.
func (a *AnalogInput) SetDebounce(window time.Duration) {
	a.mu.Lock()
	a.debounce = window
	a.mu.Unlock()
}

// Debounce returns the debounce window.
func (a *AnalogInput) Debounce() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.debounce
}

func (a *AnalogInput) run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.handleInput()
		}
	}
}

// handleInput runs one sampling tick.
func (a *AnalogInput) handleInput() {
	raw, err := a.reader.Magnitude()
	if err != nil {
		a.logger.Debug("sample failed", "err", err)
		return
	}
	now := a.now()

	a.mu.Lock()
	if raw != a.lastRaw {
		a.lastChange = now
		a.lastRaw = raw
		a.mu.Unlock()
		return
	}
	if absDiff(raw, a.stable) <= deadBand || now.Sub(a.lastChange) < a.debounce {
		a.mu.Unlock()
		return
	}
	a.stable = raw
	handler := a.handler
	a.mu.Unlock()

	if handler != nil {
		handler(raw)
	}
}
