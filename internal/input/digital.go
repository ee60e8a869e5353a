package input

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/hw"
	"github.com/CoryCharlton/emilys-neopixel/internal/timerutil"
)

// DigitalEvent is a classified button event.
type DigitalEvent uint8

const (
	Release DigitalEvent = iota
	Trigger
	LongTrigger
	MultiTrigger
)

func (e DigitalEvent) String() string {
	switch e {
	case Release:
		return "RELEASE"
	case Trigger:
		return "TRIGGER"
	case LongTrigger:
		return "LONG_TRIGGER"
	case MultiTrigger:
		return "MULTI_TRIGGER"
	default:
		return fmt.Sprintf("DigitalEvent(%d)", uint8(e))
	}
}

// DigitalEventHandler receives classified events.
type DigitalEventHandler func(DigitalEvent)

// DigitalInput debounces a boolean channel and classifies its transitions
// into Trigger, Release, LongTrigger and MultiTrigger events.
type DigitalInput struct {
	reader     hw.LevelReader
	activeHigh bool
	interval   time.Duration
	now        func() time.Time
	logger     *slog.Logger

	mu       sync.Mutex // guards everything below
	debounce time.Duration
	handler  DigitalEventHandler

	lastRaw    bool
	stable     bool
	lastChange time.Time

	lastState          bool
	longTriggerWindow  time.Duration
	triggerStart       time.Time
	multiTriggerWindow time.Duration
	multiTriggerTarget int
	multiTriggerCount  int
	multiTriggerStart  time.Time

	wake  chan struct{}
	drops atomic.Uint32
	edges bool // reader delivers edge notifications; written under task.mu before the goroutine starts
	task  task
}

// NewDigitalInput creates a monitor for reader and takes the initial sample
// synchronously. An error is returned if that sample cannot be read.
func NewDigitalInput(reader hw.LevelReader, opts ...Option) (*DigitalInput, error) {
	cfg := newConfig(DefaultDigitalDebounce, DefaultPollInterval, opts)
	d := &DigitalInput{
		reader:             reader,
		activeHigh:         cfg.activeHigh,
		interval:           cfg.interval,
		now:                cfg.now,
		logger:             cfg.logger,
		debounce:           cfg.debounce,
		multiTriggerTarget: DefaultMultiTriggerTarget,
		wake:               make(chan struct{}, 1),
	}

	state, err := d.readState()
	if err != nil {
		return nil, fmt.Errorf("initial sample: %w", err)
	}
	d.lastRaw = state
	d.stable = state
	d.lastState = state
	return d, nil
}

// Begin starts the sampling goroutine and subscribes to edge notifications
// when the reader supports them. Calling Begin on a running monitor is a no-op.
func (d *DigitalInput) Begin() error {
	_, err := d.task.start(d.subscribe, d.run)
	return err
}

// subscribe runs under the task lock, before the sampling goroutine exists.
func (d *DigitalInput) subscribe() error {
	d.edges = false
	if n, ok := d.reader.(hw.EdgeNotifier); ok {
		if err := n.NotifyEdges(d.notify); err != nil {
			return fmt.Errorf("subscribe to edges: %w", err)
		}
		d.edges = true
	}
	d.logger.Debug("digital input started", "edges", d.edges, "debounce", d.Debounce())
	return nil
}

// End stops the sampling goroutine. Safe to call more than once.
func (d *DigitalInput) End() {
	d.task.stop(func() {
		if n, ok := d.reader.(hw.EdgeNotifier); ok && d.edges {
			_ = n.NotifyEdges(nil)
		}
	})
}

// IsTriggered returns the last debounced state.
func (d *DigitalInput) IsTriggered() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stable
}

// OnEvent replaces the event handler. A nil handler disables events.
func (d *DigitalInput) OnEvent(h DigitalEventHandler) {
	d.mu.Lock()
	d.handler = h
	d.mu.Unlock()
}

// SetDebounce sets the debounce window. It takes effect on the next sample.
func (d *DigitalInput) SetDebounce(window time.Duration) {
	d.mu.Lock()
	d.debounce = window
	d.mu.Unlock()
}

// Debounce returns the debounce window.
func (d *DigitalInput) Debounce() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.debounce
}

// SetLongTrigger sets how long the input must stay triggered before a
// LongTrigger event is raised. Zero disables long triggers.
func (d *DigitalInput) SetLongTrigger(window time.Duration) {
	d.mu.Lock()
	d.longTriggerWindow = window
	d.mu.Unlock()
}

// SetMultiTrigger sets the window within which target releases raise a
// MultiTrigger event. A zero window disables multi triggers; a target below
// 2 is raised to 2.
func (d *DigitalInput) SetMultiTrigger(window time.Duration, target int) {
	if target < 2 {
		target = 2
	}
	d.mu.Lock()
	d.multiTriggerWindow = window
	d.multiTriggerTarget = target
	d.multiTriggerCount = 0
	d.mu.Unlock()
}

// ISRDrops returns how many edge notifications were coalesced because a wake
// was already pending.
func (d *DigitalInput) ISRDrops() uint32 { return d.drops.Load() }

// notify is called from the reader's edge context. It never blocks.
func (d *DigitalInput) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
		d.drops.Add(1)
	}
}

func (d *DigitalInput) run(ctx context.Context) {
	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	var lastNotify time.Time
	for {
		var tick <-chan time.Time
		if !d.edges || time.Since(lastNotify) < NotificationWindow {
			timerutil.Reset(timer, d.interval)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			return
		case <-d.wake:
			lastNotify = time.Now()
		case <-tick:
		}

		d.handleInput()
	}
}

func (d *DigitalInput) readState() (bool, error) {
	level, err := d.reader.Level()
	if err != nil {
		return false, err
	}
	if d.activeHigh {
		return level, nil
	}
	return !level, nil
}

// handleInput runs one sampling tick: debounce, classify, dispatch.
func (d *DigitalInput) handleInput() {
	state, err := d.readState()
	if err != nil {
		d.logger.Debug("sample failed", "err", err)
		return
	}
	now := d.now()

	d.mu.Lock()
	if !d.debounceLocked(state, now) {
		d.mu.Unlock()
		return
	}
	events := d.classifyLocked(now)
	handler := d.handler
	d.mu.Unlock()

	if handler == nil {
		return
	}
	for _, e := range events {
		handler(e)
	}
}

// debounceLocked records the raw sample and reports whether it has been
// stable for at least the debounce window, committing it if so.
func (d *DigitalInput) debounceLocked(raw bool, now time.Time) bool {
	if raw != d.lastRaw {
		d.lastChange = now
		d.lastRaw = raw
		return false
	}
	if now.Sub(d.lastChange) < d.debounce {
		return false
	}
	d.stable = raw
	return true
}

// classifyLocked compares the committed state against the previous one.
// LongTrigger fires once per continuous hold: triggerStart is cleared after
// firing and only re-armed by the next Trigger.
func (d *DigitalInput) classifyLocked(now time.Time) []DigitalEvent {
	var events []DigitalEvent

	switch {
	case d.stable && d.lastState:
		if d.longTriggerWindow > 0 && !d.triggerStart.IsZero() && now.Sub(d.triggerStart) >= d.longTriggerWindow {
			events = append(events, LongTrigger)
			d.triggerStart = time.Time{}
		}
	case d.stable && !d.lastState:
		events = append(events, Trigger)
		d.triggerStart = now
	case !d.stable && d.lastState:
		events = append(events, Release)
		d.triggerStart = time.Time{}

		d.multiTriggerCount++
		if d.multiTriggerCount == 1 {
			d.multiTriggerStart = now
		} else if d.multiTriggerWindow > 0 && now.Sub(d.multiTriggerStart) <= d.multiTriggerWindow {
			if d.multiTriggerCount >= d.multiTriggerTarget {
				events = append(events, MultiTrigger)
				d.multiTriggerCount = 0
			}
		} else {
			d.multiTriggerCount = 1
			d.multiTriggerStart = now
		}
	}

	d.lastState = d.stable
	return events
}
