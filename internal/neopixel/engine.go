// Package neopixel renders animations on an LED grid and persists the
// user-facing display settings.
//
// An Engine owns one render goroutine. Setters mutate the parameter tuple
// under a lock, persist brightness and mode inside it, and wake the render
// goroutine after releasing it. The render goroutine sleeps until the next
// step of the current mode is due or a setter wakes it, whichever is sooner.
package neopixel

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/store"
	"github.com/CoryCharlton/emilys-neopixel/internal/timerutil"
)

const (
	// Namespace is the store namespace holding the engine settings.
	Namespace = "emilys_neopixel"

	brightnessKey = "brightness"
	modeKey       = "mode"

	// BrightnessStep is the NextBrightness increment and the default brightness.
	BrightnessStep = 50
)

// modeUnset marks the render state before the first frame.
const modeUnset Mode = 0xff

// Strip is the pixel output the engine draws on.
type Strip interface {
	Begin() error
	NumPixels() int
	Layout() (cols, rows int)
	SetPixel(i int, c color.RGBA)
	Fill(c color.RGBA)
	Clear()
	SetBrightness(b uint8)
	Show() error
}

// State is a snapshot of the display parameters.
type State struct {
	Mode       Mode  `json:"mode"`
	Brightness uint8 `json:"brightness"`
	Red        uint8 `json:"red"`
	Green      uint8 `json:"green"`
	Blue       uint8 `json:"blue"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the time source used for step scheduling.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine drives the animation of a Strip.
type Engine struct {
	strip   Strip
	canvas  *canvas
	backend store.Backend
	now     func() time.Time
	logger  *slog.Logger

	mu         sync.Mutex // guards the parameters below
	store      store.Store
	mode       Mode
	brightness uint8
	color      color.RGBA
	observer   func(State)
	version    uint64 // bumped on every change

	notifyMu sync.Mutex // serializes observer calls
	notified uint64     // last version handed to the observer

	// Render state, owned by the render goroutine.
	lastMode  Mode
	step      int
	direction int
	lastStep  time.Time

	wake chan struct{}

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an engine for strip that persists its settings in backend.
func New(strip Strip, backend store.Backend, opts ...Option) *Engine {
	e := &Engine{
		strip:      strip,
		canvas:     newCanvas(strip),
		backend:    backend,
		now:        time.Now,
		mode:       DefaultMode,
		brightness: BrightnessStep,
		lastMode:   modeUnset,
		direction:  1,
		wake:       make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Begin restores the persisted settings, blanks the strip and starts the
// render goroutine. A persisted Off mode is not restored. Calling Begin on a
// running engine is a no-op.
func (e *Engine) Begin() error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.cancel != nil {
		return nil
	}

	st, err := e.backend.Open(Namespace)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	brightness := st.GetByte(brightnessKey, BrightnessStep)
	if brightness == 0 {
		brightness = BrightnessStep
	}
	mode := Mode(st.GetByte(modeKey, byte(DefaultMode)))
	if mode == Off || !mode.Valid() {
		mode = DefaultMode
	}

	if err := e.strip.Begin(); err != nil {
		st.Close()
		return fmt.Errorf("begin strip: %w", err)
	}
	e.strip.SetBrightness(brightness)
	e.strip.Clear()
	e.show()

	e.mu.Lock()
	e.store = st
	e.mode = mode
	e.brightness = brightness
	e.mu.Unlock()

	e.lastMode = modeUnset
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	go func() {
		defer close(done)
		e.run(ctx)
	}()

	e.logger.Info("display started", "mode", mode, "brightness", brightness)
	return nil
}

// End stops the render goroutine and closes the store. Safe to call more
// than once.
func (e *Engine) End() error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	<-e.done
	e.cancel, e.done = nil, nil

	e.mu.Lock()
	st := e.store
	e.store = nil
	e.mu.Unlock()

	if err := st.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// State returns the current parameters.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// OnChange registers fn to be called after parameter changes. It runs on the
// caller of a setter, outside the parameter lock, and must not call setters.
// Calls are serialized and always carry the newest state, so concurrent
// changes may be folded into a single call but the last call is never stale.
func (e *Engine) OnChange(fn func(State)) {
	e.mu.Lock()
	e.observer = fn
	e.mu.Unlock()
}

// SetColor sets the working color used by the single-color modes.
func (e *Engine) SetColor(r, g, b uint8) {
	e.update(func() bool {
		c := color.RGBA{R: r, G: g, B: b, A: 0xff}
		if e.color == c {
			return false
		}
		e.color = c
		return true
	})
}

// SetBrightness sets the global brightness.
func (e *Engine) SetBrightness(b uint8) {
	e.update(func() bool { return e.setBrightnessLocked(int(b)) })
}

// NextBrightness raises the brightness by BrightnessStep, wrapping back to
// BrightnessStep past the maximum.
func (e *Engine) NextBrightness() {
	e.update(func() bool { return e.setBrightnessLocked(int(e.brightness) + BrightnessStep) })
}

// SetMode selects the animation.
func (e *Engine) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, uint8(m))
	}
	e.update(func() bool { return e.setModeLocked(m) })
	return nil
}

// NextMode selects the following mode, wrapping to Off after the last.
func (e *Engine) NextMode() {
	e.update(func() bool { return e.setModeLocked(e.mode.Next()) })
}

// update runs fn under the parameter lock. If fn reports a change, the
// render goroutine is woken and the observer called once the lock is released.
func (e *Engine) update(fn func() bool) {
	e.mu.Lock()
	if !fn() {
		e.mu.Unlock()
		return
	}
	e.version++
	e.mu.Unlock()

	e.notify()
	e.publish()
}

// publish hands the current state to the observer unless a later call
// already delivered it.
func (e *Engine) publish() {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	s, v, observer := e.stateLocked(), e.version, e.observer
	e.mu.Unlock()

	if observer == nil || v <= e.notified {
		return
	}
	e.notified = v
	observer(s)
}

func (e *Engine) setBrightnessLocked(b int) bool {
	if b > 255 {
		b = BrightnessStep
	}
	if int(e.brightness) == b {
		return false
	}
	e.brightness = uint8(b)
	e.persistLocked(brightnessKey, e.brightness)
	return true
}

func (e *Engine) setModeLocked(m Mode) bool {
	if e.mode == m {
		return false
	}
	e.mode = m
	e.persistLocked(modeKey, byte(m))
	return true
}

func (e *Engine) persistLocked(key string, v byte) {
	if e.store == nil {
		return
	}
	if err := e.store.PutByte(key, v); err != nil {
		e.logger.Warn("persist setting failed", "key", key, "err", err)
	}
}

func (e *Engine) stateLocked() State {
	return State{
		Mode:       e.mode,
		Brightness: e.brightness,
		Red:        e.color.R,
		Green:      e.color.G,
		Blue:       e.color.B,
	}
}

// notify wakes the render goroutine. Pending wakes coalesce.
func (e *Engine) notify() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
		case <-timer.C:
		}

		e.renderFrame()
		timerutil.Reset(timer, e.untilNextStep())
	}
}

// untilNextStep returns how long the render goroutine may sleep before the
// current mode's next step is due, plus one millisecond of slack.
func (e *Engine) untilNextStep() time.Duration {
	e.mu.Lock()
	interval := patterns[e.mode].interval
	e.mu.Unlock()

	wait := time.Millisecond
	if since := e.now().Sub(e.lastStep); since <= interval {
		wait = interval - since
	}
	return wait + time.Millisecond
}

// renderFrame draws and shows one frame, advancing the step when a full
// interval has elapsed since the last advance.
func (e *Engine) renderFrame() {
	e.mu.Lock()
	mode, brightness, c := e.mode, e.brightness, e.color
	e.mu.Unlock()

	if mode != e.lastMode {
		e.strip.Clear()
		e.show()
		e.step = 0
		e.direction = 1
		e.lastStep = time.Time{}
		e.lastMode = mode
		e.logger.Debug("mode switched", "mode", mode)
	}

	p := &patterns[mode]
	steps := p.steps(e.canvas)
	switch {
	case p.bounce && steps <= 1:
		e.step, e.direction = 0, 0
	case p.bounce && e.step >= steps-1:
		e.direction = -1
	case p.bounce && e.step <= 0:
		e.direction = 1
	case !p.bounce && e.step >= steps:
		e.step = 0
	}

	p.draw(e.canvas, e.step, gamma(c))
	e.strip.SetBrightness(brightness)
	e.show()

	if now := e.now(); now.Sub(e.lastStep) >= p.interval {
		e.lastStep = now
		e.step += e.direction
	}
}

func (e *Engine) show() {
	if err := e.strip.Show(); err != nil {
		e.logger.Debug("show failed", "err", err)
	}
}
