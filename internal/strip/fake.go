package strip

import (
	"image/color"
	"sync"
)

// FakeDriver records frames instead of transmitting them.
// It is safe for concurrent use.
type FakeDriver struct {
	mu sync.Mutex

	// BeginError and WriteError, if set, are returned by Begin and Write.
	BeginError error
	WriteError error

	began  int
	closed bool
	frames [][]color.RGBA
	notify chan struct{}
}

// NewFakeDriver creates a FakeDriver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{notify: make(chan struct{}, 1)}
}

func (f *FakeDriver) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BeginError != nil {
		return f.BeginError
	}
	f.began++
	return nil
}

func (f *FakeDriver) Write(pixels []color.RGBA) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.frames = append(f.frames, append([]color.RGBA(nil), pixels...))
	select {
	case f.notify <- struct{}{}:
	default:
	}
	return nil
}

func (f *FakeDriver) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Began returns how many times Begin succeeded.
func (f *FakeDriver) Began() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.began
}

// Closed reports whether Close was called.
func (f *FakeDriver) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Frames returns a copy of every frame written so far.
func (f *FakeDriver) Frames() [][]color.RGBA {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]color.RGBA, len(f.frames))
	copy(out, f.frames)
	return out
}

// LastFrame returns the most recent frame, or nil.
func (f *FakeDriver) LastFrame() []color.RGBA {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

// Written is signalled after each Write. Receives coalesce.
func (f *FakeDriver) Written() <-chan struct{} { return f.notify }
