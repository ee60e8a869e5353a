package hw

import (
	"errors"
	"sync"
)

// FakeLevel is a test double that returns scripted levels.
// It is safe for concurrent use.
type FakeLevel struct {
	mu sync.Mutex

	// Samples contains scripted levels. Each call to Level consumes the next
	// sample; once exhausted the last sample is returned repeatedly.
	Samples []bool
	index   int

	// ReadError, if set, is returned by Level.
	ReadError error

	// NotifyError, if set, is returned by NotifyEdges.
	NotifyError error

	closed bool
	notify func()
}

// NewFakeLevel creates a FakeLevel with the given samples.
func NewFakeLevel(samples ...bool) *FakeLevel {
	return &FakeLevel{Samples: samples}
}

// Level returns the next scripted sample.
func (f *FakeLevel) Level() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false, ErrClosed
	}
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Set replaces the script with a single constant level.
func (f *FakeLevel) Set(level bool) {
	f.mu.Lock()
	f.Samples = []bool{level}
	f.index = 0
	f.mu.Unlock()
}

// NotifyEdges records the edge callback.
func (f *FakeLevel) NotifyEdges(fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NotifyError != nil {
		return f.NotifyError
	}
	f.notify = fn
	return nil
}

// Fire invokes the registered edge callback, as an interrupt would.
// It reports whether a callback was registered.
func (f *FakeLevel) Fire() bool {
	f.mu.Lock()
	fn := f.notify
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Close marks the reader as closed.
func (f *FakeLevel) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeLevel) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeMagnitude is a test double that returns scripted magnitudes.
// It is safe for concurrent use.
type FakeMagnitude struct {
	mu sync.Mutex

	// Samples contains scripted values, consumed like FakeLevel.Samples.
	Samples []uint16
	index   int

	// ReadError, if set, is returned by Magnitude.
	ReadError error

	closed bool
}

// NewFakeMagnitude creates a FakeMagnitude with the given samples.
func NewFakeMagnitude(samples ...uint16) *FakeMagnitude {
	return &FakeMagnitude{Samples: samples}
}

// Magnitude returns the next scripted sample.
func (f *FakeMagnitude) Magnitude() (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrClosed
	}
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Set replaces the script with a single constant value.
func (f *FakeMagnitude) Set(v uint16) {
	f.mu.Lock()
	f.Samples = []uint16{v}
	f.index = 0
	f.mu.Unlock()
}

// Close marks the reader as closed.
func (f *FakeMagnitude) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}
