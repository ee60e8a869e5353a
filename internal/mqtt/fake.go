package mqtt

import (
	"sync"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
)

// FakePublisher records published messages for test assertions.
// It is safe for concurrent use.
type FakePublisher struct {
	mu sync.Mutex

	// InputEvents contains all input events that were published.
	InputEvents []InputEvent

	// States contains all display states that were published.
	States []neopixel.State

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// Payloads maps each topic kind ("events", "state", "system") to the JSON
	// payloads published under it.
	Payloads map[string][][]byte

	// PublishError, if set, is returned by every Publish method.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Payloads: map[string][][]byte{}}
}

func (f *FakePublisher) PublishInput(event InputEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatInputPayload(event)
	if err != nil {
		return err
	}
	f.InputEvents = append(f.InputEvents, event)
	f.Payloads["events"] = append(f.Payloads["events"], payload)
	return nil
}

func (f *FakePublisher) PublishState(t time.Time, state neopixel.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatStatePayload(t, state)
	if err != nil {
		return err
	}
	f.States = append(f.States, state)
	f.Payloads["state"] = append(f.Payloads["state"], payload)
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.Payloads["system"] = append(f.Payloads["system"], payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Inputs returns a copy of the recorded input events.
func (f *FakePublisher) Inputs() []InputEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]InputEvent(nil), f.InputEvents...)
}

// System returns a copy of the recorded system events.
func (f *FakePublisher) System() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.SystemEvents...)
}

// NopPublisher discards everything. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishInput(InputEvent) error                { return nil }
func (NopPublisher) PublishState(time.Time, neopixel.State) error { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error              { return nil }
func (NopPublisher) Close() error                                 { return nil }
func (NopPublisher) IsConnected() bool                            { return false }
