package input

import (
	"fmt"
	"sync"
)

// ColorEventHandler receives the stable value of all three channels.
type ColorEventHandler func(red, green, blue uint16)

// ColorInput fans three analog monitors into a single color event. Whenever
// any channel commits a new value, the handler receives the current stable
// value of every channel. Commits arrive from the three sampling goroutines;
// handler calls are serialized and read the channel values inside the
// serialized section, so the last call always carries the newest color.
type ColorInput struct {
	red, green, blue *AnalogInput

	mu      sync.Mutex
	handler ColorEventHandler
	started bool

	emitMu sync.Mutex
}

// NewColorInput groups three analog monitors. The ColorInput takes over their
// event handlers when Begin is called.
func NewColorInput(red, green, blue *AnalogInput) *ColorInput {
	return &ColorInput{red: red, green: green, blue: blue}
}

// Begin registers the fan-in handler on all channels and starts them. If a
// channel fails to start, channels already started are stopped again.
func (c *ColorInput) Begin() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	channels := []struct {
		name string
		in   *AnalogInput
	}{{"red", c.red}, {"green", c.green}, {"blue", c.blue}}

	for _, ch := range channels {
		ch.in.OnEvent(c.onChannelEvent)
	}
	for i, ch := range channels {
		if err := ch.in.Begin(); err != nil {
			for _, started := range channels[:i] {
				started.in.End()
			}
			c.mu.Lock()
			c.started = false
			c.mu.Unlock()
			return fmt.Errorf("begin %s channel: %w", ch.name, err)
		}
	}
	return nil
}

// End stops all three channels.
func (c *ColorInput) End() {
	c.mu.Lock()
	c.started = false
	c.mu.Unlock()

	c.red.End()
	c.green.End()
	c.blue.End()
}

// Red returns the stable red value.
func (c *ColorInput) Red() uint16 { return c.red.Value() }

// Green returns the stable green value.
func (c *ColorInput) Green() uint16 { return c.green.Value() }

// Blue returns the stable blue value.
func (c *ColorInput) Blue() uint16 { return c.blue.Value() }

// OnEvent replaces the event handler.
func (c *ColorInput) OnEvent(h ColorEventHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *ColorInput) onChannelEvent(uint16) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()

	if handler != nil {
		handler(c.red.Value(), c.green.Value(), c.blue.Value())
	}
}
