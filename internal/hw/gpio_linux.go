//go:build linux

package hw

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOLine reads a button from the Linux GPIO character device.
// Both edges are requested so the kernel delivers change events, which are
// forwarded to the callback registered with NotifyEdges.
type GPIOLine struct {
	line   *gpiocdev.Line
	notify atomic.Pointer[func()]

	mu     sync.Mutex
	closed bool
}

// NewGPIOLine requests pin on chip as an input with pull-up bias.
func NewGPIOLine(chip string, pin int) (*GPIOLine, error) {
	g := &GPIOLine{}
	line, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(g.onEdge))
	if err != nil {
		return nil, fmt.Errorf("request pin %d on %s: %w", pin, chip, err)
	}
	g.line = line
	return g, nil
}

func (g *GPIOLine) onEdge(gpiocdev.LineEvent) {
	if fn := g.notify.Load(); fn != nil {
		(*fn)()
	}
}

// Level returns the raw line value.
func (g *GPIOLine) Level() (bool, error) {
	v, err := g.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	return v != 0, nil
}

// NotifyEdges sets the callback invoked on every edge event.
func (g *GPIOLine) NotifyEdges(fn func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if fn == nil {
		g.notify.Store(nil)
		return nil
	}
	g.notify.Store(&fn)
	return nil
}

// Close drops the edge callback and releases the line.
func (g *GPIOLine) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	g.notify.Store(nil)

	if err := g.line.Close(); err != nil {
		return fmt.Errorf("close pin: %w", err)
	}
	return nil
}
