//go:build !linux

package hw

import "errors"

// GPIOLine is not available on non-Linux platforms.
type GPIOLine struct{}

// NewGPIOLine returns an error on non-Linux platforms.
func NewGPIOLine(chip string, pin int) (*GPIOLine, error) {
	return nil, errors.New("hw: gpio not supported on this platform (requires Linux)")
}

// Level is not implemented on non-Linux platforms.
func (g *GPIOLine) Level() (bool, error) {
	return false, errors.New("hw: gpio not supported")
}

// NotifyEdges is not implemented on non-Linux platforms.
func (g *GPIOLine) NotifyEdges(fn func()) error {
	return errors.New("hw: gpio not supported")
}

// Close is a no-op on non-Linux platforms.
func (g *GPIOLine) Close() error {
	return nil
}
