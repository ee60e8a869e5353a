// Package hw provides the sampling primitives the input monitors read from.
// The real implementations use the Linux GPIO character device for buttons and
// the IIO subsystem for analog channels. The fakes allow testing without hardware.
package hw

import "errors"

// ErrClosed is returned by readers used after Close.
var ErrClosed = errors.New("hw: reader closed")

// LevelReader reads a boolean level from a digital channel.
type LevelReader interface {
	// Level returns the raw electrical level (true = high).
	// Polarity is applied by the consumer, not the reader.
	Level() (bool, error)

	// Close releases the channel.
	Close() error
}

// MagnitudeReader reads an unsigned magnitude from an analog channel.
type MagnitudeReader interface {
	// Magnitude returns the latest conversion, at most 16 bits wide.
	Magnitude() (uint16, error)

	// Close releases the channel.
	Close() error
}

// EdgeNotifier is implemented by readers that can signal level changes
// asynchronously. The callback runs in the notifier's own context (an
// interrupt handler or event goroutine) and must not block.
// Passing nil removes the callback.
type EdgeNotifier interface {
	NotifyEdges(fn func()) error
}

// Default pin assignments (BCM numbering) and IIO channels.
const (
	DefaultBrightnessPin = 25
	DefaultModePin       = 26

	DefaultRedChannel   = 6
	DefaultGreenChannel = 3
	DefaultBlueChannel  = 0
)
