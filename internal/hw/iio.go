package hw

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DefaultIIODir is where the kernel exposes industrial I/O devices.
const DefaultIIODir = "/sys/bus/iio/devices"

// IIOChannel reads an ADC channel through the Linux IIO sysfs interface.
// Raw conversions are right-shifted from the converter width down to the
// requested resolution.
type IIOChannel struct {
	path  string
	shift uint

	mu     sync.Mutex
	closed bool
}

// IIOConfig selects an IIO channel.
type IIOConfig struct {
	Dir        string // defaults to DefaultIIODir
	Device     int    // iio:deviceN
	Channel    int    // in_voltageN_raw
	SourceBits uint   // converter width, e.g. 12
	Bits       uint   // reported resolution, e.g. 8
}

// NewIIOChannel opens the channel and performs a test read.
func NewIIOChannel(cfg IIOConfig) (*IIOChannel, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultIIODir
	}
	if cfg.Bits == 0 || cfg.Bits > 16 {
		return nil, fmt.Errorf("iio: invalid resolution %d bits", cfg.Bits)
	}
	if cfg.SourceBits < cfg.Bits || cfg.SourceBits > 16 {
		return nil, fmt.Errorf("iio: invalid converter width %d bits", cfg.SourceBits)
	}
	c := &IIOChannel{
		path:  filepath.Join(dir, fmt.Sprintf("iio:device%d", cfg.Device), fmt.Sprintf("in_voltage%d_raw", cfg.Channel)),
		shift: cfg.SourceBits - cfg.Bits,
	}
	if _, err := c.Magnitude(); err != nil {
		return nil, err
	}
	return c, nil
}

// Magnitude returns the latest conversion at the configured resolution.
func (c *IIOChannel) Magnitude() (uint16, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0, fmt.Errorf("iio: read %s: %w", c.path, err)
	}
	raw, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("iio: parse %s: %w", c.path, err)
	}
	if raw > 0xFFFF {
		raw = 0xFFFF
	}
	return uint16(raw) >> c.shift, nil
}

// Close marks the channel closed. Sysfs files are opened per read.
func (c *IIOChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}
