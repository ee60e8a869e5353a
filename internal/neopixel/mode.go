package neopixel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned for mode values outside the enumeration.
var ErrInvalidMode = errors.New("invalid mode")

// Mode selects an animation.
type Mode uint8

const (
	Off Mode = iota
	Solid
	WipeHorizontal
	WipeVertical
	TheaterChase
	Rainbow
	RainbowWave
	TheaterChaseRainbow
	RainbowWheel

	modeCount
)

// DefaultMode is used when no usable mode is persisted.
const DefaultMode = Solid

var modeNames = [modeCount]string{
	Off:                 "OFF",
	Solid:               "SOLID",
	WipeHorizontal:      "WIPE_HORIZONTAL",
	WipeVertical:        "WIPE_VERTICAL",
	TheaterChase:        "THEATER_CHASE",
	Rainbow:             "RAINBOW",
	RainbowWave:         "RAINBOW_WAVE",
	TheaterChaseRainbow: "THEATER_CHASE_RAINBOW",
	RainbowWheel:        "RAINBOW_WHEEL",
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m < modeCount }

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
	return modeNames[m]
}

// Next returns the mode after m, wrapping to Off after the last one.
func (m Mode) Next() Mode {
	if m+1 >= modeCount {
		return Off
	}
	return m + 1
}

// Modes returns every mode in order.
func Modes() []Mode {
	out := make([]Mode, modeCount)
	for i := range out {
		out[i] = Mode(i)
	}
	return out
}

// ParseMode parses a mode name such as "rainbow-wave" or "RAINBOW_WAVE".
func ParseMode(s string) (Mode, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
