package strip

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"sync"
)

// TermDisplay renders a pixel grid as 24-bit color blocks on a terminal.
// It implements drivers.Displayer so it can stand in for the LEDs when no
// strip is attached.
type TermDisplay struct {
	mu     sync.Mutex
	w      *bufio.Writer
	width  int16
	height int16
	pixels []color.RGBA
	drawn  bool
}

// NewTermDisplay creates a width×height display writing to w.
func NewTermDisplay(w io.Writer, width, height int16) *TermDisplay {
	return &TermDisplay{
		w:      bufio.NewWriter(w),
		width:  width,
		height: height,
		pixels: make([]color.RGBA, int(width)*int(height)),
	}
}

func (t *TermDisplay) Size() (x, y int16) { return t.width, t.height }

func (t *TermDisplay) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return
	}
	t.mu.Lock()
	t.pixels[int(y)*int(t.width)+int(x)] = c
	t.mu.Unlock()
}

// Display redraws the grid in place.
func (t *TermDisplay) Display() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.drawn {
		// Move the cursor back to the top of the grid.
		fmt.Fprintf(t.w, "\x1b[%dA", t.height)
	}
	for y := int16(0); y < t.height; y++ {
		for x := int16(0); x < t.width; x++ {
			c := t.pixels[int(y)*int(t.width)+int(x)]
			fmt.Fprintf(t.w, "\x1b[38;2;%d;%d;%dm██", c.R, c.G, c.B)
		}
		t.w.WriteString("\x1b[0m\n")
	}
	t.drawn = true
	return t.w.Flush()
}
