// Package strip holds the pixel buffer of an addressable LED strip laid out
// as a grid, and pushes brightness-scaled frames to a Driver.
package strip

import (
	"fmt"
	"image/color"
	"sync"
)

// Driver transmits frames to the physical LEDs.
type Driver interface {
	// Begin prepares the output. It is called once before the first Write.
	Begin() error

	// Write transmits one frame. len(pixels) equals the strip length.
	Write(pixels []color.RGBA) error

	// Close releases the output.
	Close() error
}

// Strip is a row-major grid of RGB pixels. Pixel i sits at column i%cols,
// row i/cols. It is safe for concurrent use.
type Strip struct {
	driver     Driver
	cols, rows int

	mu         sync.Mutex
	pixels     []color.RGBA
	frame      []color.RGBA
	brightness uint8
}

// New creates a strip of cols×rows pixels. Brightness starts at full.
func New(driver Driver, cols, rows int) *Strip {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	n := cols * rows
	return &Strip{
		driver:     driver,
		cols:       cols,
		rows:       rows,
		pixels:     make([]color.RGBA, n),
		frame:      make([]color.RGBA, n),
		brightness: 255,
	}
}

// Begin initializes the driver.
func (s *Strip) Begin() error {
	if err := s.driver.Begin(); err != nil {
		return fmt.Errorf("begin driver: %w", err)
	}
	return nil
}

// NumPixels returns the strip length.
func (s *Strip) NumPixels() int { return len(s.pixels) }

// Layout returns the grid dimensions.
func (s *Strip) Layout() (cols, rows int) { return s.cols, s.rows }

// Index returns the strip position of the pixel at col, row.
func (s *Strip) Index(col, row int) int { return row*s.cols + col }

// SetPixel sets pixel i. Out-of-range indexes are ignored.
func (s *Strip) SetPixel(i int, c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.pixels) {
		return
	}
	s.pixels[i] = c
}

// Pixel returns the unscaled color of pixel i.
func (s *Strip) Pixel(i int) color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.pixels) {
		return color.RGBA{}
	}
	return s.pixels[i]
}

// Fill sets every pixel to c.
func (s *Strip) Fill(c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pixels {
		s.pixels[i] = c
	}
}

// Clear turns every pixel off.
func (s *Strip) Clear() { s.Fill(color.RGBA{}) }

// SetBrightness sets the global brightness applied by Show.
func (s *Strip) SetBrightness(b uint8) {
	s.mu.Lock()
	s.brightness = b
	s.mu.Unlock()
}

// Brightness returns the global brightness.
func (s *Strip) Brightness() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// Show scales the buffer by the global brightness and writes it out.
func (s *Strip) Show() error {
	s.mu.Lock()
	scale := uint16(s.brightness) + 1
	for i, c := range s.pixels {
		s.frame[i] = color.RGBA{
			R: uint8(uint16(c.R) * scale >> 8),
			G: uint8(uint16(c.G) * scale >> 8),
			B: uint8(uint16(c.B) * scale >> 8),
			A: 0xff,
		}
	}
	err := s.driver.Write(s.frame)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close releases the driver.
func (s *Strip) Close() error {
	return s.driver.Close()
}
