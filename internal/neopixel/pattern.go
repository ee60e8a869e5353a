package neopixel

import (
	"image/color"
	"time"
)

// canvas is the part of the strip a pattern draws on.
type canvas struct {
	strip      Strip
	n          int
	cols, rows int
}

func newCanvas(s Strip) *canvas {
	cols, rows := s.Layout()
	return &canvas{strip: s, n: s.NumPixels(), cols: cols, rows: rows}
}

// pattern describes one mode: how often its step advances, how the step
// moves, and how a frame is drawn for a given step.
type pattern struct {
	interval time.Duration

	// steps returns the number of distinct steps on the canvas.
	steps func(c *canvas) int

	// bounce patterns sweep back and forth over [0, steps-1] instead of
	// wrapping to 0.
	bounce bool

	// draw renders one frame. c is the gamma-corrected working color.
	draw func(cv *canvas, step int, c color.RGBA)
}

func fixedSteps(n int) func(*canvas) int {
	return func(*canvas) int { return n }
}

var patterns = [modeCount]pattern{
	Off: {
		interval: time.Second,
		steps:    fixedSteps(1),
		draw:     func(*canvas, int, color.RGBA) {},
	},
	Solid: {
		interval: time.Second,
		steps:    fixedSteps(1),
		draw: func(cv *canvas, _ int, c color.RGBA) {
			cv.strip.Fill(c)
		},
	},
	WipeHorizontal: {
		interval: 70 * time.Millisecond,
		steps:    func(cv *canvas) int { return cv.cols },
		bounce:   true,
		draw: func(cv *canvas, step int, c color.RGBA) {
			for i := 0; i < cv.n; i++ {
				if i%cv.cols == step {
					cv.strip.SetPixel(i, color.RGBA{})
				} else {
					cv.strip.SetPixel(i, c)
				}
			}
		},
	},
	WipeVertical: {
		interval: 140 * time.Millisecond,
		steps:    func(cv *canvas) int { return cv.rows },
		bounce:   true,
		draw: func(cv *canvas, step int, c color.RGBA) {
			for i := 0; i < cv.n; i++ {
				if i/cv.cols == step {
					cv.strip.SetPixel(i, color.RGBA{})
				} else {
					cv.strip.SetPixel(i, c)
				}
			}
		},
	},
	TheaterChase: {
		interval: 60 * time.Millisecond,
		steps:    fixedSteps(3),
		draw: func(cv *canvas, step int, c color.RGBA) {
			cv.strip.Clear()
			for i := step; i < cv.n; i += 3 {
				cv.strip.SetPixel(i, c)
			}
		},
	},
	Rainbow: {
		interval: 10 * time.Millisecond,
		steps:    fixedSteps(768),
		draw: func(cv *canvas, step int, _ color.RGBA) {
			for i := 0; i < cv.n; i++ {
				cv.strip.SetPixel(i, gamma(spectrum(rampHue(step, i, cv.n))))
			}
		},
	},
	RainbowWave: {
		interval: 10 * time.Millisecond,
		steps:    fixedSteps(768),
		draw: func(cv *canvas, step int, _ color.RGBA) {
			for col := 0; col < cv.cols; col++ {
				c := gamma(spectrum(rampHue(step, col, cv.cols)))
				for row := 0; row < cv.rows; row++ {
					cv.strip.SetPixel(row*cv.cols+col, c)
				}
			}
		},
	},
	TheaterChaseRainbow: {
		interval: 50 * time.Millisecond,
		steps:    fixedSteps(768),
		draw: func(cv *canvas, step int, _ color.RGBA) {
			cv.strip.Clear()
			for i := step % 3; i < cv.n; i += 3 {
				cv.strip.SetPixel(i, gamma(spectrum(rampHue(step, i, cv.n))))
			}
		},
	},
	RainbowWheel: {
		interval: 10 * time.Millisecond,
		steps:    fixedSteps(5 * 256),
		draw: func(cv *canvas, step int, _ color.RGBA) {
			for i := 0; i < cv.n; i++ {
				cv.strip.SetPixel(i, spectrum(uint16((i*256/cv.n+step)&255)<<8))
			}
		},
	},
}

// rampHue spreads one full hue cycle over n positions, offset by the step.
func rampHue(step, i, n int) uint16 {
	return uint16(uint32(step)*256 + uint32(i)*65536/uint32(n))
}
