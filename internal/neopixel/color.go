package neopixel

import (
	"image/color"
	"math"

	"github.com/aykevl/ledsgo"
)

// gammaTable maps linear 8-bit values onto a 2.6 gamma curve, which is close
// to how the eye perceives LED brightness. spectrum output is linear.
var gammaTable = func() (t [256]uint8) {
	for i := range t {
		t[i] = uint8(math.Pow(float64(i)/255, 2.6)*255 + 0.5)
	}
	return t
}()

func gamma(c color.RGBA) color.RGBA {
	return color.RGBA{R: gammaTable[c.R], G: gammaTable[c.G], B: gammaTable[c.B], A: 0xff}
}

// spectrum returns the fully saturated color at hue h. The 16-bit range
// covers one trip around the color wheel, red through green through blue.
func spectrum(h uint16) color.RGBA {
	return ledsgo.Color{H: h, S: 0xff, V: 0xff}.Spectrum()
}
