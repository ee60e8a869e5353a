package strip

import (
	"image/color"

	"tinygo.org/x/drivers"
)

// DisplayerDriver mirrors the strip grid onto a pixel display, one display
// pixel per LED. Pixels outside the display are skipped.
type DisplayerDriver struct {
	display drivers.Displayer
	cols    int
}

// NewDisplayerDriver wraps display for a strip that is cols pixels wide.
func NewDisplayerDriver(display drivers.Displayer, cols int) *DisplayerDriver {
	if cols < 1 {
		cols = 1
	}
	return &DisplayerDriver{display: display, cols: cols}
}

func (d *DisplayerDriver) Begin() error { return nil }

func (d *DisplayerDriver) Write(pixels []color.RGBA) error {
	w, h := d.display.Size()
	for i, c := range pixels {
		x, y := int16(i%d.cols), int16(i/d.cols)
		if x >= w || y >= h {
			continue
		}
		d.display.SetPixel(x, y, c)
	}
	return d.display.Display()
}

func (d *DisplayerDriver) Close() error { return nil }
