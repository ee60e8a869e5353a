package strip

import (
	"fmt"
	"image/color"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPIDriver drives a WS2812-class strip by encoding the NRZ bit stream on the
// MOSI line of an SPI port.
type SPIDriver struct {
	port      string
	numPixels int

	p   spi.PortCloser
	dev *nrzled.Dev
	buf []byte
}

// NewSPIDriver returns a driver for numPixels LEDs on the named SPI port.
// An empty port selects the first available one.
func NewSPIDriver(port string, numPixels int) *SPIDriver {
	return &SPIDriver{port: port, numPixels: numPixels}
}

// Begin initializes the host drivers and opens the port. It is a no-op if
// the port is already open.
func (d *SPIDriver) Begin() error {
	if d.dev != nil {
		return nil
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}

	p, err := spireg.Open(d.port)
	if err != nil {
		return fmt.Errorf("open spi port %q: %w", d.port, err)
	}

	opts := nrzled.DefaultOpts
	opts.NumPixels = d.numPixels
	opts.Channels = 3
	dev, err := nrzled.NewSPI(p, &opts)
	if err != nil {
		p.Close()
		return fmt.Errorf("nrzled: %w", err)
	}

	d.p = p
	d.dev = dev
	d.buf = make([]byte, 3*d.numPixels)
	return nil
}

// Write sends one frame. Pixels beyond the configured length are dropped.
func (d *SPIDriver) Write(pixels []color.RGBA) error {
	if d.dev == nil {
		return fmt.Errorf("spi driver not started")
	}
	for i := 0; i < d.numPixels && i < len(pixels); i++ {
		d.buf[3*i] = pixels[i].R
		d.buf[3*i+1] = pixels[i].G
		d.buf[3*i+2] = pixels[i].B
	}
	_, err := d.dev.Write(d.buf)
	return err
}

// Close blanks the strip and closes the port.
func (d *SPIDriver) Close() error {
	if d.dev == nil {
		return nil
	}
	var errs []error
	if err := d.dev.Halt(); err != nil {
		errs = append(errs, fmt.Errorf("halt: %w", err))
	}
	if err := d.p.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close port: %w", err))
	}
	d.dev = nil
	d.p = nil
	if len(errs) > 0 {
		return fmt.Errorf("close spi driver: %v", errs)
	}
	return nil
}
