package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/CoryCharlton/emilys-neopixel/internal/hw"
	"github.com/CoryCharlton/emilys-neopixel/internal/input"
	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
	"github.com/CoryCharlton/emilys-neopixel/internal/status"
)

// Output drivers.
const (
	outputSPI  = "spi"
	outputTerm = "term"
)

type config struct {
	Device string

	Chip          string
	BrightnessPin int
	ModePin       int

	IIODir         string
	IIODevice      int
	RedChannel     int
	GreenChannel   int
	BlueChannel    int
	ADCSourceBits  uint
	ADCBits        uint
	AnalogInterval time.Duration

	Output  string
	SPIPort string
	Cols    int
	Rows    int

	DigitalDebounce    time.Duration
	AnalogDebounce     time.Duration
	LongTrigger        time.Duration
	MultiTrigger       time.Duration
	MultiTriggerTarget int

	StoreDir  string
	Broker    string
	HTTPAddr  string
	Heartbeat time.Duration
	Mode      string
	Verbose   bool
}

var defaultConfig = config{
	Device: "emily",

	Chip:          "gpiochip0",
	BrightnessPin: hw.DefaultBrightnessPin,
	ModePin:       hw.DefaultModePin,

	IIODir:         hw.DefaultIIODir,
	IIODevice:      0,
	RedChannel:     hw.DefaultRedChannel,
	GreenChannel:   hw.DefaultGreenChannel,
	BlueChannel:    hw.DefaultBlueChannel,
	ADCSourceBits:  12,
	ADCBits:        8,
	AnalogInterval: input.DefaultAnalogInterval,

	Output:  outputSPI,
	SPIPort: "/dev/spidev0.0",
	Cols:    8,
	Rows:    4,

	DigitalDebounce:    input.DefaultDigitalDebounce,
	AnalogDebounce:     input.DefaultAnalogDebounce,
	LongTrigger:        input.DefaultLongTriggerWindow,
	MultiTrigger:       input.DefaultMultiTriggerWindow,
	MultiTriggerTarget: input.DefaultMultiTriggerTarget,

	StoreDir:  "/var/lib/emilys-neopixel",
	HTTPAddr:  ":80",
	Heartbeat: 15 * time.Minute,
}

// parseFlags builds the configuration from command-line arguments.
func parseFlags(args []string) (config, error) {
	cfg := defaultConfig
	fs := pflag.NewFlagSet("emilys-neopixel", pflag.ContinueOnError)

	fs.StringVar(&cfg.Device, "device", cfg.Device, "device name used in MQTT topics")

	fs.StringVar(&cfg.Chip, "chip", cfg.Chip, "GPIO chip of the buttons")
	fs.IntVar(&cfg.BrightnessPin, "pin-brightness", cfg.BrightnessPin, "BCM pin of the brightness button")
	fs.IntVar(&cfg.ModePin, "pin-mode", cfg.ModePin, "BCM pin of the mode button")

	fs.StringVar(&cfg.IIODir, "iio-dir", cfg.IIODir, "IIO sysfs directory")
	fs.IntVar(&cfg.IIODevice, "iio-device", cfg.IIODevice, "IIO device number of the ADC")
	fs.IntVar(&cfg.RedChannel, "adc-red", cfg.RedChannel, "ADC channel of the red knob")
	fs.IntVar(&cfg.GreenChannel, "adc-green", cfg.GreenChannel, "ADC channel of the green knob")
	fs.IntVar(&cfg.BlueChannel, "adc-blue", cfg.BlueChannel, "ADC channel of the blue knob")
	fs.UintVar(&cfg.ADCSourceBits, "adc-source-bits", cfg.ADCSourceBits, "ADC converter width")
	fs.UintVar(&cfg.ADCBits, "adc-bits", cfg.ADCBits, "ADC reading resolution")
	fs.DurationVar(&cfg.AnalogInterval, "adc-interval", cfg.AnalogInterval, "ADC sampling interval")

	fs.StringVarP(&cfg.Output, "output", "o", cfg.Output, `pixel output: "spi" or "term"`)
	fs.StringVar(&cfg.SPIPort, "spi", cfg.SPIPort, "SPI port of the strip")
	fs.IntVar(&cfg.Cols, "cols", cfg.Cols, "pixels per row")
	fs.IntVar(&cfg.Rows, "rows", cfg.Rows, "rows of pixels")

	fs.DurationVar(&cfg.DigitalDebounce, "debounce", cfg.DigitalDebounce, "button debounce window")
	fs.DurationVar(&cfg.AnalogDebounce, "adc-debounce", cfg.AnalogDebounce, "color knob debounce window")
	fs.DurationVar(&cfg.LongTrigger, "long-trigger", cfg.LongTrigger, "hold time of a long trigger (0 to disable)")
	fs.DurationVar(&cfg.MultiTrigger, "multi-trigger", cfg.MultiTrigger, "window of a multi trigger (0 to disable)")
	fs.IntVar(&cfg.MultiTriggerTarget, "multi-trigger-count", cfg.MultiTriggerTarget, "presses that make a multi trigger")

	fs.StringVar(&cfg.StoreDir, "store", cfg.StoreDir, "directory of persisted settings")
	fs.StringVar(&cfg.Broker, "broker", cfg.Broker, "MQTT broker address (empty to disable)")
	fs.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP status address (empty to disable)")
	fs.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "heartbeat interval (0 to disable)")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "start in this mode instead of the persisted one")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	switch c.Output {
	case outputSPI, outputTerm:
	default:
		return fmt.Errorf("unknown output %q", c.Output)
	}
	if c.Cols < 1 || c.Rows < 1 {
		return fmt.Errorf("invalid layout %dx%d", c.Cols, c.Rows)
	}
	if c.MultiTriggerTarget < 2 {
		return fmt.Errorf("invalid multi trigger count %d (minimum 2)", c.MultiTriggerTarget)
	}
	if c.Mode != "" {
		if _, err := neopixel.ParseMode(c.Mode); err != nil {
			return err
		}
	}
	return nil
}

func (c config) statusConfig() status.Config {
	return status.Config{
		Device:             c.Device,
		Output:             c.Output,
		Cols:               c.Cols,
		Rows:               c.Rows,
		DigitalDebounceMs:  c.DigitalDebounce.Milliseconds(),
		AnalogDebounceMs:   c.AnalogDebounce.Milliseconds(),
		LongTriggerMs:      c.LongTrigger.Milliseconds(),
		MultiTriggerMs:     c.MultiTrigger.Milliseconds(),
		MultiTriggerTarget: c.MultiTriggerTarget,
		HeartbeatMs:        c.Heartbeat.Milliseconds(),
		Broker:             c.Broker,
		HTTPAddr:           c.HTTPAddr,
	}
}
