package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/hw"
	"github.com/CoryCharlton/emilys-neopixel/internal/input"
	"github.com/CoryCharlton/emilys-neopixel/internal/mqtt"
	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
	"github.com/CoryCharlton/emilys-neopixel/internal/status"
	"github.com/CoryCharlton/emilys-neopixel/internal/store"
	"github.com/CoryCharlton/emilys-neopixel/internal/strip"
)

// devices are the hardware endpoints the app is built on.
type devices struct {
	brightness hw.LevelReader
	mode       hw.LevelReader
	red        hw.MagnitudeReader
	green      hw.MagnitudeReader
	blue       hw.MagnitudeReader
	driver     strip.Driver
	backend    store.Backend
}

// Close releases the input channels. The driver is released by the strip.
func (d devices) Close() error {
	var errs []error
	for _, c := range []io.Closer{d.brightness, d.mode, d.red, d.green, d.blue} {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// openDevices opens the real hardware described by cfg.
func openDevices(cfg config) (devices, error) {
	var devs devices
	var err error

	if devs.brightness, err = openLine(cfg.Chip, cfg.BrightnessPin); err != nil {
		return devs, fmt.Errorf("open brightness button: %w", err)
	}
	if devs.mode, err = openLine(cfg.Chip, cfg.ModePin); err != nil {
		devs.Close()
		return devices{}, fmt.Errorf("open mode button: %w", err)
	}

	channels := []struct {
		name    string
		channel int
		dst     *hw.MagnitudeReader
	}{
		{"red", cfg.RedChannel, &devs.red},
		{"green", cfg.GreenChannel, &devs.green},
		{"blue", cfg.BlueChannel, &devs.blue},
	}
	for _, ch := range channels {
		c, err := hw.NewIIOChannel(hw.IIOConfig{
			Dir:        cfg.IIODir,
			Device:     cfg.IIODevice,
			Channel:    ch.channel,
			SourceBits: cfg.ADCSourceBits,
			Bits:       cfg.ADCBits,
		})
		if err != nil {
			devs.Close()
			return devices{}, fmt.Errorf("open %s channel: %w", ch.name, err)
		}
		*ch.dst = c
	}

	switch cfg.Output {
	case outputTerm:
		display := strip.NewTermDisplay(os.Stdout, int16(cfg.Cols), int16(cfg.Rows))
		devs.driver = strip.NewDisplayerDriver(display, cfg.Cols)
	default:
		devs.driver = strip.NewSPIDriver(cfg.SPIPort, cfg.Cols*cfg.Rows)
	}
	devs.backend = store.FileBackend{Dir: cfg.StoreDir}
	return devs, nil
}

// openLine keeps a nil *GPIOLine out of the LevelReader interface.
func openLine(chip string, pin int) (hw.LevelReader, error) {
	l, err := hw.NewGPIOLine(chip, pin)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// app ties the inputs to the display engine and reports every change to the
// tracker and the publisher.
type app struct {
	cfg       config
	logger    *slog.Logger
	now       func() time.Time
	publisher mqtt.Publisher
	tracker   *status.Tracker

	brightness *input.DigitalInput
	mode       *input.DigitalInput
	color      *input.ColorInput
	strip      *strip.Strip
	engine     *neopixel.Engine
}

func newApp(cfg config, devs devices, publisher mqtt.Publisher, tracker *status.Tracker, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		publisher: publisher,
		tracker:   tracker,
	}

	var err error
	if a.brightness, err = a.newButton(status.ButtonBrightness, devs.brightness); err != nil {
		return nil, err
	}
	if a.mode, err = a.newButton(status.ButtonMode, devs.mode); err != nil {
		return nil, err
	}

	knobs := make([]*input.AnalogInput, 3)
	for i, r := range []hw.MagnitudeReader{devs.red, devs.green, devs.blue} {
		knobs[i], err = input.NewAnalogInput(r,
			input.WithName([]string{"red", "green", "blue"}[i]),
			input.WithDebounce(cfg.AnalogDebounce),
			input.WithInterval(cfg.AnalogInterval),
			input.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("color input: %w", err)
		}
	}
	a.color = input.NewColorInput(knobs[0], knobs[1], knobs[2])
	a.color.OnEvent(a.onColor)

	a.strip = strip.New(devs.driver, cfg.Cols, cfg.Rows)
	a.engine = neopixel.New(a.strip, devs.backend, neopixel.WithLogger(logger))
	a.engine.OnChange(a.onDisplayChange)
	return a, nil
}

func (a *app) newButton(source string, r hw.LevelReader) (*input.DigitalInput, error) {
	d, err := input.NewDigitalInput(r,
		input.WithName(source),
		input.WithDebounce(a.cfg.DigitalDebounce),
		input.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("%s button: %w", source, err)
	}
	d.SetLongTrigger(a.cfg.LongTrigger)
	d.SetMultiTrigger(a.cfg.MultiTrigger, a.cfg.MultiTriggerTarget)
	d.OnEvent(a.onButton(source))
	return d, nil
}

// begin starts the display first so that input events always find it running.
func (a *app) begin() error {
	if err := a.engine.Begin(); err != nil {
		return fmt.Errorf("start display: %w", err)
	}
	a.onDisplayChange(a.engine.State())

	if a.cfg.Mode != "" {
		m, err := neopixel.ParseMode(a.cfg.Mode)
		if err != nil {
			a.engine.End()
			return err
		}
		if err := a.engine.SetMode(m); err != nil {
			a.engine.End()
			return err
		}
	}
	a.engine.SetColor(clamp8(a.color.Red()), clamp8(a.color.Green()), clamp8(a.color.Blue()))

	for _, s := range []interface{ Begin() error }{a.brightness, a.mode, a.color} {
		if err := s.Begin(); err != nil {
			a.end()
			return fmt.Errorf("start inputs: %w", err)
		}
	}
	a.tracker.SetReady(true)
	return nil
}

// end stops the inputs, then the display, then releases the strip.
func (a *app) end() {
	a.tracker.SetReady(false)
	a.brightness.End()
	a.mode.End()
	a.color.End()
	if err := a.engine.End(); err != nil {
		a.logger.Warn("stop display", "err", err)
	}
	if err := a.strip.Close(); err != nil {
		a.logger.Warn("close strip", "err", err)
	}
}

// onButton handles the events of one button. Only Trigger drives the display;
// the other events are reported.
func (a *app) onButton(source string) input.DigitalEventHandler {
	return func(e input.DigitalEvent) {
		a.logger.Debug("input event", "input", source, "event", e)
		a.tracker.RecordButton(source, e)
		if err := a.publisher.PublishInput(mqtt.InputEvent{
			Timestamp: a.now(),
			Source:    source,
			Event:     e.String(),
		}); err != nil {
			a.logger.Warn("publish input event", "input", source, "err", err)
		}

		if e != input.Trigger {
			return
		}
		switch source {
		case status.ButtonBrightness:
			a.engine.NextBrightness()
		case status.ButtonMode:
			a.engine.NextMode()
		}
	}
}

func (a *app) onColor(r, g, b uint16) {
	a.logger.Debug("color event", "red", r, "green", g, "blue", b)
	a.tracker.RecordColor(r, g, b)
	if err := a.publisher.PublishInput(mqtt.InputEvent{
		Timestamp: a.now(),
		Source:    mqtt.SourceColor,
		Event:     mqtt.EventColorChange,
		Color:     &mqtt.ColorJSON{Red: r, Green: g, Blue: b},
	}); err != nil {
		a.logger.Warn("publish color event", "err", err)
	}
	a.engine.SetColor(clamp8(r), clamp8(g), clamp8(b))
}

func (a *app) onDisplayChange(s neopixel.State) {
	a.logger.Info("display changed", "mode", s.Mode, "brightness", s.Brightness,
		"red", s.Red, "green", s.Green, "blue", s.Blue)
	a.tracker.SetDisplay(s)
	if err := a.publisher.PublishState(a.now(), s); err != nil {
		a.logger.Warn("publish display state", "err", err)
	}
}

func clamp8(v uint16) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}
