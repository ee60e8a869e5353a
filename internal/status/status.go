// Package status provides a thread-safe status tracker for the display daemon.
// It is read by the HTTP handlers and the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/input"
	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Device             string
	Output             string
	Cols, Rows         int
	DigitalDebounceMs  int64
	AnalogDebounceMs   int64
	LongTriggerMs      int64
	MultiTriggerMs     int64
	MultiTriggerTarget int
	HeartbeatMs        int64
	Broker             string
	HTTPAddr           string
}

// Button sources tracked by RecordButton.
const (
	ButtonBrightness = "brightness"
	ButtonMode       = "mode"
)

// ButtonStatus is the debounced state and event counts of one button.
type ButtonStatus struct {
	Pressed       bool
	Triggers      int
	LongTriggers  int
	MultiTriggers int
}

func (b *ButtonStatus) record(e input.DigitalEvent) {
	switch e {
	case input.Trigger:
		b.Pressed = true
		b.Triggers++
	case input.Release:
		b.Pressed = false
	case input.LongTrigger:
		b.LongTriggers++
	case input.MultiTrigger:
		b.MultiTriggers++
	}
}

// ColorStatus is the last stable color input reading.
type ColorStatus struct {
	Red, Green, Blue uint16
	Changes          int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Ready         bool
	Display       neopixel.State
	Brightness    ButtonStatus
	Mode          ButtonStatus
	Color         ColorStatus
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetReady records whether the display is running.
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	t.snap.Ready = ready
	t.mu.Unlock()
}

// SetDisplay records the display parameters.
func (t *Tracker) SetDisplay(s neopixel.State) {
	t.mu.Lock()
	t.snap.Display = s
	t.mu.Unlock()
}

// RecordButton counts a button event. Unknown sources are ignored.
func (t *Tracker) RecordButton(source string, e input.DigitalEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch source {
	case ButtonBrightness:
		t.snap.Brightness.record(e)
	case ButtonMode:
		t.snap.Mode.record(e)
	}
}

// RecordColor records a new stable color reading.
func (t *Tracker) RecordColor(r, g, b uint16) {
	t.mu.Lock()
	t.snap.Color.Red, t.snap.Color.Green, t.snap.Color.Blue = r, g, b
	t.snap.Color.Changes++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
