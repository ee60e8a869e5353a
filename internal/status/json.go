package status

import (
	"encoding/json"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Ready         bool         `json:"ready"`
	Display       DisplayJSON  `json:"display"`
	Buttons       ButtonsJSON  `json:"buttons"`
	ColorInput    ColorJSON    `json:"color_input"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// DisplayJSON is the JSON representation of the display parameters.
type DisplayJSON struct {
	Mode       neopixel.Mode `json:"mode"`
	Brightness uint8         `json:"brightness"`
	Color      ColorJSON     `json:"color"`
}

// ColorJSON is an RGB triple, with a change count for input readings.
type ColorJSON struct {
	Red     uint16 `json:"r"`
	Green   uint16 `json:"g"`
	Blue    uint16 `json:"b"`
	Changes int    `json:"changes,omitempty"`
}

// ButtonsJSON groups the two buttons.
type ButtonsJSON struct {
	Brightness ButtonJSON `json:"brightness"`
	Mode       ButtonJSON `json:"mode"`
}

// ButtonJSON is the JSON representation of one button.
type ButtonJSON struct {
	State         string `json:"state"`
	Triggers      int    `json:"triggers"`
	LongTriggers  int    `json:"long_triggers"`
	MultiTriggers int    `json:"multi_triggers"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Device             string `json:"device"`
	Output             string `json:"output"`
	Cols               int    `json:"cols"`
	Rows               int    `json:"rows"`
	DigitalDebounceMs  int64  `json:"digital_debounce_ms"`
	AnalogDebounceMs   int64  `json:"analog_debounce_ms"`
	LongTriggerMs      int64  `json:"long_trigger_ms"`
	MultiTriggerMs     int64  `json:"multi_trigger_ms"`
	MultiTriggerTarget int    `json:"multi_trigger_target"`
	HeartbeatMs        int64  `json:"heartbeat_ms"`
	Broker             string `json:"broker"`
	HTTPAddr           string `json:"http_addr"`
}

// ButtonState names a button's debounced state.
func ButtonState(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

func buttonJSON(b ButtonStatus) ButtonJSON {
	return ButtonJSON{
		State:         ButtonState(b.Pressed),
		Triggers:      b.Triggers,
		LongTriggers:  b.LongTriggers,
		MultiTriggers: b.MultiTriggers,
	}
}

func buildInner(snap Snapshot) StatusInner {
	d := snap.Display
	c := snap.Config
	inner := StatusInner{
		Ready: snap.Ready,
		Display: DisplayJSON{
			Mode:       d.Mode,
			Brightness: d.Brightness,
			Color:      ColorJSON{Red: uint16(d.Red), Green: uint16(d.Green), Blue: uint16(d.Blue)},
		},
		Buttons: ButtonsJSON{
			Brightness: buttonJSON(snap.Brightness),
			Mode:       buttonJSON(snap.Mode),
		},
		ColorInput: ColorJSON{
			Red:     snap.Color.Red,
			Green:   snap.Color.Green,
			Blue:    snap.Color.Blue,
			Changes: snap.Color.Changes,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: c.Broker},
		Config: ConfigJSON{
			Device:             c.Device,
			Output:             c.Output,
			Cols:               c.Cols,
			Rows:               c.Rows,
			DigitalDebounceMs:  c.DigitalDebounceMs,
			AnalogDebounceMs:   c.AnalogDebounceMs,
			LongTriggerMs:      c.LongTriggerMs,
			MultiTriggerMs:     c.MultiTriggerMs,
			MultiTriggerTarget: c.MultiTriggerTarget,
			HeartbeatMs:        c.HeartbeatMs,
			Broker:             c.Broker,
			HTTPAddr:           c.HTTPAddr,
		},
	}
	if n := snap.Network; n != nil {
		inner.Network = &NetworkJSON{
			Type:       n.Type,
			IP:         n.IP,
			Status:     n.Status,
			Gateway:    n.Gateway,
			WifiStatus: n.WifiStatus,
			SSID:       n.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
