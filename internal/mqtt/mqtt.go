// Package mqtt publishes device telemetry with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
)

// TopicPrefix is the root of every topic the device publishes to.
const TopicPrefix = "neopixel"

// Topics are the per-device topics.
type Topics struct {
	Events string // input events
	State  string // display state, retained
	System string // lifecycle events, retained
}

// TopicsFor returns the topics for the named device.
func TopicsFor(device string) Topics {
	base := fmt.Sprintf("%s/%s", TopicPrefix, device)
	return Topics{
		Events: base + "/events",
		State:  base + "/state",
		System: base + "/system",
	}
}

// Publisher publishes device telemetry.
type Publisher interface {
	// PublishInput sends an input event. Errors must not stop the device.
	PublishInput(event InputEvent) error

	// PublishState sends the current display state.
	PublishState(t time.Time, state neopixel.State) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Input sources.
const (
	SourceBrightness = "brightness"
	SourceMode       = "mode"
	SourceColor      = "color"
)

// EventColorChange is the event name of color input events.
const EventColorChange = "CHANGE"

// InputEvent is a debounced input event.
type InputEvent struct {
	Timestamp time.Time
	Source    string // SourceBrightness, SourceMode or SourceColor
	Event     string // e.g. "TRIGGER", "LONG_TRIGGER", "CHANGE"
	Color     *ColorJSON
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// InputPayload is the MQTT payload of an input event.
type InputPayload struct {
	Input InputPayloadInner `json:"input"`
}

// InputPayloadInner contains the input event details.
type InputPayloadInner struct {
	Timestamp string     `json:"timestamp"`
	Source    string     `json:"source"`
	Event     string     `json:"event"`
	Color     *ColorJSON `json:"color,omitempty"`
}

// ColorJSON is a color reading or setting.
type ColorJSON struct {
	Red   uint16 `json:"r"`
	Green uint16 `json:"g"`
	Blue  uint16 `json:"b"`
}

// FormatInputPayload creates the JSON payload for an input event.
func FormatInputPayload(event InputEvent) ([]byte, error) {
	return json.Marshal(InputPayload{
		Input: InputPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Source:    event.Source,
			Event:     event.Event,
			Color:     event.Color,
		},
	})
}

// StatePayload is the MQTT payload of a display state update.
type StatePayload struct {
	State StatePayloadInner `json:"state"`
}

// StatePayloadInner contains the display state.
type StatePayloadInner struct {
	Timestamp  string        `json:"timestamp"`
	Mode       neopixel.Mode `json:"mode"`
	Brightness uint8         `json:"brightness"`
	Color      ColorJSON     `json:"color"`
}

// FormatStatePayload creates the JSON payload for a display state update.
func FormatStatePayload(t time.Time, state neopixel.State) ([]byte, error) {
	return json.Marshal(StatePayload{
		State: StatePayloadInner{
			Timestamp:  t.UTC().Format(time.RFC3339),
			Mode:       state.Mode,
			Brightness: state.Brightness,
			Color:      ColorJSON{Red: uint16(state.Red), Green: uint16(state.Green), Blue: uint16(state.Blue)},
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// willEvent is registered with the broker at connect time and published by
// it if the device drops off without a clean disconnect.
func willEvent(t time.Time) SystemEvent {
	return SystemEvent{Timestamp: t, Event: "SHUTDOWN", Reason: "MQTT_DISCONNECT", Retained: true}
}
