package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
)

var testTime = time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

func TestTopicsFor(t *testing.T) {
	got := TopicsFor("kitchen")
	want := Topics{
		Events: "neopixel/kitchen/events",
		State:  "neopixel/kitchen/state",
		System: "neopixel/kitchen/system",
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFormatInputPayload(t *testing.T) {
	tests := []struct {
		name  string
		event InputEvent
		want  string
	}{
		{
			"button",
			InputEvent{Timestamp: testTime, Source: SourceMode, Event: "TRIGGER"},
			`{"input":{"timestamp":"2026-02-10T08:30:00Z","source":"mode","event":"TRIGGER"}}`,
		},
		{
			"color",
			InputEvent{Timestamp: testTime, Source: SourceColor, Event: EventColorChange, Color: &ColorJSON{Red: 255, Green: 10, Blue: 0}},
			`{"input":{"timestamp":"2026-02-10T08:30:00Z","source":"color","event":"CHANGE","color":{"r":255,"g":10,"b":0}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatInputPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", got, tt.want)
			}
		})
	}
}

func TestFormatInputPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got, err := FormatInputPayload(InputEvent{Timestamp: time.Date(2026, 2, 10, 9, 30, 0, 0, loc), Source: SourceBrightness, Event: "RELEASE"})
	if err != nil {
		t.Fatal(err)
	}
	var parsed InputPayload
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Input.Timestamp != "2026-02-10T08:30:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Input.Timestamp)
	}
}

func TestFormatStatePayload(t *testing.T) {
	got, err := FormatStatePayload(testTime, neopixel.State{Mode: neopixel.RainbowWave, Brightness: 150, Red: 1, Green: 2, Blue: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"state":{"timestamp":"2026-02-10T08:30:00Z","mode":"RAINBOW_WAVE","brightness":150,"color":{"r":1,"g":2,"b":3}}}`
	if string(got) != want {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", got, want)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	got, err := FormatSystemPayload(SystemEvent{Timestamp: testTime, Event: "SHUTDOWN", Reason: "SIGTERM"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(got) != want {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", got, want)
	}
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
	got, _ := FormatSystemPayload(SystemEvent{Timestamp: testTime, Event: "RECONNECTED"})
	want := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"RECONNECTED"}}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	got, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(raw) {
		t.Errorf("expected raw payload returned as is, got %s", got)
	}
}

func TestWillEvent(t *testing.T) {
	ev := willEvent(testTime)
	if !ev.Retained {
		t.Error("will must be retained")
	}
	got, _ := FormatSystemPayload(ev)
	want := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	var _ Publisher = f
	var _ ConnectionStatus = f

	f.PublishInput(InputEvent{Timestamp: testTime, Source: SourceMode, Event: "TRIGGER"})
	f.PublishState(testTime, neopixel.State{Mode: neopixel.Solid})
	f.PublishSystem(SystemEvent{Timestamp: testTime, Event: "STARTUP", Retained: true})

	if len(f.Inputs()) != 1 || len(f.States) != 1 || len(f.System()) != 1 {
		t.Errorf("unexpected counts: inputs %d states %d system %d", len(f.Inputs()), len(f.States), len(f.System()))
	}
	for _, kind := range []string{"events", "state", "system"} {
		if len(f.Payloads[kind]) != 1 {
			t.Errorf("expected one %s payload, got %d", kind, len(f.Payloads[kind]))
		}
	}
	if !f.System()[0].Retained {
		t.Error("expected retained flag recorded")
	}

	f.Close()
	if !f.Closed {
		t.Error("expected Closed=true")
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")

	if err := f.PublishInput(InputEvent{}); err == nil {
		t.Error("expected error from PublishInput")
	}
	if err := f.PublishState(testTime, neopixel.State{}); err == nil {
		t.Error("expected error from PublishState")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected error from PublishSystem")
	}
	if len(f.Inputs()) != 0 || len(f.States) != 0 || len(f.System()) != 0 {
		t.Error("failed publishes must not be recorded")
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.PublishInput(InputEvent{}); err != nil {
		t.Error(err)
	}
	if err := p.PublishSystem(SystemEvent{}); err != nil {
		t.Error(err)
	}
	if (NopPublisher{}).IsConnected() {
		t.Error("NopPublisher is never connected")
	}
}
