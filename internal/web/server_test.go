package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/input"
	"github.com/CoryCharlton/emilys-neopixel/internal/neopixel"
	"github.com/CoryCharlton/emilys-neopixel/internal/status"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Device:            "emily",
		Output:            "spi",
		Cols:              8,
		Rows:              4,
		DigitalDebounceMs: 20,
		AnalogDebounceMs:  20,
		HeartbeatMs:       900000,
		Broker:            "tcp://192.168.1.200:1883",
		HTTPAddr:          ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr, discard)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetReady(true)
	tr.SetDisplay(neopixel.State{Mode: neopixel.Rainbow, Brightness: 200, Green: 64})
	tr.RecordButton(status.ButtonMode, input.Trigger)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	s := sj.Status
	if s.Display.Mode != neopixel.Rainbow || s.Display.Brightness != 200 || s.Display.Color.Green != 64 {
		t.Errorf("display: got %+v", s.Display)
	}
	if !s.Ready {
		t.Error("expected Ready=true")
	}
	if s.Buttons.Mode.State != "PRESSED" || s.Buttons.Mode.Triggers != 1 {
		t.Errorf("mode button: got %+v", s.Buttons.Mode)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("mqtt: got %+v", s.MQTT)
	}
	if s.Config.Cols != 8 || s.Config.DigitalDebounceMs != 20 {
		t.Errorf("config: got %+v", s.Config)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetDisplay(neopixel.State{Mode: neopixel.TheaterChase, Brightness: 50, Red: 255, Green: 128})
	tr.RecordButton(status.ButtonBrightness, input.Trigger)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"THEATER_CHASE", "#ff8000", "PRESSED", "tcp://192.168.1.200:1883"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestHTMLBrokerDisabled(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	ts := httptest.NewServer(New(":0", tr, nil).httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<tr><th>Broker</th><td>disabled</td></tr>") {
		t.Error("expected broker shown as disabled")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	if sj := getJSON(t, ts.URL+"/index.json"); sj.Status.Ready {
		t.Error("expected Ready=false initially")
	}

	tr.SetReady(true)
	tr.SetDisplay(neopixel.State{Mode: neopixel.Off})
	tr.RecordColor(10, 20, 30)

	sj := getJSON(t, ts.URL+"/index.json")
	if !sj.Status.Ready {
		t.Error("expected Ready=true after update")
	}
	if sj.Status.Display.Mode != neopixel.Off {
		t.Errorf("mode: got %v, want OFF", sj.Status.Display.Mode)
	}
	if sj.Status.ColorInput.Blue != 30 || sj.Status.ColorInput.Changes != 1 {
		t.Errorf("color input: got %+v", sj.Status.ColorInput)
	}
}

func TestDisplayEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetDisplay(neopixel.State{Mode: neopixel.RainbowWheel, Brightness: 250, Blue: 9})

	resp, err := http.Get(ts.URL + "/display.json")
	if err != nil {
		t.Fatalf("GET /display.json: %v", err)
	}
	defer resp.Body.Close()

	var got neopixel.State
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	want := neopixel.State{Mode: neopixel.RainbowWheel, Brightness: 250, Blue: 9}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control: got %q, want no-store", cc)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/index.json", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}
