package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"button": status.ButtonState,
	"swatch": func(r, g, b uint8) template.CSS {
		return template.CSS(fmt.Sprintf("background: #%02x%02x%02x", r, g, b))
	},
	"ms": func(ms int64) string {
		if ms == 0 {
			return "disabled"
		}
		return fmt.Sprintf("%dms", ms)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Emily's NeoPixel</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.pressed { color: green; font-weight: bold; }
.released { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.swatch { display: inline-block; width: 1em; height: 1em; border: 1px solid #444; vertical-align: middle; margin-right: 6px; }
</style>
</head>
<body>
<h1>Emily's NeoPixel</h1>

<h2>Display</h2>
<table>
<tr><th>Mode</th><td id="mode">{{.Display.Mode}}</td></tr>
<tr><th>Brightness</th><td id="brightness">{{.Display.Brightness}}</td></tr>
<tr><th>Color</th><td><span class="swatch" style="{{swatch .Display.Red .Display.Green .Display.Blue}}"></span>{{.Display.Red}}, {{.Display.Green}}, {{.Display.Blue}}</td></tr>
<tr><th>Pixels</th><td>{{.Config.Cols}} x {{.Config.Rows}} ({{.Config.Output}})</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Inputs</h2>
<table>
<tr><th>Brightness button</th><td class="{{if .Brightness.Pressed}}pressed{{else}}released{{end}}">{{button .Brightness.Pressed}}</td></tr>
<tr><th>Mode button</th><td class="{{if .Mode.Pressed}}pressed{{else}}released{{end}}">{{button .Mode.Pressed}}</td></tr>
<tr><th>Color input</th><td>{{.Color.Red}}, {{.Color.Green}}, {{.Color.Blue}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Brightness triggers</th><td>{{.Brightness.Triggers}} (long {{.Brightness.LongTriggers}}, multi {{.Brightness.MultiTriggers}})</td></tr>
<tr><th>Mode triggers</th><td>{{.Mode.Triggers}} (long {{.Mode.LongTriggers}}, multi {{.Mode.MultiTriggers}})</td></tr>
<tr><th>Color changes</th><td>{{.Color.Changes}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Device</th><td>{{.Config.Device}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Button debounce</th><td>{{ms .Config.DigitalDebounceMs}}</td></tr>
<tr><th>Color debounce</th><td>{{ms .Config.AnalogDebounceMs}}</td></tr>
<tr><th>Long trigger</th><td>{{ms .Config.LongTriggerMs}}</td></tr>
<tr><th>Multi trigger</th><td>{{ms .Config.MultiTriggerMs}}{{if .Config.MultiTriggerMs}} x{{.Config.MultiTriggerTarget}}{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{ms .Config.HeartbeatMs}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
