package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/onebutton/internal/status"
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
	"ago": func(now, t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return now.Sub(t).Truncate(time.Second).String() + " ago"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Buttons</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.pressed { color: green; font-weight: bold; }
.released { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Buttons</h1>

<table>
<tr><th>Name</th><th>Pin</th><th>Input</th><th>State</th><th>Last gesture</th><th>Click</th><th>Double</th><th>Press</th><th>Repeat</th></tr>
{{range .Buttons}}<tr>
<td>{{.Name}}</td>
<td>{{.Config.Pin}} ({{.Config.Polarity}})</td>
<td class="{{if .Pressed}}pressed{{else}}released{{end}}">{{if .Pressed}}pressed{{else}}released{{end}}</td>
<td>{{.State}}</td>
<td>{{if .LastGesture}}{{.LastGesture}}, {{ago $.Now .LastAt}}{{else}}-{{end}}</td>
<td>{{.Counts.Click}}</td>
<td>{{.Counts.DoubleClick}}</td>
<td>{{.Counts.Press}}</td>
<td>{{.Counts.Repeat}}</td>
</tr>
{{end}}</table>

<h2>Timing</h2>
<table>
<tr><th>Name</th><th>Click</th><th>Press</th><th>Repeat</th></tr>
{{range .Buttons}}<tr><td>{{.Name}}</td><td>{{.Config.ClickMs}}ms</td><td>{{.Config.PressMs}}ms</td><td>{{if .Config.Repeat}}{{.Config.RepeatMs}}ms{{else}}off{{end}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Driver</th><td>{{.Config.Driver}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
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
