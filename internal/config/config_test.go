package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/onebutton/internal/gesture"
	"github.com/sweeney/onebutton/internal/gpio"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "onebutton.yaml", `
poll_ms: 5
heartbeat_ms: 60000
driver: periph
mqtt:
  broker: tcp://broker:1883
  client_id: hall-buttons
  topic_prefix: house/buttons
http:
  addr: ":8080"
buttons:
  - name: hall
    pin: 17
    polarity: active-low
    click_ms: 120
    press_ms: 1000
    repeat_ms: 100
    repeat: true
  - name: door
    pin: 27
    polarity: active-high
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Poll() != 5*time.Millisecond {
		t.Errorf("Poll: got %v, want 5ms", cfg.Poll())
	}
	if cfg.Heartbeat() != time.Minute {
		t.Errorf("Heartbeat: got %v, want 1m", cfg.Heartbeat())
	}
	if cfg.Driver != gpio.DriverPeriph {
		t.Errorf("Driver: got %q", cfg.Driver)
	}
	if cfg.Chip != gpio.DefaultChip {
		t.Errorf("Chip: got %q, want default", cfg.Chip)
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" || cfg.MQTT.ClientID != "hall-buttons" || cfg.MQTT.TopicPrefix != "house/buttons" {
		t.Errorf("MQTT: got %+v", cfg.MQTT)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr: got %q", cfg.HTTP.Addr)
	}
	if len(cfg.Buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(cfg.Buttons))
	}

	hall := cfg.Buttons[0]
	want := gesture.Timeouts{Click: 120 * time.Millisecond, Press: time.Second, Repeat: 100 * time.Millisecond}
	if hall.Timeouts() != want {
		t.Errorf("hall timeouts: got %+v, want %+v", hall.Timeouts(), want)
	}
	if !hall.Repeat {
		t.Error("hall: expected repeat enabled")
	}
	if hall.PolarityValue() != gesture.ActiveLow {
		t.Errorf("hall polarity: got %s", hall.PolarityValue())
	}

	door := cfg.Buttons[1]
	def := gesture.Timeouts{Click: gesture.DefaultClickTimeout, Press: gesture.DefaultPressTimeout, Repeat: gesture.DefaultRepeatInterval}
	if door.Timeouts() != def {
		t.Errorf("door timeouts: got %+v, want defaults %+v", door.Timeouts(), def)
	}
	if door.PolarityValue() != gesture.ActiveHigh {
		t.Errorf("door polarity: got %s", door.PolarityValue())
	}

	lines := cfg.Lines()
	if len(lines) != 2 || lines[0].Pin != 17 || lines[1].Polarity != gesture.ActiveHigh {
		t.Errorf("Lines: got %+v", lines)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "onebutton.toml", `
poll_ms = 20

[mqtt]
broker = "tcp://localhost:1883"

[[buttons]]
name = "desk"
pin = 22
polarity = "active-high"
press_ms = 500
repeat = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollMs != 20 {
		t.Errorf("PollMs: got %d", cfg.PollMs)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("Broker: got %q", cfg.MQTT.Broker)
	}
	if cfg.MQTT.TopicPrefix != DefaultTopicPrefix {
		t.Errorf("TopicPrefix: got %q, want default", cfg.MQTT.TopicPrefix)
	}
	if len(cfg.Buttons) != 1 {
		t.Fatalf("expected 1 button, got %d", len(cfg.Buttons))
	}
	b := cfg.Buttons[0]
	if b.Name != "desk" || b.Pin != 22 || !b.Repeat {
		t.Errorf("button: got %+v", b)
	}
	if b.Timeouts().Press != 500*time.Millisecond {
		t.Errorf("press: got %v", b.Timeouts().Press)
	}
}

func TestLoadDefaultsPolarity(t *testing.T) {
	path := writeConfig(t, "c.yaml", "buttons:\n  - name: a\n    pin: 4\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Buttons[0].PolarityValue() != gesture.ActiveLow {
		t.Errorf("expected active-low default, got %s", cfg.Buttons[0].Polarity)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no buttons", "poll_ms: 10\n", "at least one button"},
		{"negative poll", "poll_ms: -1\nbuttons:\n  - {name: a, pin: 1}\n", "poll_ms"},
		{"bad driver", "driver: sysfs\nbuttons:\n  - {name: a, pin: 1}\n", "unknown driver"},
		{"missing name", "buttons:\n  - {pin: 1}\n", "name is required"},
		{"duplicate name", "buttons:\n  - {name: a, pin: 1}\n  - {name: a, pin: 2}\n", "duplicate name"},
		{"topic chars", "buttons:\n  - {name: a/b, pin: 1}\n", "topic characters"},
		{"duplicate pin", "buttons:\n  - {name: a, pin: 1}\n  - {name: b, pin: 1}\n", "already in use"},
		{"bad polarity", "buttons:\n  - {name: a, pin: 1, polarity: sideways}\n", "unknown polarity"},
		{"negative click", "buttons:\n  - {name: a, pin: 1, click_ms: -5}\n", "click_ms"},
		{"negative repeat", "buttons:\n  - {name: a, pin: 1, repeat_ms: -5}\n", "repeat_ms"},
		{"bad yaml", "buttons: [", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "c.yaml", tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.PollMs != DefaultPollMs {
		t.Errorf("PollMs: got %d", cfg.PollMs)
	}
	if cfg.MQTT.Broker != DefaultBroker {
		t.Errorf("Broker: got %q", cfg.MQTT.Broker)
	}
}

func TestButtonNewDetector(t *testing.T) {
	click, press := int64(100), int64(300)
	b := Button{Name: "a", Pin: 1, Polarity: "active-high", ClickMs: &click, PressMs: &press, Repeat: true}

	d := b.NewDetector()
	if d.Polarity() != gesture.ActiveHigh {
		t.Errorf("polarity: got %s", d.Polarity())
	}
	if d.Timeouts().Click != 100*time.Millisecond || d.Timeouts().Press != 300*time.Millisecond {
		t.Errorf("timeouts: got %+v", d.Timeouts())
	}
	if d.Timeouts().Repeat != gesture.DefaultRepeatInterval {
		t.Errorf("repeat interval: got %v", d.Timeouts().Repeat)
	}
	if !d.Repeat() {
		t.Error("expected repeat enabled")
	}
}

func TestButtonApplyKeepsPolarity(t *testing.T) {
	d := gesture.NewDetector(gesture.ActiveLow)
	Button{Polarity: "active-high", Repeat: true}.Apply(d)

	if d.Polarity() != gesture.ActiveLow {
		t.Error("Apply must not change polarity")
	}
	if !d.Repeat() {
		t.Error("expected repeat enabled")
	}
}

func TestHTTPAddr(t *testing.T) {
	tests := []struct {
		name, file, want string
	}{
		{"default", "buttons:\n  - name: hall\n    pin: 17\n", DefaultHTTPAddr},
		{"custom", "http:\n  addr: \":8080\"\nbuttons:\n  - name: hall\n    pin: 17\n", ":8080"},
		{"off", "http:\n  addr: \"off\"\nbuttons:\n  - name: hall\n    pin: 17\n", ""},
		{"off any case", "http:\n  addr: \"OFF\"\nbuttons:\n  - name: hall\n    pin: 17\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, "onebutton.yaml", tt.file))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.HTTPAddr(); got != tt.want {
				t.Errorf("HTTPAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPAddrOffTOML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "onebutton.toml", `
[http]
addr = "off"

[[buttons]]
name = "hall"
pin = 17
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.HTTPAddr(); got != "" {
		t.Errorf("HTTPAddr() = %q, want disabled", got)
	}
}
