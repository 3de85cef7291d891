// Package config loads the daemon configuration from a YAML or TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/onebutton/internal/gesture"
	"github.com/sweeney/onebutton/internal/gpio"
)

type Config struct {
	PollMs      int64    `yaml:"poll_ms" toml:"poll_ms"`
	HeartbeatMs int64    `yaml:"heartbeat_ms" toml:"heartbeat_ms"`
	Driver      string   `yaml:"driver" toml:"driver"`
	Chip        string   `yaml:"chip" toml:"chip"`
	MQTT        MQTT     `yaml:"mqtt" toml:"mqtt"`
	HTTP        HTTP     `yaml:"http" toml:"http"`
	Buttons     []Button `yaml:"buttons" toml:"buttons"`
}

type MQTT struct {
	Broker      string `yaml:"broker" toml:"broker"`
	ClientID    string `yaml:"client_id" toml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`
}

type HTTP struct {
	// Addr is the listen address of the status page; HTTPOff disables it.
	Addr string `yaml:"addr" toml:"addr"`
}

type Button struct {
	Name     string `yaml:"name" toml:"name"`
	Pin      int    `yaml:"pin" toml:"pin"`
	Polarity string `yaml:"polarity" toml:"polarity"`
	ClickMs  *int64 `yaml:"click_ms,omitempty" toml:"click_ms,omitempty"`
	PressMs  *int64 `yaml:"press_ms,omitempty" toml:"press_ms,omitempty"`
	RepeatMs *int64 `yaml:"repeat_ms,omitempty" toml:"repeat_ms,omitempty"`
	Repeat   bool   `yaml:"repeat" toml:"repeat"`
}

// Defaults.
const (
	DefaultPollMs      = 10
	DefaultHeartbeatMs = 15 * 60 * 1000
	DefaultBroker      = "tcp://192.168.1.200:1883"
	DefaultClientID    = "onebutton"
	DefaultTopicPrefix = "home/buttons"
	DefaultHTTPAddr    = ":80"
	DefaultPolarity    = gesture.ActiveLow

	// HTTPOff as http.addr disables the status page.
	HTTPOff = "off"
)

// Default returns a configuration with a single active-low button on BCM 17.
func Default() *Config {
	cfg := &Config{
		Buttons: []Button{{Name: "button", Pin: 17, Polarity: DefaultPolarity.String()}},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a config file. The format is chosen by extension:
// .toml for TOML, anything else is parsed as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PollMs == 0 {
		c.PollMs = DefaultPollMs
	}
	if c.HeartbeatMs == 0 {
		c.HeartbeatMs = DefaultHeartbeatMs
	}
	if c.Driver == "" {
		c.Driver = gpio.DriverGPIOCDev
	}
	if c.Chip == "" {
		c.Chip = gpio.DefaultChip
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = DefaultBroker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = DefaultClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	for i := range c.Buttons {
		if c.Buttons[i].Polarity == "" {
			c.Buttons[i].Polarity = DefaultPolarity.String()
		}
	}
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.PollMs <= 0 {
		return fmt.Errorf("poll_ms must be positive, got %d", c.PollMs)
	}
	if c.HeartbeatMs < 0 {
		return fmt.Errorf("heartbeat_ms must not be negative, got %d", c.HeartbeatMs)
	}
	if c.Driver != gpio.DriverGPIOCDev && c.Driver != gpio.DriverPeriph {
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if len(c.Buttons) == 0 {
		return errors.New("at least one button is required")
	}

	names := make(map[string]bool)
	pins := make(map[int]bool)
	for i, b := range c.Buttons {
		if b.Name == "" {
			return fmt.Errorf("buttons[%d]: name is required", i)
		}
		if strings.ContainsAny(b.Name, "/+#") {
			return fmt.Errorf("buttons[%d]: name %q must not contain MQTT topic characters", i, b.Name)
		}
		if names[b.Name] {
			return fmt.Errorf("buttons[%d]: duplicate name %q", i, b.Name)
		}
		names[b.Name] = true
		if b.Pin < 0 {
			return fmt.Errorf("buttons[%d]: invalid pin %d", i, b.Pin)
		}
		if pins[b.Pin] {
			return fmt.Errorf("buttons[%d]: pin %d already in use", i, b.Pin)
		}
		pins[b.Pin] = true
		if _, err := gesture.ParsePolarity(b.Polarity); err != nil {
			return fmt.Errorf("buttons[%d]: %w", i, err)
		}
		for _, f := range []struct {
			name string
			v    *int64
		}{{"click_ms", b.ClickMs}, {"press_ms", b.PressMs}, {"repeat_ms", b.RepeatMs}} {
			if f.v != nil && *f.v < 0 {
				return fmt.Errorf("buttons[%d]: %s must not be negative, got %d", i, f.name, *f.v)
			}
		}
	}
	return nil
}

// Poll returns the polling interval.
func (c *Config) Poll() time.Duration {
	return time.Duration(c.PollMs) * time.Millisecond
}

// Heartbeat returns the heartbeat interval.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMs) * time.Millisecond
}

// HTTPAddr returns the status page address, or "" when it is disabled.
func (c *Config) HTTPAddr() string {
	if strings.EqualFold(c.HTTP.Addr, HTTPOff) {
		return ""
	}
	return c.HTTP.Addr
}

// Lines returns the GPIO lines in button order.
func (c *Config) Lines() []gpio.Line {
	lines := make([]gpio.Line, len(c.Buttons))
	for i, b := range c.Buttons {
		lines[i] = gpio.Line{Pin: b.Pin, Polarity: b.PolarityValue()}
	}
	return lines
}

// PolarityValue returns the parsed polarity. Validate must have succeeded.
func (b Button) PolarityValue() gesture.Polarity {
	p, _ := gesture.ParsePolarity(b.Polarity)
	return p
}

// Timeouts returns the configured durations, falling back to the detector
// defaults for omitted fields.
func (b Button) Timeouts() gesture.Timeouts {
	return gesture.Timeouts{
		Click:  msOr(b.ClickMs, gesture.DefaultClickTimeout),
		Press:  msOr(b.PressMs, gesture.DefaultPressTimeout),
		Repeat: msOr(b.RepeatMs, gesture.DefaultRepeatInterval),
	}
}

// NewDetector builds a detector configured for this button.
func (b Button) NewDetector() *gesture.Detector {
	d := gesture.NewDetector(b.PolarityValue())
	b.Apply(d)
	return d
}

// Apply copies the timing and repeat settings onto an existing detector.
// Polarity is fixed at construction and is not touched.
func (b Button) Apply(d *gesture.Detector) {
	t := b.Timeouts()
	d.SetTimeouts(t.Click, t.Press, t.Repeat)
	d.SetRepeat(b.Repeat)
}

func msOr(v *int64, def time.Duration) time.Duration {
	if v == nil {
		return def
	}
	return time.Duration(*v) * time.Millisecond
}
