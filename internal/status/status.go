// Package status provides a thread-safe status tracker for the onebutton daemon.
// It is designed to be read by HTTP handlers and MQTT status events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/onebutton/internal/gesture"
)

// NetworkInfo contains network state.
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
	PollMs      int64
	HeartbeatMs int64
	Driver      string
	Broker      string
	HTTPAddr    string
}

// ButtonConfig is the display form of one button's configuration.
type ButtonConfig struct {
	Pin      int
	Polarity string
	ClickMs  int64
	PressMs  int64
	RepeatMs int64
	Repeat   bool
}

// Button is the point-in-time state of one button.
type Button struct {
	Name        string
	Config      ButtonConfig
	State       gesture.State
	Pressed     bool
	LastGesture gesture.Gesture
	LastAt      time.Time
	Counts      gesture.Counts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Buttons       []Button
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

// Totals returns gesture counts summed over every button.
func (s Snapshot) Totals() gesture.Counts {
	var c gesture.Counts
	for _, b := range s.Buttons {
		c.Click += b.Counts.Click
		c.DoubleClick += b.Counts.DoubleClick
		c.Press += b.Counts.Press
		c.Repeat += b.Counts.Repeat
	}
	return c
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	snap          Snapshot
	index         map[string]int
	lastHeartbeat time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		index:         make(map[string]int),
		lastHeartbeat: startTime,
	}
}

// AddButton registers a button. Adding an existing name replaces its config.
func (t *Tracker) AddButton(name string, cfg ButtonConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[name]; ok {
		t.snap.Buttons[i].Config = cfg
		return
	}
	t.index[name] = len(t.snap.Buttons)
	t.snap.Buttons = append(t.snap.Buttons, Button{Name: name, Config: cfg, State: gesture.StateIdle})
}

// Update sets a button's machine state and pressed flag.
// Called from the run loop on every tick.
func (t *Tracker) Update(name string, state gesture.State, pressed bool) {
	t.mu.Lock()
	if i, ok := t.index[name]; ok {
		t.snap.Buttons[i].State = state
		t.snap.Buttons[i].Pressed = pressed
	}
	t.mu.Unlock()
}

// Record counts a fired gesture for a button.
func (t *Tracker) Record(name string, g gesture.Gesture, at time.Time) {
	if g == gesture.GestureNone {
		return
	}
	t.mu.Lock()
	if i, ok := t.index[name]; ok {
		b := &t.snap.Buttons[i]
		b.LastGesture = g
		b.LastAt = at
		b.Counts.Add(g)
	}
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

// DueHeartbeat reports whether interval has elapsed since the last heartbeat
// (or startup) and, if so, marks a heartbeat as sent at now.
// An interval <= 0 disables heartbeats.
func (t *Tracker) DueHeartbeat(now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastHeartbeat) < interval {
		return false
	}
	t.lastHeartbeat = now
	return true
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	return t.SnapshotAt(time.Now())
}

// SnapshotAt is Snapshot with an explicit Now.
func (t *Tracker) SnapshotAt(now time.Time) Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Buttons = make([]Button, len(t.snap.Buttons))
	copy(s.Buttons, t.snap.Buttons)
	t.mu.RUnlock()
	s.Now = now
	return s
}
