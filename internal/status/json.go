package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/onebutton/internal/gesture"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Buttons       []ButtonJSON `json:"buttons"`
	Counts        CountsJSON   `json:"gesture_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ButtonJSON is the JSON representation of one button.
type ButtonJSON struct {
	Name        string           `json:"name"`
	State       string           `json:"state"`
	Pressed     bool             `json:"pressed"`
	LastGesture string           `json:"last_gesture,omitempty"`
	LastAt      string           `json:"last_at,omitempty"`
	Counts      CountsJSON       `json:"counts"`
	Config      ButtonConfigJSON `json:"config"`
}

// ButtonConfigJSON is the JSON representation of a button's configuration.
type ButtonConfigJSON struct {
	Pin      int    `json:"pin"`
	Polarity string `json:"polarity"`
	ClickMs  int64  `json:"click_ms"`
	PressMs  int64  `json:"press_ms"`
	RepeatMs int64  `json:"repeat_ms"`
	Repeat   bool   `json:"repeat"`
}

// CountsJSON is the JSON representation of gesture counts.
type CountsJSON struct {
	Click       int `json:"click"`
	DoubleClick int `json:"double_click"`
	Press       int `json:"press"`
	Repeat      int `json:"repeat"`
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
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Driver      string `json:"driver"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Buttons:       make([]ButtonJSON, 0, len(snap.Buttons)),
		Counts:        countsJSON(snap.Totals()),
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Driver:      snap.Config.Driver,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	for _, b := range snap.Buttons {
		bj := ButtonJSON{
			Name:        b.Name,
			State:       string(b.State),
			Pressed:     b.Pressed,
			LastGesture: string(b.LastGesture),
			Counts:      countsJSON(b.Counts),
			Config: ButtonConfigJSON{
				Pin:      b.Config.Pin,
				Polarity: b.Config.Polarity,
				ClickMs:  b.Config.ClickMs,
				PressMs:  b.Config.PressMs,
				RepeatMs: b.Config.RepeatMs,
				Repeat:   b.Config.Repeat,
			},
		}
		if bj.State == "" {
			bj.State = "UNKNOWN"
		}
		if !b.LastAt.IsZero() {
			bj.LastAt = b.LastAt.UTC().Format(time.RFC3339)
		}
		inner.Buttons = append(inner.Buttons, bj)
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

func countsJSON(c gesture.Counts) CountsJSON {
	return CountsJSON{
		Click:       c.Click,
		DoubleClick: c.DoubleClick,
		Press:       c.Press,
		Repeat:      c.Repeat,
	}
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
