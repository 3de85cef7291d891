// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/onebutton/internal/gesture"
)

// Topics are built from a configurable prefix:
//
//	<prefix>/<button>/events  one message per fired gesture
//	<prefix>/system           lifecycle events
const (
	eventsSuffix = "events"
	systemSuffix = "system"
)

// EventTopic returns the gesture topic for a button.
func EventTopic(prefix, button string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + button + "/" + eventsSuffix
}

// EventWildcard returns the subscription filter matching every button's gesture topic.
func EventWildcard(prefix string) string {
	return EventTopic(prefix, "+")
}

// SystemTopic returns the lifecycle topic.
func SystemTopic(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + systemSuffix
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a gesture event to the broker.
	// Returns error if publishing fails (should not crash the process), or
	// ErrBuffered if the event was queued until the broker reconnects.
	Publish(event gesture.Event) error

	// PublishSystem sends a system lifecycle event to the broker, with the
	// same ErrBuffered contract as Publish.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Button ButtonPayload `json:"button"`
}

// ButtonPayload contains the gesture event details.
type ButtonPayload struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Gesture   string `json:"gesture"`
	State     string `json:"state"`
}

// FormatPayload creates the JSON payload for a gesture event.
func FormatPayload(event gesture.Event) ([]byte, error) {
	payload := Payload{
		Button: ButtonPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Name:      event.Button,
			Gesture:   string(event.Gesture),
			State:     string(event.State),
		},
	}
	return json.Marshal(payload)
}

// ParsePayload decodes a gesture event payload.
func ParsePayload(data []byte) (gesture.Event, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return gesture.Event{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Button.Timestamp)
	if err != nil {
		return gesture.Event{}, err
	}
	return gesture.Event{
		Timestamp: ts,
		Button:    p.Button.Name,
		Gesture:   gesture.Gesture(p.Button.Gesture),
		State:     gesture.State(p.Button.State),
	}, nil
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
