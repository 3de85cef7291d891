// Package gesture classifies a sampled push-button level into clicks, double
// clicks and long presses.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package gesture

import (
	"fmt"
	"time"
)

// Level is the raw binary value of an input line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// LevelOf converts a driver value (0 or 1) to a Level. Any non-zero value is High.
func LevelOf(v int) Level {
	return v != 0
}

// Int returns the level as 0 or 1.
func (l Level) Int() int {
	if l {
		return 1
	}
	return 0
}

func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// Polarity selects which Level counts as pressed.
type Polarity int

const (
	// ActiveHigh buttons connect Vcc to the pin when pressed.
	ActiveHigh Polarity = iota
	// ActiveLow buttons connect ground to the pin when pressed.
	ActiveLow
)

func (p Polarity) String() string {
	switch p {
	case ActiveHigh:
		return "active-high"
	case ActiveLow:
		return "active-low"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParsePolarity parses "active-high" or "active-low".
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "active-high", "high":
		return ActiveHigh, nil
	case "active-low", "low":
		return ActiveLow, nil
	default:
		return 0, fmt.Errorf("unknown polarity %q", s)
	}
}

// levels resolves a polarity into the pressed and released levels.
func (p Polarity) levels() (pressed, released Level) {
	if p == ActiveLow {
		return Low, High
	}
	return High, Low
}

// State is the current step of the detector's state machine.
type State string

const (
	StateIdle                  State = "IDLE"
	StateAwaitingRelease       State = "AWAITING_RELEASE"
	StateAwaitingSecondPress   State = "AWAITING_SECOND_PRESS"
	StateAwaitingSecondRelease State = "AWAITING_SECOND_RELEASE"
	StateLongPress             State = "LONG_PRESS"
)

// Gesture is what a single call to Advance produced.
type Gesture string

const (
	GestureNone        Gesture = ""
	GestureClick       Gesture = "CLICK"
	GestureDoubleClick Gesture = "DOUBLE_CLICK"
	// GesturePress is the long-press threshold crossing.
	GesturePress Gesture = "PRESS"
	// GestureRepeat is a repeat tick of the press notification while held.
	GestureRepeat Gesture = "REPEAT"
)

// Event is a gesture fired by a named button, ready to be published.
type Event struct {
	Timestamp time.Time
	Button    string
	Gesture   Gesture
	State     State // detector state after the gesture fired
}

// Callback is a gesture notification. A nil Callback is an empty slot.
type Callback func()

// Counts tracks the number of each gesture fired.
type Counts struct {
	Click       int
	DoubleClick int
	Press       int
	Repeat      int
}

// Add increments the counter for g. GestureNone is ignored.
func (c *Counts) Add(g Gesture) {
	switch g {
	case GestureClick:
		c.Click++
	case GestureDoubleClick:
		c.DoubleClick++
	case GesturePress:
		c.Press++
	case GestureRepeat:
		c.Repeat++
	}
}
