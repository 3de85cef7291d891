package gesture

import "time"

// Default timings.
const (
	DefaultClickTimeout   = 80 * time.Millisecond
	DefaultPressTimeout   = 750 * time.Millisecond
	DefaultRepeatInterval = 60 * time.Millisecond
)

// Timeouts groups the three durations that drive the state machine.
type Timeouts struct {
	Click  time.Duration
	Press  time.Duration
	Repeat time.Duration
}

// Detector classifies samples of a single button into gestures.
// It is not safe for concurrent use; callbacks must not call Advance.
type Detector struct {
	polarity Polarity
	pressed  Level
	released Level

	timeouts Timeouts
	repeat   bool

	state  State
	anchor time.Time

	onClick       Callback
	onDoubleClick Callback
	onPress       Callback
}

// NewDetector creates a detector for a button with the given polarity, using
// the default timings and with repeat disabled.
func NewDetector(p Polarity) *Detector {
	pressed, released := p.levels()
	return &Detector{
		polarity: p,
		pressed:  pressed,
		released: released,
		timeouts: Timeouts{
			Click:  DefaultClickTimeout,
			Press:  DefaultPressTimeout,
			Repeat: DefaultRepeatInterval,
		},
		state: StateIdle,
	}
}

// SetTimeouts sets all three durations. Negative values are treated as zero.
// The change takes effect on the next call to Advance.
func (d *Detector) SetTimeouts(click, press, repeat time.Duration) {
	d.timeouts = Timeouts{
		Click:  clamp(click),
		Press:  clamp(press),
		Repeat: clamp(repeat),
	}
}

// SetClickTimeout sets the window in which a second press makes a double click.
func (d *Detector) SetClickTimeout(t time.Duration) { d.timeouts.Click = clamp(t) }

// SetPressTimeout sets how long the button must be held to count as a long press.
func (d *Detector) SetPressTimeout(t time.Duration) { d.timeouts.Press = clamp(t) }

// SetRepeatInterval sets the delay between repeated press notifications.
func (d *Detector) SetRepeatInterval(t time.Duration) { d.timeouts.Repeat = clamp(t) }

// SetRepeat enables or disables auto-repeat of the press callback while held.
func (d *Detector) SetRepeat(enabled bool) { d.repeat = enabled }

// OnClick registers the single click callback, replacing any previous one.
func (d *Detector) OnClick(cb Callback) { d.onClick = cb }

// OnDoubleClick registers the double click callback, replacing any previous one.
func (d *Detector) OnDoubleClick(cb Callback) { d.onDoubleClick = cb }

// OnPress registers the long press callback, replacing any previous one.
func (d *Detector) OnPress(cb Callback) { d.onPress = cb }

// OnPressRepeat registers the long press callback and sets the repeat flag.
func (d *Detector) OnPressRepeat(cb Callback, repeat bool) {
	d.onPress = cb
	d.repeat = repeat
}

// Advance evaluates the state machine once for the given input level and time.
// At most one callback is invoked, synchronously, and the gesture it
// represents is returned. now must not go backwards between calls.
func (d *Detector) Advance(level Level, now time.Time) Gesture {
	switch d.state {
	case StateIdle:
		if level == d.pressed {
			d.state = StateAwaitingRelease
			d.anchor = now
		}

	case StateAwaitingRelease:
		if level == d.released {
			d.state = StateAwaitingSecondPress
		} else if now.Sub(d.anchor) > d.timeouts.Press {
			d.state = StateLongPress
			d.anchor = now
			return fire(d.onPress, GesturePress)
		}

	case StateAwaitingSecondPress:
		// The window is measured from the first press, not the release.
		if now.Sub(d.anchor) > d.timeouts.Click {
			d.state = StateIdle
			return fire(d.onClick, GestureClick)
		} else if level == d.pressed {
			d.state = StateAwaitingSecondRelease
		}

	case StateAwaitingSecondRelease:
		// No timeout: a held second press still completes a double click.
		if level == d.released {
			d.state = StateIdle
			return fire(d.onDoubleClick, GestureDoubleClick)
		}

	case StateLongPress:
		if level == d.released {
			d.state = StateIdle
		} else if d.repeat && now.Sub(d.anchor) > d.timeouts.Repeat {
			d.anchor = now
			return fire(d.onPress, GestureRepeat)
		}
	}

	return GestureNone
}

// Reset abandons any gesture in progress and returns to StateIdle.
func (d *Detector) Reset() {
	d.state = StateIdle
	d.anchor = time.Time{}
}

// State returns the current state.
func (d *Detector) State() State {
	return d.state
}

// Polarity returns the polarity the detector was created with.
func (d *Detector) Polarity() Polarity {
	return d.polarity
}

// Timeouts returns the current durations.
func (d *Detector) Timeouts() Timeouts {
	return d.timeouts
}

// Repeat reports whether auto-repeat is enabled.
func (d *Detector) Repeat() bool {
	return d.repeat
}

// Pressed reports whether level counts as pressed for this detector.
func (d *Detector) Pressed(level Level) bool {
	return level == d.pressed
}

func fire(cb Callback, g Gesture) Gesture {
	if cb != nil {
		cb()
	}
	return g
}

func clamp(t time.Duration) time.Duration {
	if t < 0 {
		return 0
	}
	return t
}
