// Package monitor is a terminal view of gesture events received over MQTT.
package monitor

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sweeney/onebutton/internal/gesture"
)

// DefaultHistory is the number of events kept on screen.
const DefaultHistory = 20

// EventMsg delivers a received gesture event to the model.
type EventMsg gesture.Event

// ConnectedMsg reports the broker the monitor is subscribed to.
type ConnectedMsg struct {
	Broker string
	Topic  string
}

// ErrMsg reports a fatal subscription error.
type ErrMsg struct{ Err error }

// Model is the bubbletea model for the monitor.
type Model struct {
	history int
	events  []gesture.Event // newest first
	counts  map[string]gesture.Counts
	broker  string
	topic   string
	err     error
}

// New creates a model keeping at most history events. Non-positive values
// use DefaultHistory.
func New(history int) Model {
	if history <= 0 {
		history = DefaultHistory
	}
	return Model{
		history: history,
		counts:  make(map[string]gesture.Counts),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		case "c":
			m.events = nil
			m.counts = make(map[string]gesture.Counts)
		}

	case EventMsg:
		ev := gesture.Event(msg)
		m.events = append([]gesture.Event{ev}, m.events...)
		if len(m.events) > m.history {
			m.events = m.events[:m.history]
		}
		c := m.counts[ev.Button]
		c.Add(ev.Gesture)
		m.counts[ev.Button] = c

	case ConnectedMsg:
		m.broker = msg.Broker
		m.topic = msg.Topic

	case ErrMsg:
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(Title("onebutton monitor"))
	if m.broker != "" {
		b.WriteString("  " + Muted(m.broker+" "+m.topic))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(Error(m.err.Error()) + "\n")
		return b.String()
	}

	if len(m.events) == 0 {
		b.WriteString(Muted("waiting for gestures...") + "\n")
	} else {
		var rows []string
		for _, ev := range m.events {
			rows = append(rows, fmt.Sprintf("%s  %s %s",
				Muted(ev.Timestamp.Local().Format("15:04:05.000")),
				ButtonStyle.Render(ev.Button),
				Gesture(ev.Gesture)))
		}
		b.WriteString(BoxStyle.Render(strings.Join(rows, "\n")) + "\n")
	}

	if len(m.counts) > 0 {
		names := make([]string, 0, len(m.counts))
		for name := range m.counts {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\n")
		for _, name := range names {
			c := m.counts[name]
			b.WriteString(fmt.Sprintf("%s click %d  double %d  press %d  repeat %d\n",
				ButtonStyle.Render(name), c.Click, c.DoubleClick, c.Press, c.Repeat))
		}
	}

	b.WriteString("\n" + Muted("q quit · c clear") + "\n")
	return b.String()
}

// Events returns the events on screen, newest first.
func (m Model) Events() []gesture.Event {
	return m.events
}

// Counts returns the gesture counts seen for a button.
func (m Model) Counts(button string) gesture.Counts {
	return m.counts[button]
}

// Err returns the error that stopped the monitor, if any.
func (m Model) Err() error {
	return m.err
}
