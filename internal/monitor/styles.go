package monitor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sweeney/onebutton/internal/gesture"
)

// Color palette
var (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorSuccess = lipgloss.Color("#10B981")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorError   = lipgloss.Color("#EF4444")
	ColorMuted   = lipgloss.Color("#6B7280")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	ButtonStyle = lipgloss.NewStyle().
			Bold(true).
			Width(12)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)
)

var gestureStyles = map[gesture.Gesture]lipgloss.Style{
	gesture.GestureClick:       lipgloss.NewStyle().Foreground(ColorSuccess),
	gesture.GestureDoubleClick: lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
	gesture.GesturePress:       lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
	gesture.GestureRepeat:      lipgloss.NewStyle().Foreground(ColorWarning),
}

// Gesture renders a gesture name in its color.
func Gesture(g gesture.Gesture) string {
	s, ok := gestureStyles[g]
	if !ok {
		return MutedStyle.Render("-")
	}
	return s.Render(string(g))
}

// Title renders a styled title
func Title(text string) string {
	return TitleStyle.Render(text)
}

// Muted renders dimmed text
func Muted(text string) string {
	return MutedStyle.Render(text)
}

// Error renders error text
func Error(text string) string {
	return ErrorStyle.Render("✗ " + text)
}
