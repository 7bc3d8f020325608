package fancy

import (
	"github.com/charmbracelet/lipgloss"
)

// Common styles that can be used across the application
var (
	RootStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	BranchStyle = lipgloss.NewStyle().
			Foreground(ColorDarkGray)

	ComponentStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	StateStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	InitialStateStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true).
				Underline(true)

	EventStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	TargetStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	ActivityStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)
)

// StateText styles a state name
func StateText(text string) string {
	return StateStyle.Render(text)
}

// EventText styles an event name
func EventText(text string) string {
	return EventStyle.Render(text)
}

// TargetText styles the target state of a transition
func TargetText(text string) string {
	return TargetStyle.Render(text)
}

// ActivityText styles an activity name
func ActivityText(text string) string {
	return ActivityStyle.Render(text)
}

// ErrorText styles an error message
func ErrorText(text string) string {
	return ErrorStyle.Render(text)
}
