// Package theme provides the color themes for the gac TUI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors used by the interface.
type Theme struct {
	Accent    lipgloss.Color
	AccentFg  lipgloss.Color // text on Accent background
	Border    lipgloss.Color
	MutedFg   lipgloss.Color
	TextFg    lipgloss.Color
	SuccessFg lipgloss.Color
	WarnFg    lipgloss.Color
	ErrorFg   lipgloss.Color
}

// Theme names.
const (
	DarkName  = "dark"
	LightName = "light"
)

// Dark returns the default dark theme.
func Dark() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#BD93F9"),
		AccentFg:  lipgloss.Color("#282A36"),
		Border:    lipgloss.Color("#6272A4"),
		MutedFg:   lipgloss.Color("#6272A4"),
		TextFg:    lipgloss.Color("#F8F8F2"),
		SuccessFg: lipgloss.Color("#50FA7B"),
		WarnFg:    lipgloss.Color("#FFB86C"),
		ErrorFg:   lipgloss.Color("#FF5555"),
	}
}

// Light returns the light theme.
func Light() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#6F42C1"),
		AccentFg:  lipgloss.Color("#FFFFFF"),
		Border:    lipgloss.Color("#D0D7DE"),
		MutedFg:   lipgloss.Color("#6E7781"),
		TextFg:    lipgloss.Color("#24292F"),
		SuccessFg: lipgloss.Color("#059669"),
		WarnFg:    lipgloss.Color("#D97706"),
		ErrorFg:   lipgloss.Color("#DC2626"),
	}
}

// ByName resolves a theme name, defaulting to dark.
func ByName(name string) *Theme {
	if name == LightName {
		return Light()
	}
	return Dark()
}

// ToggleName flips between the dark and light theme names.
func ToggleName(name string) string {
	if name == LightName {
		return DarkName
	}
	return LightName
}
