package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	primary = lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#5FAFFF"}
	success = lipgloss.AdaptiveColor{Light: "#00875F", Dark: "#5FD787"}
	warning = lipgloss.AdaptiveColor{Light: "#AF5F00", Dark: "#FFAF5F"}
	danger  = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	muted   = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(success)
	WarningStyle = lipgloss.NewStyle().Foreground(warning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(muted)
	RowStyle     = lipgloss.NewStyle().Bold(true).Foreground(primary)
)

// Initialize sets the background lipgloss picks adaptive colors for.
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}

// Disable turns all styling off.
func Disable() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Setup applies the output settings: an explicit background choice wins
// over detection, and noColor or NO_COLOR disables styling.
func Setup(darkBackground *bool, noColor bool) {
	if darkBackground != nil {
		Initialize(*darkBackground)
	}
	if noColor || os.Getenv("NO_COLOR") != "" {
		Disable()
	}
}

// ActionStyle returns the style used for a reconciliation outcome.
func ActionStyle(action string) lipgloss.Style {
	switch action {
	case "add", "update":
		return SuccessStyle
	case "replace":
		return WarningStyle
	case "remove":
		return ErrorStyle
	default:
		return MutedStyle
	}
}
