package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/haxorthematrix/BLEPTD/internal/sig"
)

// Palette mirrors the original device theme: black background, white
// foreground, orange accent, per-category highlight colors.
var (
	ColorFg      = lipgloss.Color("15")
	ColorDim     = lipgloss.Color("245")
	ColorAccent  = lipgloss.Color("214") // orange
	ColorSuccess = lipgloss.Color("46")
	ColorWarning = lipgloss.Color("226")
	ColorError   = lipgloss.Color("196")

	ColorTracker  = lipgloss.Color("196") // red
	ColorGlasses  = lipgloss.Color("208") // orange
	ColorMedical  = lipgloss.Color("226") // yellow
	ColorWearable = lipgloss.Color("27")  // blue
	ColorAudio    = lipgloss.Color("201") // magenta
)

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	TextStyle     = lipgloss.NewStyle().Foreground(ColorFg)
	DimStyle      = lipgloss.NewStyle().Foreground(ColorDim)
	ActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	InactiveStyle = lipgloss.NewStyle().Foreground(ColorDim)
	AlertStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorError)

	tabActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	tabIdleStyle   = lipgloss.NewStyle().Foreground(ColorFg)
	barStyle       = lipgloss.NewStyle().Background(lipgloss.Color("236"))
)

// CategoryStyle returns the highlight style for a device category.
func CategoryStyle(c sig.Category) lipgloss.Style {
	switch c {
	case sig.CategoryTracker:
		return lipgloss.NewStyle().Foreground(ColorTracker)
	case sig.CategoryGlasses:
		return lipgloss.NewStyle().Foreground(ColorGlasses)
	case sig.CategoryMedical:
		return lipgloss.NewStyle().Foreground(ColorMedical)
	case sig.CategoryWearable:
		return lipgloss.NewStyle().Foreground(ColorWearable)
	case sig.CategoryAudio:
		return lipgloss.NewStyle().Foreground(ColorAudio)
	default:
		return TextStyle
	}
}

// ThreatGlyph renders a 1..5 threat rating as filled bars.
func ThreatGlyph(threat uint8) string {
	const bars = "!!!!!"
	if threat > 5 {
		threat = 5
	}
	return bars[:threat]
}
