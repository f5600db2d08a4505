package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haxorthematrix/BLEPTD/internal/config"
)

// ScreenNames label the four firmware screens in nav order.
var ScreenNames = []string{"SCAN", "FILTER", "TX", "SETTINGS"}

// RenderStatusBar draws the top bar: app identity left, radio mode and
// counters right.
func RenderStatusBar(width int, mode string, detected int, framesSent uint32) string {
	left := TitleStyle.Render(fmt.Sprintf("%s v%s", config.AppName, config.AppVersion))
	right := DimStyle.Render(fmt.Sprintf("dev:%d tx:%d ", detected, framesSent)) +
		ActiveStyle.Render(mode)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return barStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// RenderNavBar draws the bottom tab bar with the active screen
// highlighted.
func RenderNavBar(width, active int) string {
	tabW := width / len(ScreenNames)
	if tabW < 6 {
		tabW = 6
	}
	var b strings.Builder
	for i, name := range ScreenNames {
		label := fmt.Sprintf("%d:%s", i+1, name)
		style := tabIdleStyle
		if i == active {
			style = tabActiveStyle
			label = "[" + label + "]"
		}
		b.WriteString(lipgloss.PlaceHorizontal(tabW, lipgloss.Center, style.Render(label)))
	}
	return barStyle.Width(width).Render(b.String())
}

// RenderMessage draws the DISPLAY MESSAGE overlay line, or nothing.
func RenderMessage(width int, msg string) string {
	if msg == "" {
		return ""
	}
	return AlertStyle.Width(width).Align(lipgloss.Center).Render(msg)
}
