package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Palette. Risk levels use the traffic-light colors, lifecycle states the
// cool ones.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	StyleGreen, StyleYellow, StyleRed = fg(ColorGreen), fg(ColorYellow), fg(ColorRed)
	StyleBlue, StylePurple            = fg(ColorBlue), fg(ColorPurple)
	StyleDim, StyleFg                 = fg(ColorDim), fg(ColorFg)

	StyleHeader = fg(ColorHeader).Bold(true)
	StyleBold   = StyleFg.Bold(true)
	// StyleCursor marks the board row under the cursor.
	StyleCursor = StyleHeader
)

func RiskColor(risk domain.RiskLevel) lipgloss.Style {
	switch risk {
	case domain.RiskCritical:
		return StyleRed
	case domain.RiskAtRisk:
		return StyleYellow
	case domain.RiskOnTrack:
		return StyleGreen
	default:
		return StyleDim
	}
}

// RiskIndicator returns a colored label such as "● CRITICAL".
func RiskIndicator(risk domain.RiskLevel) string {
	label := strings.ToUpper(strings.ReplaceAll(string(risk), "_", " "))
	if label == "" {
		label = "UNKNOWN"
	}
	return RiskColor(risk).Render("● " + label)
}

// StatePill renders the lifecycle state of a schedule item.
func StatePill(state string) string {
	switch domain.ItemState(state) {
	case domain.StateTracked:
		return StyleGreen.Render("● tracked")
	case domain.StateScheduled:
		return StyleBlue.Render("○ scheduled")
	case domain.StateClosed:
		return StyleDim.Render("✔ closed")
	default:
		return StyleYellow.Render("? unscheduled")
	}
}

// Header renders an upper-cased section title with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
