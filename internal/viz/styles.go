package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Panel around summaries
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(20)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	// Stop reason colors
	StopFinalTime  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	StopNoReaction = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	StopMaxEvents  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))

	ErrorText = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func applyTheme(t Theme) {
	Panel = Panel.BorderForeground(t.Muted)
	Title = Title.Foreground(t.Secondary)
	Subtle = Subtle.Foreground(t.Muted)
	MetricValue = MetricValue.Foreground(t.Accent)
	StopFinalTime = StopFinalTime.Foreground(t.Success)
	StopNoReaction = StopNoReaction.Foreground(t.Warning)
	StopMaxEvents = StopMaxEvents.Foreground(t.Error)
	ErrorText = ErrorText.Foreground(t.Error)
	barHigh = barHigh.Foreground(t.Success)
	barMid = barMid.Foreground(t.Warning)
	barLow = barLow.Foreground(t.Error)
}

// ProgressBar renders a bar for a fraction in [0, 1]
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if percent > 0.8 {
		return barHigh.Render(bar)
	} else if percent > 0.4 {
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

// Sparkline renders a one-line chart of the last width values
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(chars)-1))
		b.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return b.String()
}

// MetricRow renders an aligned label/value line.
func MetricRow(label string, value any) string {
	var s string
	switch v := value.(type) {
	case float64:
		s = fmt.Sprintf("%.4g", v)
	default:
		s = fmt.Sprint(v)
	}
	return MetricLabel.Render(label) + MetricValue.Render(s)
}

// Separator draws a muted rule
func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
