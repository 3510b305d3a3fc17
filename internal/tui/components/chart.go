package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"
)

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label   string
	Value   float64
	Caption string
}

// HBarChart renders labeled horizontal bars scaled to the largest value.
// width is the total line width; labels are truncated to fit.
func HBarChart(bars []Bar, color lipgloss.Color, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW, captionW := 0, 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		captionW = max(captionW, lipgloss.Width(b.Caption))
		peak = max(peak, b.Value)
	}
	labelW = min(labelW, max(width/3, 8))
	barW := max(width-labelW-captionW-2, 4)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	trackStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	captionStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	var b strings.Builder
	for i, bar := range bars {
		n := 0
		if peak > 0 {
			n = int(bar.Value / peak * float64(barW))
		}
		if n == 0 && bar.Value > 0 {
			n = 1
		}
		n = min(max(n, 0), barW)

		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, Truncate(bar.Label, labelW))))
		b.WriteString(space)
		b.WriteString(barStyle.Render(strings.Repeat("█", n)))
		b.WriteString(trackStyle.Render(strings.Repeat("·", barW-n)))
		b.WriteString(space)
		b.WriteString(captionStyle.Render(fmt.Sprintf("%*s", captionW, bar.Caption)))
		if i < len(bars)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Truncate shortens s to limit runes, ending with an ellipsis.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
