package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// context on the right. warn, when set, replaces the right side.
func RenderStatusBar(width int, hints, right, warn string) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.SurfaceHover)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.SurfaceHover).Bold(true)

	left := base.Render(" " + hints)
	r := base.Render(right + " ")
	if warn != "" {
		r = warnStyle.Render(warn + " ")
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(r), 0)
	return left + base.Render(strings.Repeat(" ", gap)) + r
}
