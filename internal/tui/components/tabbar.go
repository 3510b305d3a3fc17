package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  string // shortcut shown as [k] on inactive tabs
}

// Tabs defines the dashboard tabs in order.
var Tabs = []Tab{
	{Name: "Visão Geral", Key: "1"},
	{Name: "VAAT", Key: "2"},
	{Name: "VAAF", Key: "3"},
	{Name: "Simular", Key: "4"},
	{Name: "Chat", Key: "5"},
	{Name: "Config", Key: "6"},
}

// TabVisualWidth returns the rendered width of a tab label.
func TabVisualWidth(tab Tab, active bool) int {
	w := lipgloss.Width(tab.Name) + 2 // horizontal padding
	if !active {
		w += lipgloss.Width("[" + tab.Key + "]")
	}
	return w
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	sep := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = activeStyle.Render(tab.Name)
			continue
		}
		parts[i] = sep + nameStyle.Render(tab.Name) + keyStyle.Render("["+tab.Key+"]") + sep
	}

	row := strings.Join(parts, sep)
	gap := max(width-lipgloss.Width(row), 0)
	return row + lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", gap))
}

// TabAtX returns the tab index at column x, or -1. Hitboxes follow
// TabVisualWidth with one separator column between tabs.
func TabAtX(activeIdx, x int) int {
	pos := 0
	for i, tab := range Tabs {
		w := TabVisualWidth(tab, i == activeIdx)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1
	}
	return -1
}
