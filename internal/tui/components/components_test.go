package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLayoutRowSumsToWidth(t *testing.T) {
	for _, total := range []int{80, 81, 119, 180} {
		for n := 1; n <= 5; n++ {
			sum := 0
			for _, w := range LayoutRow(total, n) {
				sum += w
			}
			if sum != total {
				t.Fatalf("LayoutRow(%d, %d) sums to %d", total, n, sum)
			}
		}
	}
	if LayoutRow(80, 0) != nil {
		t.Fatal("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowPadsShorterCards(t *testing.T) {
	short := ContentCard("A", "one", 20)
	tall := ContentCard("B", "one\ntwo\nthree", 20)

	row := CardRow([]string{short, tall})
	if got, want := lipgloss.Height(row), lipgloss.Height(tall); got != want {
		t.Fatalf("row height = %d, want %d", got, want)
	}
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 40 {
			t.Fatalf("line %d width = %d, want 40", i, w)
		}
	}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range Tabs {
		pos := 0
		for i, tab := range Tabs {
			w := TabVisualWidth(tab, i == active)
			if got := TabAtX(active, pos+w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
	}
	if got := TabAtX(0, 10_000); got != -1 {
		t.Fatalf("TabAtX past the last tab = %d, want -1", got)
	}
}

func TestRenderTabBarFillsWidth(t *testing.T) {
	bar := RenderTabBar(2, 120)
	if w := lipgloss.Width(bar); w != 120 {
		t.Fatalf("tab bar width = %d, want 120", w)
	}
}

func TestHBarChartOneLinePerBar(t *testing.T) {
	out := HBarChart([]Bar{
		{Label: "Creche integral", Value: 10, Caption: "R$ 10"},
		{Label: "Pré-escola", Value: 0, Caption: "R$ 0"},
		{Label: "Anos iniciais", Value: 5, Caption: "R$ 5"},
	}, lipgloss.Color("#ffffff"), 60)

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	width := lipgloss.Width(lines[0])
	for i, line := range lines {
		if lipgloss.Width(line) != width {
			t.Fatalf("line %d width %d differs from %d", i, lipgloss.Width(line), width)
		}
	}
	if strings.Contains(lines[1], "█") {
		t.Fatal("zero-valued bar should render no fill")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Educação", 4); got != "Edu…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := Truncate("abc", 5); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}
