package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderTableAlignsRows(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Resumo",
		Headers: []string{"UF", "Municípios", "Total"},
		Rows: [][]string{
			{"PI", "1", "R$ 10,00"},
			{"---"},
			{"CE", "2", "R$ 1.000,00"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.Contains(lines[0], "Resumo") {
		t.Fatalf("first line %q should carry the title", lines[0])
	}
	width := lipgloss.Width(lines[1])
	for i, line := range lines[1:] {
		if w := lipgloss.Width(line); w != width {
			t.Fatalf("line %d width = %d, want %d\n%s", i+1, w, width, out)
		}
	}
	if !strings.Contains(out, "R$ 1.000,00") {
		t.Fatal("missing cell content")
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Fatalf("empty table rendered %q", got)
	}
}

func TestRenderHorizontalBarClamps(t *testing.T) {
	over := RenderHorizontalBar("PI", 4, 300, 100, 10, "")
	if got := strings.Count(over, "█"); got != 10 {
		t.Fatalf("over-max bar has %d blocks, want 10", got)
	}

	tiny := RenderHorizontalBar("PI", 4, 0.1, 100, 10, "")
	if got := strings.Count(tiny, "█"); got != 1 {
		t.Fatalf("tiny positive bar has %d blocks, want 1", got)
	}

	zero := RenderHorizontalBar("PI", 4, 0, 100, 10, "")
	if strings.Contains(zero, "█") {
		t.Fatal("zero bar should be empty")
	}
}

func TestRenderProgressBar(t *testing.T) {
	if got := RenderProgressBar(1, 0, 10); got != "" {
		t.Fatalf("zero total rendered %q", got)
	}
	out := RenderProgressBar(5, 10, 10)
	if strings.Count(out, "█") != 5 || !strings.Contains(out, "5/10") {
		t.Fatalf("unexpected bar %q", out)
	}
}
