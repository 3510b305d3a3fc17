package tui

import (
	"fmt"
	"strings"

	"github.com/rodrigosramos/fundeb-mvp/internal/allocation"
	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/components"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	r := a.current

	metrics := []components.Metric{
		categoryMetric(r, model.VAAT),
		categoryMetric(r, model.VAAF),
		{
			Label: "Total das complementações",
			Value: cli.FormatBRL(r.Total),
			Note:  cli.FormatNumber(r.TotalEnrollment) + " matrículas",
			Color: t.GreenBright,
		},
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	enrollment := a.renderEnrollmentCard(a.base)
	share := a.renderShareCard(r)
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Matrículas por etapa", enrollment, cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Composição", share, cw))
	} else {
		widths := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Matrículas por etapa", enrollment, widths[0]),
			components.ContentCard("Composição", share, widths[1]),
		}))
	}

	if r.Demo() {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Background)
		b.WriteString("\n")
		b.WriteString(warn.Render(" ⚠ Modo demonstração: total nacional aproximado por matrículas ajustadas × 5000."))
	}
	return b.String()
}

func categoryMetric(r model.AllocationResult, cat model.Category) components.Metric {
	t := theme.Active
	cr := r.Category(cat)

	m := components.Metric{
		Label: "Complementação " + cat.Label(),
		Value: cli.FormatBRL(cr.Total),
		Color: t.ForCategory(string(cat)),
	}
	if cr.Eligible {
		m.Note = "✓ elegível · " + cli.FormatDecimal(cr.AdjustedTotal(), 1) + " ajustadas"
	} else {
		m.Note = "✗ não elegível"
		m.Color = t.TextDim
	}
	return m
}

// renderEnrollmentCard lists every stage with a nonzero count.
func (a App) renderEnrollmentCard(m model.Municipality) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var lines []string
	for _, s := range model.AllStages() {
		n := m.Enrollment[s]
		if n == 0 {
			continue
		}
		lines = append(lines, label.Render(fmt.Sprintf("%-34s", s.Label()))+
			value.Render(fmt.Sprintf("%10s", cli.FormatNumber(n))))
	}
	if len(lines) == 0 {
		return label.Render("Nenhuma matrícula registrada.")
	}
	return strings.Join(lines, "\n")
}

// renderShareCard shows how much of the total each category contributes.
func (a App) renderShareCard(r model.AllocationResult) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if r.Total <= 0 {
		return muted.Render("Sem complementação para este município.")
	}
	var lines []string
	for _, cat := range model.Categories() {
		pct := r.Category(cat).Total / r.Total
		lines = append(lines, components.ShareBar(cat.Label(), pct, t.ForCategory(string(cat)), 5, 24))
	}
	lines = append(lines, "",
		muted.Render("Fator NSE ")+
			lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).
				Render(cli.FormatIndex(allocation.SocioeconomicFactor(a.base.NSE), 3)))
	return strings.Join(lines, "\n")
}
