package tui

import (
	"fmt"
	"strings"

	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/components"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderCategoryTab(cat model.Category, cw int) string {
	t := theme.Active
	cr := a.current.Category(cat)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		categoryMetric(a.current, cat),
		{
			Label: "Complementação da União " + cat.Label(),
			Value: cli.FormatCompactBRL(a.eng.Pool(cat)),
			Note:  fmt.Sprintf("exercício %d", a.eng.Year()),
		},
		{
			Label: "Participação no total",
			Value: cli.FormatPercent(share(cr.Total, a.current.Total)),
			Note:  "do município",
		},
	}, cw))
	b.WriteString("\n")

	title := "Detalhamento " + cat.Label()
	switch {
	case !cr.Eligible:
		b.WriteString(components.ContentCard(title,
			muted.Render("Município não elegível: complementação zero, sem detalhamento."), cw))
		return b.String()
	case len(cr.Breakdown) == 0:
		b.WriteString(components.ContentCard(title,
			muted.Render("Nenhuma matrícula em etapas ponderadas nesta complementação."), cw))
		return b.String()
	}

	inner := components.CardInnerWidth(cw)
	b.WriteString(components.ContentCard(title, breakdownTable(cr, inner), cw))
	b.WriteString("\n")

	bars := make([]components.Bar, 0, len(cr.Breakdown))
	for _, s := range cr.Stages() {
		row := cr.Breakdown[s]
		bars = append(bars, components.Bar{
			Label:   s.Label(),
			Value:   row.Amount,
			Caption: cli.FormatBRL(row.Amount),
		})
	}
	b.WriteString(components.ContentCard("Valor por etapa",
		components.HBarChart(bars, t.ForCategory(string(cat)), inner), cw))
	return b.String()
}

// breakdownTable renders the per-stage breakdown with a totals row.
func breakdownTable(cr model.CategoryResult, width int) string {
	t := theme.Active
	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	money := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	total := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	numW := []int{11, 12, 10, 18}
	labelW := max(width-sum(numW)-len(numW), 12)
	row := func(style, moneyStyle lipgloss.Style, cols ...string) string {
		line := style.Render(fmt.Sprintf("%-*s", labelW, components.Truncate(cols[0], labelW)))
		for i, c := range cols[1:] {
			s := style
			if i == len(numW)-1 {
				s = moneyStyle
			}
			line += style.Render(" ") + s.Render(fmt.Sprintf("%*s", numW[i], c))
		}
		return line
	}

	lines := []string{
		row(head, head, "Etapa", "Matrículas", "Ajustadas", "Pond. ef.", "Valor"),
	}
	var raw int64
	var adjusted float64
	for _, s := range cr.Stages() {
		r := cr.Breakdown[s]
		raw += r.RawEnrollment
		adjusted += r.AdjustedEnrollment
		lines = append(lines, row(cell, money,
			s.Label(),
			cli.FormatNumber(r.RawEnrollment),
			cli.FormatDecimal(r.AdjustedEnrollment, 1),
			cli.FormatIndex(r.EffectiveWeight, 3),
			cli.FormatBRL(r.Amount),
		))
	}
	lines = append(lines, row(total, total,
		"Total",
		cli.FormatNumber(raw),
		cli.FormatDecimal(adjusted, 1),
		"",
		cli.FormatBRL(cr.Total),
	))
	return strings.Join(lines, "\n")
}

func share(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}
