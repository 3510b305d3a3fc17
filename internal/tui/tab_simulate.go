package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/components"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// simulateState holds the scenario being edited. scenario is a clone of
// base; edits never reach the catalog record.
type simulateState struct {
	base     model.Municipality
	scenario model.Municipality
	result   model.AllocationResult
	cursor   int
	editing  bool
	input    textinput.Model
	err      error
}

func (s *simulateState) reset(base model.Municipality, result model.AllocationResult) {
	s.base = base
	s.scenario = base.Clone()
	s.result = result
	s.editing = false
	s.err = nil
	s.input = newNumberInput()
}

func (s simulateState) changed(st model.Stage) bool {
	return s.scenario.Enrollment[st] != s.base.Enrollment[st]
}

// modified reports whether any stage count differs from the catalog record.
func (s simulateState) modified() bool {
	for _, st := range model.AllStages() {
		if s.changed(st) {
			return true
		}
	}
	return false
}

func newNumberInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 9
	ti.Width = 10
	ti.Prompt = ""
	ti.Placeholder = "0"
	ti.Validate = func(v string) error {
		if v == "" {
			return nil
		}
		_, err := strconv.ParseUint(v, 10, 63)
		return err
	}
	return ti
}

func (a App) updateSimulate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	stages := model.AllStages()

	switch msg.String() {
	case "j", "down":
		a.sim.cursor = min(a.sim.cursor+1, len(stages)-1)
	case "k", "up":
		a.sim.cursor = max(a.sim.cursor-1, 0)
	case "g", "home":
		a.sim.cursor = 0
	case "G", "end":
		a.sim.cursor = len(stages) - 1
	case "r":
		a.sim.reset(a.base, a.current)
	case "enter":
		st := stages[a.sim.cursor]
		a.sim.input = newNumberInput()
		a.sim.input.SetValue(strconv.FormatInt(a.sim.scenario.Enrollment[st], 10))
		a.sim.input.CursorEnd()
		a.sim.editing = true
		a.sim.err = nil
		return a, a.sim.input.Focus()
	}
	return a, nil
}

func (a App) updateSimulateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		raw := strings.TrimSpace(a.sim.input.Value())
		n := int64(0)
		if raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				a.sim.err = fmt.Errorf("valor inválido: %q", raw)
				return a, nil
			}
			n = v
		}
		a.applyOverride(model.AllStages()[a.sim.cursor], n)
		a.sim.editing = false
		a.sim.input.Blur()
		return a, nil
	case "esc":
		a.sim.editing = false
		a.sim.input.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.sim.input, cmd = a.sim.input.Update(msg)
	return a, cmd
}

// applyOverride sets one stage count on the scenario clone and recomputes.
func (a *App) applyOverride(st model.Stage, n int64) {
	next, err := a.sim.scenario.WithEnrollment(map[model.Stage]int64{st: n})
	if err != nil {
		a.sim.err = err
		return
	}
	a.sim.scenario = next
	a.sim.err = nil
	a.recomputeScenario()
}

// recomputeScenario runs the engine on the scenario. Real national totals are
// rebased so the denominator counts the edited record instead of the original.
func (a *App) recomputeScenario() {
	national := a.eng.Rebase(a.national, a.base, a.sim.scenario)
	a.sim.result = a.eng.ComputeWith(a.sim.scenario, national)
}

func (a App) renderSimulateTab(cw int) string {
	t := theme.Active
	stages := model.AllStages()

	visible := max(a.contentHeight()-14, 5)
	start := 0
	if a.sim.cursor >= visible {
		start = a.sim.cursor - visible + 1
	}
	end := min(start+visible, len(stages))
	window := stages[start:end]

	var widths []int
	if a.isCompactLayout() {
		widths = []int{cw, cw}
	} else {
		widths = components.LayoutRow(cw, 2)
	}

	current := components.ContentCard("Dados Atuais",
		a.renderStageColumn(window, start, a.base, false, components.CardInnerWidth(widths[0]))+
			"\n\n"+resultSummary(a.current, nil), widths[0])

	scenarioTitle := "Simular Cenário"
	if a.sim.modified() {
		scenarioTitle += " (alterado)"
	}
	scenario := components.FocusedCard(scenarioTitle,
		a.renderStageColumn(window, start, a.sim.scenario, true, components.CardInnerWidth(widths[1]))+
			"\n\n"+resultSummary(a.sim.result, &a.current), widths[1])

	var b strings.Builder
	if a.isCompactLayout() {
		b.WriteString(scenario)
		b.WriteString("\n")
		b.WriteString(current)
	} else {
		b.WriteString(components.CardRow([]string{current, scenario}))
	}

	if a.sim.err != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.Red).Background(t.Background).
			Render(" " + a.sim.err.Error()))
	}
	return b.String()
}

// renderStageColumn lists stage counts for m; the editable column marks the
// cursor row and highlights edited stages.
func (a App) renderStageColumn(window []model.Stage, offset int, m model.Municipality, editable bool, width int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	edited := lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Surface).Bold(true)
	selected := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	marker := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)

	valueW := 11
	labelW := max(width-valueW-2, 10)

	lines := make([]string, 0, len(window))
	for i, st := range window {
		idx := offset + i
		name := fmt.Sprintf("%-*s", labelW, components.Truncate(st.Label(), labelW))
		count := cli.FormatNumber(m.Enrollment[st])

		if !editable {
			lines = append(lines, label.Render("  "+name)+value.Render(fmt.Sprintf("%*s", valueW, count)))
			continue
		}

		prefix := marker.Render("  ")
		nameStyle, valueStyle := label, value
		if a.sim.changed(st) {
			valueStyle = edited
		}
		if idx == a.sim.cursor {
			prefix = marker.Render("▸ ")
			nameStyle, valueStyle = selected, selected
			if a.sim.editing {
				lines = append(lines, prefix+nameStyle.Render(name)+" "+a.sim.input.View())
				continue
			}
		}
		lines = append(lines, prefix+nameStyle.Render(name)+valueStyle.Render(fmt.Sprintf("%*s", valueW, count)))
	}
	return strings.Join(lines, "\n")
}

// resultSummary renders category totals; with a baseline it adds the
// difference against it.
func resultSummary(r model.AllocationResult, baseline *model.AllocationResult) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	money := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Bold(true)
	up := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	down := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	row := func(name string, v, base float64) string {
		line := label.Render(fmt.Sprintf("  %-12s", name)) + money.Render(cli.FormatBRL(v))
		if baseline == nil {
			return line
		}
		d := v - base
		switch {
		case d > 0.005:
			line += up.Render(" ▲ " + cli.FormatBRL(d))
		case d < -0.005:
			line += down.Render(" ▼ " + cli.FormatBRL(-d))
		}
		return line
	}

	var base model.AllocationResult
	if baseline != nil {
		base = *baseline
	}
	lines := []string{
		row("VAAT", r.VAAT.Total, base.VAAT.Total),
		row("VAAF", r.VAAF.Total, base.VAAF.Total),
		row("Total", r.Total, base.Total),
		label.Render(fmt.Sprintf("  %-12s", "Matrículas")) +
			lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).
				Render(cli.FormatNumber(r.TotalEnrollment)),
	}
	return strings.Join(lines, "\n")
}
