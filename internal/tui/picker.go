package tui

import (
	"fmt"

	"github.com/rodrigosramos/fundeb-mvp/internal/catalog"
	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pickItem is one row of the UF or municipality picker.
type pickItem struct {
	title string
	desc  string
	value string
}

func (i pickItem) Title() string       { return i.title }
func (i pickItem) Description() string { return i.desc }
func (i pickItem) FilterValue() string { return i.title }

func newPickerList(title string, items []list.Item) list.Model {
	t := theme.Active

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(t.AccentBright).BorderForeground(t.Accent)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(t.Accent).BorderForeground(t.Accent)
	d.Styles.NormalTitle = d.Styles.NormalTitle.Foreground(t.TextPrimary)
	d.Styles.NormalDesc = d.Styles.NormalDesc.Foreground(t.TextMuted)

	l := list.New(items, d, 0, 0)
	l.Title = title
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(t.Background).
		Background(t.Accent).
		Bold(true).
		Padding(0, 1)
	l.SetStatusBarItemName("item", "itens")
	return l
}

func newUFList(cat *catalog.Catalog) list.Model {
	ufs := cat.UFs()
	items := make([]list.Item, len(ufs))
	for i, uf := range ufs {
		n := len(cat.ByUF(uf))
		items[i] = pickItem{
			title: uf,
			desc:  fmt.Sprintf("%d município(s)", n),
			value: uf,
		}
	}
	return newPickerList("Selecione a UF", items)
}

func newMunicipalityList(uf string, records []model.Municipality) list.Model {
	items := make([]list.Item, len(records))
	for i, m := range records {
		items[i] = pickItem{
			title: m.Name,
			desc: fmt.Sprintf("IBGE %s · %s hab. · %s matrículas",
				m.Code, cli.FormatNumber(m.Population), cli.FormatNumber(m.TotalEnrollment())),
			value: m.Code,
		}
	}
	return newPickerList("Municípios de "+uf, items)
}

// openUF switches to the municipality picker for uf.
func (a *App) openUF(uf string) {
	a.uf = uf
	a.muniList = newMunicipalityList(uf, a.cat.ByUF(uf))
	a.muniList.SetSize(a.width, a.height-1)
	a.screen = screenMunicipality
}

func (a App) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	active := &a.ufList
	if a.screen == screenMunicipality {
		active = &a.muniList
	}

	if key, ok := msg.(tea.KeyMsg); ok && active.FilterState() != list.Filtering {
		switch key.String() {
		case "enter":
			item, ok := active.SelectedItem().(pickItem)
			if !ok {
				return a, nil
			}
			if a.screen == screenUF {
				a.openUF(item.value)
				return a, nil
			}
			m, err := a.cat.Find(item.value)
			if err != nil {
				return a, nil
			}
			a.selectMunicipality(m)
			return a, nil
		case "esc", "backspace":
			if a.screen == screenMunicipality && active.FilterState() == list.Unfiltered {
				a.screen = screenUF
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	*active, cmd = active.Update(msg)
	return a, cmd
}

func (a App) viewPicker() string {
	t := theme.Active
	l := a.ufList
	if a.screen == screenMunicipality {
		l = a.muniList
	}

	hint := "enter selecionar · / filtrar · q sair"
	if a.screen == screenMunicipality {
		hint = "enter abrir painel · / filtrar · esc voltar à UF"
	}
	footer := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Width(a.width).
		Render(" " + hint)

	return lipgloss.JoinVertical(lipgloss.Left, l.View(), footer)
}
