package tui

import (
	"fmt"
	"strings"

	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/components"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldAPIKey
	settingsFieldModel
	settingsFieldDefaultUF
	settingsFieldRealNational
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsState() settingsState {
	return settingsState{input: newSettingsInput()}
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	ti.Prompt = ""
	return ti
}

func (a App) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
	case "k", "up":
		a.settings.cursor = max(a.settings.cursor-1, 0)
	case "enter", " ":
		return a.settingsActivate()
	}
	return a, nil
}

// settingsActivate toggles or cycles the selected field, or opens its editor.
func (a App) settingsActivate() (tea.Model, tea.Cmd) {
	a.settings.saved = false

	switch a.settings.cursor {
	case settingsFieldTheme:
		a.cfg.Appearance.Theme = theme.Next(theme.Active.Name)
		theme.SetActive(a.cfg.Appearance.Theme)
		a.restyle()
		a.persist()
		return a, nil
	case settingsFieldRealNational:
		a.realNational = !a.realNational
		a.national = a.nationalTotals()
		a.current = a.eng.ComputeWith(a.base, a.national)
		a.recomputeScenario()
		return a, nil
	}

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldAPIKey:
		ti.Placeholder = "sk-ant-..."
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		ti.SetValue(a.cfg.Assistant.APIKey)
	case settingsFieldModel:
		ti.Placeholder = config.DefaultConfig().Assistant.Model
		ti.SetValue(a.cfg.Assistant.Model)
	case settingsFieldDefaultUF:
		ti.Placeholder = "PI (vazio para escolher sempre)"
		ti.CharLimit = 2
		ti.SetValue(a.cfg.General.DefaultUF)
	}
	ti.CursorEnd()
	a.settings.input = ti
	a.settings.editing = true
	return a, a.settings.input.Focus()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.input.Blur()
		return a, nil
	case "esc":
		a.settings.editing = false
		a.settings.input.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited field to the config and persists it.
func (a *App) settingsSave() {
	val := strings.TrimSpace(a.settings.input.Value())

	switch a.settings.cursor {
	case settingsFieldAPIKey:
		a.cfg.Assistant.APIKey = val
	case settingsFieldModel:
		if val == "" {
			val = config.DefaultConfig().Assistant.Model
		}
		a.cfg.Assistant.Model = val
	case settingsFieldDefaultUF:
		uf := strings.ToUpper(val)
		if uf != "" && len(a.cat.ByUF(uf)) == 0 {
			a.settings.saveErr = fmt.Errorf("UF %q não existe no catálogo", uf)
			return
		}
		a.cfg.General.DefaultUF = uf
	}

	a.client = a.newAssistant(a.cfg)
	a.persist()
}

func (a *App) persist() {
	a.settings.saveErr = a.save(a.cfg)
	a.settings.saved = a.settings.saveErr == nil
}

// restyle rebuilds the widgets whose styles are captured at construction.
func (a *App) restyle() {
	t := theme.Active
	a.spinner.Style = lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	a.ufList = newUFList(a.cat)
	a.ufList.SetSize(a.width, a.height-1)
	if a.uf != "" {
		a.muniList = newMunicipalityList(a.uf, a.cat.ByUF(a.uf))
		a.muniList.SetSize(a.width, a.height-1)
	}
	a.refreshChat()
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	redStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	realNational := "não (modo demonstração)"
	if a.realNational {
		realNational = "sim"
	}
	defaultUF := a.cfg.General.DefaultUF
	if defaultUF == "" {
		defaultUF = "(nenhuma)"
	}
	apiKey := maskAPIKey(config.GetAPIKey(a.cfg))

	fields := []struct{ label, value string }{
		{"Tema", theme.Active.Name},
		{"Chave da API", apiKey},
		{"Modelo", a.cfg.Assistant.Model},
		{"UF padrão", defaultUF},
		{"Total nacional real", realNational},
	}

	var b strings.Builder
	for i, f := range fields {
		label := fmt.Sprintf("%-22s", f.label)
		switch {
		case i == a.settings.cursor && a.settings.editing:
			b.WriteString(markerStyle.Render("▸ ") + selectedLabelStyle.Render(label) + a.settings.input.View())
		case i == a.settings.cursor:
			b.WriteString(markerStyle.Render("▸ ") + selectedLabelStyle.Render(label) + selectedStyle.Render(f.value))
		default:
			b.WriteString(labelStyle.Render("  "+label) + valueStyle.Render(f.value))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Arquivo: " + config.ConfigPath()))
	switch {
	case a.settings.saveErr != nil:
		b.WriteString("\n")
		b.WriteString(redStyle.Render("Erro: " + a.settings.saveErr.Error()))
	case a.settings.saved:
		b.WriteString("\n")
		b.WriteString(greenStyle.Render("Configuração salva."))
	}

	return components.ContentCard("Configurações", b.String(), cw)
}

// maskAPIKey shows the key's prefix and suffix only.
func maskAPIKey(key string) string {
	switch {
	case key == "":
		return "(não definida)"
	case len(key) > 12:
		return key[:8] + "..." + key[len(key)-4:]
	}
	return "****"
}
