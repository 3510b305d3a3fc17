package tui

import (
	"strings"

	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// setupValues binds the first-run form fields.
type setupValues struct {
	APIKey    string
	Theme     string
	DefaultUF string
	Save      bool
}

func newSetupValues(cfg config.Config) *setupValues {
	return &setupValues{
		APIKey:    cfg.Assistant.APIKey,
		Theme:     theme.ByName(cfg.Appearance.Theme).Name,
		DefaultUF: cfg.General.DefaultUF,
		Save:      true,
	}
}

func newSetupForm(vals *setupValues, ufs []string) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	ufOpts := []huh.Option[string]{huh.NewOption("Escolher a cada sessão", "")}
	for _, uf := range ufs {
		ufOpts = append(ufOpts, huh.NewOption(uf, uf))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Bem-vindo ao fundeb").
				Description("Simulador das complementações VAAT e VAAF da União.\n\nVamos configurar o painel; tudo pode ser alterado depois na aba Config."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Chave da API Anthropic").
				Description("Habilita o chat explicativo. Deixe em branco para pular.").
				Placeholder("sk-ant-...").
				EchoMode(huh.EchoModePassword).
				Value(&vals.APIKey),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Tema").
				Options(themeOpts...).
				Value(&vals.Theme),
			huh.NewSelect[string]().
				Title("UF padrão").
				Description("Abre direto a lista de municípios desta UF.").
				Options(ufOpts...).
				Height(8).
				Value(&vals.DefaultUF),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Salvar em " + config.ConfigPath() + "?").
				Affirmative("Salvar").
				Negative("Só nesta sessão").
				Value(&vals.Save),
		),
	).WithShowHelp(true)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return a, tea.Quit
	}

	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.applySetup()
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// applySetup copies the form answers into the config, saving when asked.
func (a *App) applySetup() {
	v := a.setupVals
	a.cfg.Assistant.APIKey = strings.TrimSpace(v.APIKey)
	a.cfg.Appearance.Theme = v.Theme
	a.cfg.General.DefaultUF = v.DefaultUF

	theme.SetActive(v.Theme)
	a.restyle()
	a.client = a.newAssistant(a.cfg)

	if v.Save {
		a.persist()
	}
	if v.DefaultUF != "" && a.screen == screenUF {
		a.openUF(v.DefaultUF)
	}
}
