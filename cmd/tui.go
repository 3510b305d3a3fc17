package cmd

import (
	"fmt"

	"github.com/rodrigosramos/fundeb-mvp/internal/assistant"
	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:     "tui",
	Aliases: []string{"dashboard", "painel"},
	Short:   "Launch interactive TUI dashboard",
	RunE:    runTUI,
}

func init() {
	addRealNationalFlag(tuiCmd)
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, cat, eng, err := loadAll()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor so background styling always emits ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Options{
		Catalog:      cat,
		Engine:       eng,
		Config:       cfg,
		RealNational: flagRealNational,
		NeedSetup:    !config.Exists(),
		Save:         saveDashboardSettings,
		NewAssistant: func(c config.Config) *assistant.Client {
			return newAssistant(c, eng)
		},
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// saveDashboardSettings persists only the fields the dashboard edits, so
// command-line overrides (--catalog, --year) never leak into the file.
func saveDashboardSettings(c config.Config) error {
	onDisk, err := config.Load()
	if err != nil {
		return err
	}
	onDisk.Assistant.APIKey = c.Assistant.APIKey
	onDisk.Assistant.Model = c.Assistant.Model
	onDisk.Appearance.Theme = c.Appearance.Theme
	onDisk.General.DefaultUF = c.General.DefaultUF
	return config.Save(onDisk)
}
