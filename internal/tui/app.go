// Package tui provides the interactive Bubble Tea dashboard for fundeb.
package tui

import (
	"fmt"
	"strings"

	"github.com/rodrigosramos/fundeb-mvp/internal/allocation"
	"github.com/rodrigosramos/fundeb-mvp/internal/assistant"
	"github.com/rodrigosramos/fundeb-mvp/internal/catalog"
	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/components"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenUF screen = iota
	screenMunicipality
	screenDashboard
)

const (
	tabOverview = iota
	tabVAAT
	tabVAAF
	tabSimulate
	tabChat
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 160
	minContentHeight = 5
)

// Options wires the dashboard to its data and collaborators.
type Options struct {
	Catalog      *catalog.Catalog
	Engine       *allocation.Engine
	Config       config.Config
	RealNational bool

	// NeedSetup shows the first-run form before the pickers.
	NeedSetup bool

	// Save persists settings changes. Defaults to config.Save.
	Save func(config.Config) error

	// NewAssistant builds the chat client from the current config; it may
	// return nil when no API key is set.
	NewAssistant func(config.Config) *assistant.Client
}

// App is the root Bubble Tea model.
type App struct {
	cat          *catalog.Catalog
	eng          *allocation.Engine
	cfg          config.Config
	save         func(config.Config) error
	newAssistant func(config.Config) *assistant.Client
	client       *assistant.Client

	realNational bool
	national     allocation.NationalTotals

	// Pickers
	screen   screen
	ufList   list.Model
	muniList list.Model
	uf       string

	// Selected municipality; base is never edited.
	base    model.Municipality
	current model.AllocationResult

	// Per-tab state
	sim      simulateState
	chat     chatState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	save := opts.Save
	if save == nil {
		save = config.Save
	}
	newAssistant := opts.NewAssistant
	if newAssistant == nil {
		newAssistant = func(config.Config) *assistant.Client { return nil }
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		cat:          opts.Catalog,
		eng:          opts.Engine,
		cfg:          opts.Config,
		save:         save,
		newAssistant: newAssistant,
		realNational: opts.RealNational,
		spinner:      sp,
		chat:         newChatState(),
		settings:     newSettingsState(),
	}
	a.client = newAssistant(a.cfg)
	a.national = a.nationalTotals()
	a.ufList = newUFList(a.cat)
	a.muniList = newMunicipalityList("", nil)

	if uf := strings.ToUpper(a.cfg.General.DefaultUF); uf != "" && len(a.cat.ByUF(uf)) > 0 {
		a.openUF(uf)
	}

	if opts.NeedSetup {
		a.setupVals = newSetupValues(a.cfg)
		a.setupForm = newSetupForm(a.setupVals, a.cat.UFs())
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) nationalTotals() allocation.NationalTotals {
	if !a.realNational {
		return allocation.NationalTotals{}
	}
	return a.eng.NationalTotals(a.cat.All())
}

// selectMunicipality computes m and resets the per-municipality tab state.
func (a *App) selectMunicipality(m model.Municipality) {
	a.base = m.Clone()
	a.current = a.eng.ComputeWith(a.base, a.national)
	a.sim.reset(a.base, a.current)
	a.chat.conv.Clear()
	a.chat.err = nil
	a.screen = screenDashboard
	a.activeTab = tabOverview
	a.refreshChat()
}

// groundingResult is the result the chat is asked about: the scenario when
// one is being edited, the catalog figures otherwise.
func (a App) groundingResult() model.AllocationResult {
	if a.sim.modified() {
		return a.sim.result
	}
	return a.current
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case chatReplyMsg:
		return a.handleChatReply(msg), nil

	case spinner.TickMsg:
		if !a.chat.pending {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		if a.setupForm != nil || a.showHelp || a.screen != screenDashboard {
			return a, nil
		}
		return a.updateMouse(msg)
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if a.screen != screenDashboard {
			return a.updatePicker(msg)
		}
		return a.forwardToInputs(msg)
	}
	if key.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.screen {
	case screenUF, screenMunicipality:
		return a.updatePicker(msg)
	}
	return a.updateDashboard(key)
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabChat {
			a.chat.view.ScrollUp(3)
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabChat {
			a.chat.view.ScrollDown(3)
		}
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress || msg.Y > 0 {
			return a, nil
		}
		if tab := a.tabAtX(msg.X); tab >= 0 {
			return a.switchTab(tab)
		}
	}
	return a, nil
}

func (a App) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text inputs own the keyboard while focused.
	switch {
	case a.activeTab == tabSimulate && a.sim.editing:
		return a.updateSimulateInput(msg)
	case a.activeTab == tabChat && a.chat.input.Focused():
		return a.updateChatInput(msg)
	case a.activeTab == tabSettings && a.settings.editing:
		return a.updateSettingsInput(msg)
	}

	key := msg.String()

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.showHelp = true
		return a, nil
	case "m", "esc":
		a.screen = screenMunicipality
		return a, nil
	case "u":
		a.screen = screenUF
		return a, nil
	case "right", "tab", "l":
		return a.switchTab((a.activeTab + 1) % len(components.Tabs))
	case "left", "shift+tab", "h":
		return a.switchTab((a.activeTab + len(components.Tabs) - 1) % len(components.Tabs))
	}
	for i, tab := range components.Tabs {
		if key == tab.Key {
			return a.switchTab(i)
		}
	}

	switch a.activeTab {
	case tabSimulate:
		return a.updateSimulate(msg)
	case tabChat:
		return a.updateChat(msg)
	case tabSettings:
		return a.updateSettings(msg)
	}
	return a, nil
}

// forwardToInputs delivers non-key messages (cursor blink) to the text inputs.
func (a App) forwardToInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds [3]tea.Cmd
	a.sim.input, cmds[0] = a.sim.input.Update(msg)
	a.chat.input, cmds[1] = a.chat.input.Update(msg)
	a.settings.input, cmds[2] = a.settings.input.Update(msg)
	return a, tea.Batch(cmds[:]...)
}

func (a App) switchTab(tab int) (tea.Model, tea.Cmd) {
	a.activeTab = tab
	if tab == tabChat {
		a.refreshChat()
	}
	return a, nil
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// contentHeight is the height left for tab content under the header and
// above the status bar.
func (a App) contentHeight() int {
	return max(a.height-3, minContentHeight)
}

func (a *App) resize() {
	a.ufList.SetSize(a.width, a.height-1)
	a.muniList.SetSize(a.width, a.height-1)
	a.layoutChat()
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}

	switch a.screen {
	case screenUF, screenMunicipality:
		return a.viewPicker()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal muito estreito (%d colunas)\n\n  fundeb precisa de pelo menos %d colunas.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navegação", [][2]string{
			{"1-6", "Ir para a aba"},
			{"← →", "Aba anterior / próxima"},
			{"m", "Trocar município"},
			{"u", "Trocar UF"},
		}},
		{"Simular", [][2]string{
			{"j k", "Escolher etapa"},
			{"Enter", "Editar matrículas"},
			{"r", "Restaurar dados atuais"},
		}},
		{"Chat", [][2]string{
			{"i Enter", "Escrever pergunta"},
			{"Esc", "Sair do campo"},
			{"x", "Limpar histórico"},
		}},
		{"Geral", [][2]string{
			{"?", "Ajuda"},
			{"q", "Sair"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Atalhos"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Qualquer tecla fecha"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderInfoLine(w)
	statusBar := components.RenderStatusBar(w, a.statusHints(), a.statusRight(), a.statusWarning())

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabVAAT:
		content = a.renderCategoryTab(model.VAAT, cw)
	case tabVAAF:
		content = a.renderCategoryTab(model.VAAF, cw)
	case tabSimulate:
		content = a.renderSimulateTab(cw)
	case tabChat:
		content = a.renderChatTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderInfoLine shows the selected municipality's identity and indices.
func (a App) renderInfoLine(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sep := dim.Render(" │ ")

	m := a.base
	line := dim.Render(" ") +
		accent.Render(fmt.Sprintf("%s/%s", m.Name, m.UF)) + sep +
		dim.Render("População ") + value.Render(cli.FormatNumber(m.Population)) + sep +
		dim.Render("NSE ") + value.Render(cli.FormatIndex(m.NSE, 1)) + sep +
		dim.Render("DRec ") + value.Render(cli.FormatIndex(m.DRec, 2)) + sep +
		dim.Render("IBGE ") + value.Render(m.Code)

	return lipgloss.NewStyle().Background(t.Surface).Width(w).MaxWidth(w).Render(line)
}

func (a App) statusHints() string {
	switch a.activeTab {
	case tabSimulate:
		if a.sim.editing {
			return "enter confirmar · esc cancelar"
		}
		return "j/k etapa · enter editar · r restaurar · ? ajuda"
	case tabChat:
		if a.chat.input.Focused() {
			return "enter enviar · esc sair do campo"
		}
		return "i escrever · x limpar · ? ajuda"
	case tabSettings:
		return "j/k campo · enter alterar · ? ajuda"
	}
	return "1-6 abas · m município · u UF · ? ajuda · q sair"
}

func (a App) statusRight() string {
	mode := "nacional real"
	if a.current.Demo() {
		mode = "modo demonstração"
	}
	return fmt.Sprintf("%s · ano %d", mode, a.eng.Year())
}

func (a App) statusWarning() string {
	if a.settings.saveErr != nil {
		return a.settings.saveErr.Error()
	}
	return ""
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	return components.TabAtX(a.activeTab, x)
}
