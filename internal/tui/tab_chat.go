package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rodrigosramos/fundeb-mvp/internal/assistant"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/components"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const chatTimeout = 90 * time.Second

// chatReplyMsg carries the assistant's answer back to Update.
type chatReplyMsg struct {
	reply assistant.Reply
	err   error
}

type chatState struct {
	conv    *assistant.Conversation
	input   textinput.Model
	view    viewport.Model
	pending bool
	err     error
	usage   assistant.Usage
}

func newChatState() chatState {
	ti := textinput.New()
	ti.Placeholder = "Pergunte sobre as complementações deste município..."
	ti.CharLimit = 1000
	ti.Prompt = "› "

	return chatState{
		conv:  &assistant.Conversation{},
		input: ti,
		view:  viewport.New(0, 0),
	}
}

// askCmd runs one question in the background.
func askCmd(client *assistant.Client, question string, result model.AllocationResult, history []assistant.Message) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
		defer cancel()
		reply, err := client.Ask(ctx, question, &result, history)
		return chatReplyMsg{reply: reply, err: err}
	}
}

func (a App) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "i", "enter":
		if a.client == nil {
			return a, nil
		}
		return a, a.chat.input.Focus()
	case "x", "ctrl+l":
		if a.chat.pending {
			return a, nil
		}
		a.chat.conv.Clear()
		a.chat.err = nil
		a.chat.usage = assistant.Usage{}
		a.refreshChat()
	case "j", "down":
		a.chat.view.ScrollDown(1)
	case "k", "up":
		a.chat.view.ScrollUp(1)
	case "pgdown", "ctrl+d":
		a.chat.view.HalfPageDown()
	case "pgup", "ctrl+u":
		a.chat.view.HalfPageUp()
	}
	return a, nil
}

func (a App) updateChatInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.chat.input.Blur()
		return a, nil
	case "enter":
		return a.sendQuestion()
	}

	var cmd tea.Cmd
	a.chat.input, cmd = a.chat.input.Update(msg)
	return a, cmd
}

func (a App) sendQuestion() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(a.chat.input.Value())
	if question == "" || a.chat.pending || a.client == nil {
		return a, nil
	}

	history := a.chat.conv.Messages()
	a.chat.conv.Add(assistant.RoleUser, question)
	a.chat.input.Reset()
	a.chat.pending = true
	a.chat.err = nil
	a.refreshChat()

	return a, tea.Batch(
		askCmd(a.client, question, a.groundingResult(), history),
		a.spinner.Tick,
	)
}

func (a App) handleChatReply(msg chatReplyMsg) App {
	a.chat.pending = false
	if msg.err != nil {
		a.chat.err = msg.err
		// Unanswered questions leave the history and return to the input.
		if last, ok := a.chat.conv.DropLast(assistant.RoleUser); ok && a.chat.input.Value() == "" {
			a.chat.input.SetValue(last.Content)
		}
	} else {
		a.chat.conv.Add(assistant.RoleAssistant, msg.reply.Text)
		a.chat.usage.InputTokens += msg.reply.Usage.InputTokens
		a.chat.usage.OutputTokens += msg.reply.Usage.OutputTokens
	}
	a.refreshChat()
	return a
}

// layoutChat sizes the history viewport to the content area.
func (a *App) layoutChat() {
	inner := components.CardInnerWidth(a.contentWidth())
	a.chat.view.Width = inner
	a.chat.view.Height = max(a.contentHeight()-6, 3)
	a.chat.input.Width = max(inner-4, 10)
	a.refreshChat()
}

// refreshChat re-renders the history into the viewport and scrolls to the end.
func (a *App) refreshChat() {
	a.chat.view.SetContent(renderHistory(a.chat.conv.Messages(), a.chat.view.Width))
	a.chat.view.GotoBottom()
}

func renderHistory(turns []assistant.Message, width int) string {
	t := theme.Active
	if len(turns) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
			Render("Nenhuma mensagem ainda. Pergunte, por exemplo, por que o município é elegível ao VAAT.")
	}

	userLabel := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	botLabel := lipgloss.NewStyle().Foreground(t.Magenta).Background(t.Surface).Bold(true)
	body := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(max(width, 10))

	blocks := make([]string, 0, len(turns))
	for _, turn := range turns {
		label := botLabel.Render("Assistente")
		if turn.Role == assistant.RoleUser {
			label = userLabel.Render("Você")
		}
		blocks = append(blocks, label+"\n"+body.Render(turn.Content))
	}
	return strings.Join(blocks, "\n\n")
}

func (a App) renderChatTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if a.client == nil {
		return components.ContentCard("Chat",
			muted.Render("Assistente indisponível: configure a chave da API na aba Config ou em ANTHROPIC_API_KEY."), cw)
	}

	var status string
	switch {
	case a.chat.pending:
		status = a.spinner.View() + muted.Render(" Consultando o assistente...")
	case a.chat.err != nil:
		status = lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Render(chatErrorText(a.chat.err))
	default:
		status = muted.Render(fmt.Sprintf("%s · %d mensagens · %d/%d tokens",
			a.client.Model(), a.chat.conv.Len(), a.chat.usage.InputTokens, a.chat.usage.OutputTokens))
	}

	title := "Chat"
	if a.sim.modified() {
		title += " · sobre o cenário simulado"
	}
	body := a.chat.view.View() + "\n" + status + "\n" + a.chat.input.View()
	if a.chat.input.Focused() {
		return components.FocusedCard(title, body, cw)
	}
	return components.ContentCard(title, body, cw)
}

func chatErrorText(err error) string {
	switch {
	case errors.Is(err, assistant.ErrUnauthorized):
		return "Chave da API inválida."
	case errors.Is(err, assistant.ErrRateLimited):
		return "Limite de requisições atingido; tente novamente em instantes."
	case errors.Is(err, context.DeadlineExceeded):
		return "O assistente demorou demais para responder."
	}
	return "Erro: " + err.Error()
}
