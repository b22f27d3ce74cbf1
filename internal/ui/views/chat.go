// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/foachat-tui/internal/conversation"
	"github.com/jeranaias/foachat-tui/internal/history"
	"github.com/jeranaias/foachat-tui/internal/nav"
	"github.com/jeranaias/foachat-tui/internal/util"
)

// historyTitleLimit caps the sidebar title taken from the first user turn.
const historyTitleLimit = 48

// chatModel is the authenticated chat screen. The transcript lives in a
// conversation.Manager created at mount and discarded at teardown, so a
// response that outlives the screen resolves against a closed manager and
// is dropped.
type chatModel struct {
	deps Deps

	manager  *conversation.Manager
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	showSidebar bool
	sidebar     []history.Summary

	errLine string
	width   int
	height  int
}

func newChatModel(deps Deps) *chatModel {
	in := textinput.New()
	in.Placeholder = "Ask me anything..."
	in.CharLimit = 4000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = deps.Theme.Spinner

	return &chatModel{
		deps:     deps,
		manager:  conversation.NewManager(),
		viewport: viewport.New(80, 20),
		input:    in,
		spinner:  sp,
	}
}

func (m *chatModel) Init() tea.Cmd {
	m.refreshTranscript()
	return tea.Batch(
		m.spinner.Tick,
		listHistoryCmd(m.deps.History, m.deps.Cfg.History.MaxConversations),
	)
}

// teardown archives the transcript and closes the manager so any in-flight
// answer is dropped rather than applied to the next mount.
func (m *chatModel) teardown() tea.Cmd {
	msgs := m.manager.Messages()
	m.manager.Close()
	if m.deps.History == nil || len(msgs) < 2 {
		return nil
	}
	return saveHistoryCmd(m.deps.History, transcriptTitle(msgs), msgs, m.deps.Cfg.History.MaxConversations)
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+n":
			cmd := m.teardown()
			m.manager = conversation.NewManager()
			m.errLine = ""
			m.refreshTranscript()
			return m, tea.Batch(cmd, listHistoryCmd(m.deps.History, m.deps.Cfg.History.MaxConversations))
		case "ctrl+h":
			m.showSidebar = !m.showSidebar
			return m, listHistoryCmd(m.deps.History, m.deps.Cfg.History.MaxConversations)
		case "ctrl+o":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewSettings} }
		case "ctrl+l":
			return m, logoutCmd(m.deps.Session)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case chatAnswerMsg:
		if msg.mgr != m.manager {
			// The answer belongs to a conversation that no longer exists.
			return m, nil
		}
		m.manager.Resolve(msg.turn, msg.answer, msg.ok)
		if msg.authFailed {
			// The session controller already broadcast the invalidation;
			// the router will bounce this view. Nothing else to do here.
			m.errLine = "Your session expired."
		}
		m.refreshTranscript()
		return m, nil

	case historyListMsg:
		m.sidebar = msg.items
		return m, nil

	case historySavedMsg:
		if msg.err != nil {
			m.deps.Log.Warn(context.Background(), "history save failed", "err", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *chatModel) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	turn, err := m.manager.Submit(text)
	if err != nil {
		switch {
		case errors.Is(err, conversation.ErrEmptyInput):
			// Ignore silently, matching every chat UI ever.
		case errors.Is(err, conversation.ErrBusy):
			m.errLine = "Waiting for the previous answer."
		}
		return m, nil
	}
	m.input.Reset()
	m.errLine = ""
	m.refreshTranscript()
	return m, chatAnswerCmd(m.deps.Client, m.deps.Session, m.manager, turn, text)
}

// =============================================================================
// RENDERING
// =============================================================================

func (m *chatModel) layout() {
	width := m.width
	if m.showSidebar && !m.deps.Theme.Narrow() {
		width -= 32
	}
	if width < 20 {
		width = 20
	}
	m.viewport.Width = width
	m.viewport.Height = max(m.height-6, 5)
	m.input.Width = max(width-6, 10)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-10, 20)),
	)
	if err == nil {
		m.renderer = renderer
	}
}

// refreshTranscript re-renders the conversation into the viewport and pins
// it to the bottom.
func (m *chatModel) refreshTranscript() {
	t := m.deps.Theme
	var b strings.Builder
	for _, msg := range m.manager.Messages() {
		switch msg.Role {
		case conversation.RoleUser:
			b.WriteString(t.UserBubble.Render(msg.Content))
		default:
			b.WriteString(t.AssistantBubble.Render(m.renderMarkdown(msg.Content)))
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// renderMarkdown renders assistant answers as markdown, falling back to the
// raw text when the renderer is unavailable or chokes.
func (m *chatModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(out)
}

func (m *chatModel) View() string {
	t := m.deps.Theme

	main := m.viewport.View()
	if m.showSidebar && !t.Narrow() {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), main)
	}

	status := ""
	if m.manager.AwaitingResponse() {
		status = m.spinner.View() + t.ThinkingText.Render(" thinking...")
	} else if m.errLine != "" {
		status = t.ErrorText.Render(m.errLine)
	}

	input := t.InputContainer.Render(t.InputPrompt.Render("> ") + m.input.View())
	bar := t.StatusBar.Render(m.statusLine())

	return lipgloss.JoinVertical(lipgloss.Left, main, status, input, bar)
}

func (m *chatModel) sidebarView() string {
	t := m.deps.Theme
	var b strings.Builder
	b.WriteString(t.FieldFocused.Render("History"))
	b.WriteString("\n")
	if len(m.sidebar) == 0 {
		b.WriteString(t.SidebarMeta.Render("no saved conversations"))
	}
	for _, item := range m.sidebar {
		b.WriteString(t.SidebarItem.Render(util.TruncateRunes(item.Title, 26)))
		b.WriteString("\n")
		b.WriteString(t.SidebarMeta.Render(fmt.Sprintf("  %d messages", item.Messages)))
		b.WriteString("\n")
	}
	return t.SidebarBox.Render(b.String())
}

func (m *chatModel) statusLine() string {
	t := m.deps.Theme
	who := "signed in"
	if u := m.deps.Session.CurrentUser(); u != nil {
		who = u.Username
	}
	return who + "  " +
		t.ShortcutKey.Render("^N") + t.ShortcutDesc.Render(" new ") +
		t.ShortcutKey.Render("^H") + t.ShortcutDesc.Render(" history ") +
		t.ShortcutKey.Render("^O") + t.ShortcutDesc.Render(" settings ") +
		t.ShortcutKey.Render("^L") + t.ShortcutDesc.Render(" logout")
}

// transcriptTitle derives a sidebar title from the first user turn.
func transcriptTitle(msgs []conversation.Message) string {
	for _, m := range msgs {
		if m.Role == conversation.RoleUser {
			return util.TruncateRunes(m.Content, historyTitleLimit)
		}
	}
	return "Conversation"
}
