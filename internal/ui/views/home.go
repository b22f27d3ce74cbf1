// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/foachat-tui/internal/nav"
	"github.com/jeranaias/foachat-tui/internal/session"
)

// homeModel is the public landing screen.
type homeModel struct {
	deps Deps
}

func newHomeModel(deps Deps) homeModel {
	return homeModel{deps: deps}
}

func (m homeModel) Init() tea.Cmd { return nil }

func (m homeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "l":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewLogin} }
		case "s":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewSignup} }
		case "c", "enter":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewChat} }
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m homeModel) View() string {
	t := m.deps.Theme
	var b strings.Builder

	b.WriteString(t.FormTitle.Render("Welcome to FOA Chat"))
	b.WriteString("\n")
	b.WriteString(t.HintText.Render("An AI assistant in your terminal."))
	b.WriteString("\n\n")

	if m.deps.Session.Status() == session.StatusAuthenticated {
		if u := m.deps.Session.CurrentUser(); u != nil {
			b.WriteString(t.SuccessText.Render("Signed in as " + u.Username))
			b.WriteString("\n\n")
		}
		b.WriteString(shortcutLine(m.deps, "enter", "open chat"))
	} else {
		b.WriteString(shortcutLine(m.deps, "l", "sign in"))
		b.WriteString(shortcutLine(m.deps, "s", "create account"))
		b.WriteString(shortcutLine(m.deps, "enter", "open chat"))
	}
	b.WriteString(shortcutLine(m.deps, "q", "quit"))

	return t.FormBox.Render(b.String())
}

func shortcutLine(deps Deps, key, desc string) string {
	t := deps.Theme
	return t.ShortcutKey.Render(key) + " " + t.ShortcutDesc.Render(desc) + "\n"
}
