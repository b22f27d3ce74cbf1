// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/foachat-tui/internal/api"
	"github.com/jeranaias/foachat-tui/internal/nav"
)

const (
	settingsFieldCurrent = iota
	settingsFieldNew
	settingsFieldConfirm
)

// settingsModel shows the account and changes the password.
type settingsModel struct {
	deps    Deps
	form    form
	spinner spinner.Model

	errLine string
	okLine  string
	busy    bool
}

func newSettingsModel(deps Deps) settingsModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = deps.Theme.Spinner
	return settingsModel{
		deps: deps,
		form: newForm(
			formField{label: "Current password", placeholder: "current password", secret: true},
			formField{label: "New password", placeholder: "new password", secret: true},
			formField{label: "Confirm new password", placeholder: "new password again", secret: true},
		),
		spinner: sp,
	}
}

func (m settingsModel) Init() tea.Cmd { return m.spinner.Tick }

func (m settingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.form.cycle(1)
			return m, nil
		case "shift+tab", "up":
			m.form.cycle(-1)
			return m, nil
		case "enter":
			return m.submit()
		case "ctrl+l":
			return m, logoutCmd(m.deps.Session)
		case "esc":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewChat} }
		}

	case passwordChangedMsg:
		m.busy = false
		if msg.err != nil {
			if ce, ok := api.AsClientError(msg.err); ok {
				m.errLine = ce.Message
			} else if api.IsAuthError(msg.err) {
				// The router is about to bounce this view.
				m.errLine = "Your session expired."
			} else {
				m.errLine = "Could not change the password. Please try again."
			}
			return m, nil
		}
		m.errLine = ""
		m.okLine = "Password changed."
		m.form.reset()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.form.update(msg)
}

func (m settingsModel) submit() (tea.Model, tea.Cmd) {
	current := m.form.value(settingsFieldCurrent)
	next := m.form.value(settingsFieldNew)
	confirm := m.form.value(settingsFieldConfirm)

	switch {
	case current == "" || next == "":
		m.errLine = "All fields are required."
		return m, nil
	case next != confirm:
		m.errLine = "New passwords do not match."
		return m, nil
	}

	m.errLine = ""
	m.okLine = ""
	m.busy = true
	return m, changePasswordCmd(m.deps.Client, m.deps.Session, current, next)
}

func (m settingsModel) View() string {
	t := m.deps.Theme
	var b strings.Builder

	b.WriteString(t.FormTitle.Render("Account settings"))
	b.WriteString("\n")
	if u := m.deps.Session.CurrentUser(); u != nil {
		b.WriteString(t.FieldLabel.Render("Signed in as "))
		b.WriteString(t.FieldFocused.Render(u.Username))
		b.WriteString(t.HintText.Render(" <" + u.Email + ">"))
		b.WriteString("\n\n")
	}

	b.WriteString(m.form.render(m.deps))
	if m.busy {
		b.WriteString("\n" + m.spinner.View() + t.ThinkingText.Render(" updating..."))
	}
	if m.errLine != "" {
		b.WriteString("\n" + t.ErrorText.Render(m.errLine))
	}
	if m.okLine != "" {
		b.WriteString("\n" + t.SuccessText.Render(m.okLine))
	}

	b.WriteString("\n\n")
	b.WriteString(shortcutLine(m.deps, "enter", "change password"))
	b.WriteString(shortcutLine(m.deps, "ctrl+l", "log out"))
	b.WriteString(shortcutLine(m.deps, "esc", "back to chat"))

	return t.FormBox.Render(b.String())
}
