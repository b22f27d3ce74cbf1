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
	signupFieldUsername = iota
	signupFieldEmail
	signupFieldPassword
	signupFieldConfirm
)

// signupModel creates an account. The backend only acknowledges creation,
// so on success the user is sent to the login view to sign in.
type signupModel struct {
	deps    Deps
	form    form
	spinner spinner.Model

	errLine string
	done    bool
	busy    bool
}

func newSignupModel(deps Deps) signupModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = deps.Theme.Spinner
	return signupModel{
		deps: deps,
		form: newForm(
			formField{label: "Username", placeholder: "username"},
			formField{label: "Email", placeholder: "you@example.com"},
			formField{label: "Password", placeholder: "password", secret: true},
			formField{label: "Confirm password", placeholder: "password again", secret: true},
		),
		spinner: sp,
	}
}

func (m signupModel) Init() tea.Cmd { return m.spinner.Tick }

func (m signupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.done {
				return m, func() tea.Msg {
					return NavigateMsg{View: nav.ViewLogin, Notice: "Account created. Please sign in."}
				}
			}
			return m.submit()
		case "esc":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewLogin} }
		}

	case signupResultMsg:
		m.busy = false
		if msg.err != nil {
			if ce, ok := api.AsClientError(msg.err); ok {
				m.errLine = ce.Message
			} else {
				m.errLine = "Could not create the account. Please try again."
			}
			return m, nil
		}
		m.done = true
		m.errLine = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.form.update(msg)
}

func (m signupModel) submit() (tea.Model, tea.Cmd) {
	username := strings.TrimSpace(m.form.value(signupFieldUsername))
	email := strings.TrimSpace(m.form.value(signupFieldEmail))
	password := m.form.value(signupFieldPassword)
	confirm := m.form.value(signupFieldConfirm)

	switch {
	case username == "" || email == "" || password == "":
		m.errLine = "All fields are required."
		return m, nil
	case password != confirm:
		// Local check; no request leaves the client on a mismatch.
		m.errLine = "Passwords do not match."
		return m, nil
	}

	m.errLine = ""
	m.busy = true
	return m, signupCmd(m.deps.Client, username, email, password)
}

func (m signupModel) View() string {
	t := m.deps.Theme
	var b strings.Builder

	b.WriteString(t.FormTitle.Render("Create account"))
	b.WriteString("\n")

	if m.done {
		b.WriteString(t.SuccessText.Render("Account created. Please sign in."))
		b.WriteString("\n\n")
		b.WriteString(shortcutLine(m.deps, "enter", "go to sign in"))
		return t.FormBox.Render(b.String())
	}

	b.WriteString(m.form.render(m.deps))
	if m.busy {
		b.WriteString("\n" + m.spinner.View() + t.ThinkingText.Render(" creating account..."))
	}
	if m.errLine != "" {
		b.WriteString("\n" + t.ErrorText.Render(m.errLine))
	}
	b.WriteString("\n\n")
	b.WriteString(shortcutLine(m.deps, "enter", "create account"))
	b.WriteString(shortcutLine(m.deps, "esc", "back to sign in"))

	return t.FormBox.Render(b.String())
}
