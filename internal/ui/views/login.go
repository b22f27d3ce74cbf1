// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/foachat-tui/internal/api"
	"github.com/jeranaias/foachat-tui/internal/nav"
	"github.com/jeranaias/foachat-tui/internal/session"
)

const (
	loginFieldEmail = iota
	loginFieldPassword
)

// oauthProvider is the single provider the backend exchanges codes for.
const oauthProvider = "google"

// loginModel collects credentials. A successful login is not handled here:
// the session broadcast reaches the router, whose guard bounces this
// anonymous-only view to chat. Ctrl+G switches to a provider-code form for
// users completing an OAuth flow in their browser.
type loginModel struct {
	deps    Deps
	form    form
	oauth   form
	spinner spinner.Model

	reason    string // why the user was sent here, shown above the form
	notice    string // success line from signup or a completed reset
	errLine   string
	busy      bool
	oauthMode bool
}

func newLoginModel(deps Deps, reason, notice string) loginModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = deps.Theme.Spinner
	return loginModel{
		deps: deps,
		form: newForm(
			formField{label: "Email", placeholder: "you@example.com"},
			formField{label: "Password", placeholder: "password", secret: true},
		),
		oauth: newForm(
			formField{label: "Authorization code", placeholder: "paste code from browser"},
		),
		spinner: sp,
		reason:  reason,
		notice:  notice,
	}
}

func (m loginModel) Init() tea.Cmd { return m.spinner.Tick }

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			if !m.oauthMode {
				m.form.cycle(1)
			}
			return m, nil
		case "shift+tab", "up":
			if !m.oauthMode {
				m.form.cycle(-1)
			}
			return m, nil
		case "enter":
			return m.submit()
		case "ctrl+g":
			m.oauthMode = !m.oauthMode
			m.errLine = ""
			return m, nil
		case "ctrl+s":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewSignup} }
		case "ctrl+r":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewForgot} }
		case "esc":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewHome} }
		}

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errLine = loginErrorLine(msg.err)
			return m, nil
		}
		// Success: the router redirects on the session broadcast.
		return m, nil

	case oauthResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errLine = loginErrorLine(msg.err)
			return m, nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.oauthMode {
		return m, m.oauth.update(msg)
	}
	return m, m.form.update(msg)
}

func (m loginModel) submit() (tea.Model, tea.Cmd) {
	if m.oauthMode {
		code := strings.TrimSpace(m.oauth.value(0))
		if code == "" {
			m.errLine = "Authorization code is required."
			return m, nil
		}
		m.errLine = ""
		m.busy = true
		return m, oauthCmd(m.deps.Session, oauthProvider, code)
	}

	email := strings.TrimSpace(m.form.value(loginFieldEmail))
	password := m.form.value(loginFieldPassword)
	if email == "" || password == "" {
		m.errLine = "Email and password are required."
		return m, nil
	}
	m.errLine = ""
	m.busy = true
	return m, loginCmd(m.deps.Session, email, password)
}

func (m loginModel) View() string {
	t := m.deps.Theme
	var b strings.Builder

	b.WriteString(t.FormTitle.Render("Sign in"))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(t.SuccessText.Render(m.notice))
		b.WriteString("\n\n")
	}
	if m.reason != "" {
		b.WriteString(t.InfoText.Render(m.reason))
		b.WriteString("\n\n")
	}
	if m.oauthMode {
		b.WriteString(t.HintText.Render("Finish signing in with " + oauthProvider + " in your browser, then paste the code."))
		b.WriteString("\n\n")
		b.WriteString(m.oauth.render(m.deps))
	} else {
		b.WriteString(m.form.render(m.deps))
	}

	if m.busy {
		b.WriteString("\n" + m.spinner.View() + t.ThinkingText.Render(" signing in..."))
	}
	if m.errLine != "" {
		b.WriteString("\n" + t.ErrorText.Render(m.errLine))
	}

	b.WriteString("\n\n")
	b.WriteString(shortcutLine(m.deps, "enter", "sign in"))
	b.WriteString(shortcutLine(m.deps, "ctrl+g", "toggle code sign-in"))
	b.WriteString(shortcutLine(m.deps, "ctrl+s", "create account"))
	b.WriteString(shortcutLine(m.deps, "ctrl+r", "forgot password"))
	b.WriteString(shortcutLine(m.deps, "esc", "home"))

	return t.FormBox.Render(b.String())
}

// loginErrorLine maps login failures onto user-facing text.
func loginErrorLine(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, session.ErrUnavailable):
		return "Cannot reach the server. Check your connection and try again."
	default:
		if ce, ok := api.AsClientError(err); ok {
			return ce.Message
		}
		return "Sign-in failed. Please try again."
	}
}
