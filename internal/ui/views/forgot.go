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
	"github.com/jeranaias/foachat-tui/internal/reset"
)

const (
	resetFieldCode = iota
	resetFieldPassword
	resetFieldConfirm
)

// forgotModel walks the two-phase password reset. Phase one shows a single
// email field; phase two shows code and password fields for the email
// carried in the flow. Completion shows a confirmation, then redirects to
// login after the flow's display delay.
type forgotModel struct {
	deps    Deps
	flow    *reset.Flow
	spinner spinner.Model

	emailForm form
	codeForm  form

	errLine string
	busy    bool
}

func newForgotModel(deps Deps) forgotModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = deps.Theme.Spinner
	return forgotModel{
		deps:    deps,
		flow:    reset.NewFlow(deps.Client, nil, deps.Log),
		spinner: sp,
		emailForm: newForm(
			formField{label: "Email", placeholder: "you@example.com"},
		),
		codeForm: newForm(
			formField{label: "Reset code", placeholder: "6-digit code"},
			formField{label: "New password", placeholder: "new password", secret: true},
			formField{label: "Confirm password", placeholder: "new password again", secret: true},
		),
	}
}

func (m forgotModel) Init() tea.Cmd { return m.spinner.Tick }

func (m *forgotModel) activeForm() *form {
	if m.flow.Phase() == reset.PhaseCollectingEmail {
		return &m.emailForm
	}
	return &m.codeForm
}

func (m forgotModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy || m.flow.Phase() == reset.PhaseCompleted {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.activeForm().cycle(1)
			return m, nil
		case "shift+tab", "up":
			m.activeForm().cycle(-1)
			return m, nil
		case "enter":
			return m.submit()
		case "esc":
			return m, func() tea.Msg { return NavigateMsg{View: nav.ViewLogin} }
		}

	case resetRequestedMsg:
		m.busy = false
		if msg.err != nil {
			m.errLine = resetErrorLine(msg.err)
			return m, nil
		}
		m.errLine = ""
		return m, nil

	case resetSubmittedMsg:
		m.busy = false
		if msg.err != nil {
			m.errLine = resetErrorLine(msg.err)
			return m, nil
		}
		m.errLine = ""
		// Leave the confirmation on screen long enough to read.
		return m, redirectAfterCmd(reset.RedirectDelay)

	case redirectTickMsg:
		return m, func() tea.Msg {
			return NavigateMsg{View: nav.ViewLogin, Notice: "Your password has been reset. Please sign in."}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.activeForm().update(msg)
}

func (m forgotModel) submit() (tea.Model, tea.Cmd) {
	switch m.flow.Phase() {
	case reset.PhaseCollectingEmail:
		email := strings.TrimSpace(m.emailForm.value(0))
		if email == "" {
			m.errLine = "Email is required."
			return m, nil
		}
		m.errLine = ""
		m.busy = true
		return m, requestResetCmd(m.flow, email)

	case reset.PhaseAwaitingNewPassword:
		code := strings.TrimSpace(m.codeForm.value(resetFieldCode))
		password := m.codeForm.value(resetFieldPassword)
		confirm := m.codeForm.value(resetFieldConfirm)
		if password != confirm {
			// Fail fast; the flow would reject this without a network call
			// anyway, but there is no reason to leave the update loop.
			m.errLine = "Passwords do not match."
			return m, nil
		}
		m.errLine = ""
		m.busy = true
		return m, submitResetCmd(m.flow, code, password, confirm)
	}
	return m, nil
}

func (m forgotModel) View() string {
	t := m.deps.Theme
	var b strings.Builder

	b.WriteString(t.FormTitle.Render("Reset password"))
	b.WriteString("\n")

	switch m.flow.Phase() {
	case reset.PhaseCollectingEmail:
		b.WriteString(t.HintText.Render("Enter your account email and we'll send a reset code."))
		b.WriteString("\n\n")
		b.WriteString(m.emailForm.render(m.deps))
	case reset.PhaseAwaitingNewPassword:
		b.WriteString(t.InfoText.Render("A reset code was sent to " + m.flow.Email()))
		b.WriteString("\n\n")
		b.WriteString(m.codeForm.render(m.deps))
	case reset.PhaseCompleted:
		b.WriteString(t.SuccessText.Render("Password reset. Redirecting to sign in..."))
		return t.FormBox.Render(b.String())
	}

	if m.busy {
		b.WriteString("\n" + m.spinner.View() + t.ThinkingText.Render(" working..."))
	}
	if m.errLine != "" {
		b.WriteString("\n" + t.ErrorText.Render(m.errLine))
	}
	b.WriteString("\n\n")
	b.WriteString(shortcutLine(m.deps, "enter", "continue"))
	b.WriteString(shortcutLine(m.deps, "esc", "back to sign in"))

	return t.FormBox.Render(b.String())
}

func resetErrorLine(err error) string {
	switch {
	case errors.Is(err, reset.ErrMismatch):
		return "Passwords do not match."
	case errors.Is(err, reset.ErrEmptyField):
		return "All fields are required."
	default:
		if ce, ok := api.AsClientError(err); ok {
			return ce.Message
		}
		return "Something went wrong. Please try again."
	}
}
