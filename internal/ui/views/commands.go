// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/foachat-tui/internal/api"
	"github.com/jeranaias/foachat-tui/internal/conversation"
	"github.com/jeranaias/foachat-tui/internal/history"
	"github.com/jeranaias/foachat-tui/internal/reset"
	"github.com/jeranaias/foachat-tui/internal/session"
)

// opTimeout bounds every command-issued request independently of the HTTP
// client's own timeout.
const opTimeout = 35 * time.Second

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func initializeSessionCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		ctrl.Initialize(ctx)
		return sessionResolvedMsg{}
	}
}

func loginCmd(ctrl *session.Controller, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return loginResultMsg{err: ctrl.Login(ctx, email, password)}
	}
}

func oauthCmd(ctrl *session.Controller, provider, code string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return oauthResultMsg{err: ctrl.ExchangeOAuth(ctx, provider, code)}
	}
}

func logoutCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		ctrl.Logout(ctx)
		return nil
	}
}

// =============================================================================
// ACCOUNT COMMANDS
// =============================================================================

func signupCmd(client *api.Client, username, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		_, err := client.Signup(ctx, username, email, password)
		return signupResultMsg{err: err}
	}
}

func changePasswordCmd(client *api.Client, ctrl *session.Controller, current, next string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		err := client.ChangePassword(ctx, current, next)
		if api.IsAuthError(err) {
			ctrl.Invalidate(ctx)
		}
		return passwordChangedMsg{err: err}
	}
}

// =============================================================================
// RESET COMMANDS
// =============================================================================

func requestResetCmd(flow *reset.Flow, email string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return resetRequestedMsg{err: flow.RequestCode(ctx, email)}
	}
}

func submitResetCmd(flow *reset.Flow, code, newPassword, confirm string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return resetSubmittedMsg{err: flow.SubmitNewPassword(ctx, code, newPassword, confirm)}
	}
}

func redirectAfterCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return redirectTickMsg{}
	})
}

// =============================================================================
// CHAT COMMANDS
// =============================================================================

func chatAnswerCmd(client *api.Client, ctrl *session.Controller, mgr *conversation.Manager, turn conversation.Turn, question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		answer, err := client.ChatAnswer(ctx, question)
		if err != nil {
			if api.IsAuthError(err) {
				ctrl.Invalidate(ctx)
				return chatAnswerMsg{mgr: mgr, turn: turn, authFailed: true}
			}
			return chatAnswerMsg{mgr: mgr, turn: turn}
		}
		return chatAnswerMsg{mgr: mgr, turn: turn, answer: answer, ok: true}
	}
}

// =============================================================================
// HISTORY COMMANDS
// =============================================================================

func listHistoryCmd(store *history.Store, limit int) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return historyListMsg{}
		}
		ctx, cancel := opContext()
		defer cancel()
		items, err := store.ListRecent(ctx, limit)
		if err != nil {
			// History is a convenience; a broken archive shows as empty.
			return historyListMsg{}
		}
		return historyListMsg{items: items}
	}
}

func saveHistoryCmd(store *history.Store, title string, msgs []conversation.Message, max int) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return historySavedMsg{}
		}
		ctx, cancel := opContext()
		defer cancel()
		if _, err := store.Save(ctx, title, msgs); err != nil {
			return historySavedMsg{err: err}
		}
		return historySavedMsg{err: store.Prune(ctx, max)}
	}
}
