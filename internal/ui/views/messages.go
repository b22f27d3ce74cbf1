// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package views contains the Bubble Tea models for every screen and the
// root router that switches between them.
package views

import (
	"github.com/jeranaias/foachat-tui/internal/conversation"
	"github.com/jeranaias/foachat-tui/internal/history"
	"github.com/jeranaias/foachat-tui/internal/nav"
	"github.com/jeranaias/foachat-tui/internal/session"
)

// =============================================================================
// ROUTER MESSAGES
// =============================================================================

// NavigateMsg asks the root model to switch views. The guard still has the
// final say; Reason is carried onto the login view for redirects, Notice is
// a success line from the previous screen (account created, password reset).
type NavigateMsg struct {
	View   nav.View
	Reason string
	Notice string
}

// SessionChangedMsg delivers one session transition into the update loop.
type SessionChangedMsg struct {
	Transition session.Transition
}

// sessionResolvedMsg signals that Initialize finished and routing may start.
type sessionResolvedMsg struct{}

// =============================================================================
// OPERATION RESULTS
// =============================================================================

type loginResultMsg struct{ err error }

type signupResultMsg struct{ err error }

type oauthResultMsg struct{ err error }

type resetRequestedMsg struct{ err error }

type resetSubmittedMsg struct{ err error }

type passwordChangedMsg struct{ err error }

// chatAnswerMsg resolves one conversation turn. mgr identifies the
// conversation the request was issued for: an answer that arrives after
// ctrl+n or a remount carries the discarded manager and is dropped instead
// of resolving a turn of the new conversation. authFailed marks a token
// rejection so the chat view can force the session down.
type chatAnswerMsg struct {
	mgr        *conversation.Manager
	turn       conversation.Turn
	answer     string
	ok         bool
	authFailed bool
}

// historyListMsg delivers the sidebar entries, empty on storage failure.
type historyListMsg struct {
	items []history.Summary
}

// historySavedMsg acknowledges an archive write.
type historySavedMsg struct{ err error }

// redirectTickMsg fires when the reset confirmation delay elapses.
type redirectTickMsg struct{}
