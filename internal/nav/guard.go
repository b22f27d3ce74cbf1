// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav decides whether a view may be shown for a given session state.
//
// Evaluate is a pure function so the router can re-run it on every session
// transition while a view is mounted. A token invalidated mid-session
// therefore bounces the user off a protected view immediately, not just at
// mount time.
package nav

import "github.com/jeranaias/foachat-tui/internal/session"

// =============================================================================
// VIEWS AND POLICIES
// =============================================================================

// View identifies a navigable screen.
type View string

const (
	ViewHome     View = "home"
	ViewLogin    View = "login"
	ViewSignup   View = "signup"
	ViewForgot   View = "forgot-password"
	ViewChat     View = "chat"
	ViewSettings View = "settings"
)

// Policy is a view's access requirement.
type Policy int

const (
	// PolicyPublic views are reachable in any session state.
	PolicyPublic Policy = iota
	// PolicyAnonymousOnly views (login, signup) are pointless once
	// authenticated and redirect to chat.
	PolicyAnonymousOnly
	// PolicyAuthenticatedOnly views require a session and redirect to
	// login with a reason otherwise.
	PolicyAuthenticatedOnly
)

var policies = map[View]Policy{
	ViewHome:     PolicyPublic,
	ViewLogin:    PolicyAnonymousOnly,
	ViewSignup:   PolicyAnonymousOnly,
	ViewForgot:   PolicyAnonymousOnly,
	ViewChat:     PolicyAuthenticatedOnly,
	ViewSettings: PolicyAuthenticatedOnly,
}

// PolicyFor returns the access policy for a view. Unregistered views are
// treated as authenticated-only (fail closed).
func PolicyFor(view View) Policy {
	if p, ok := policies[view]; ok {
		return p
	}
	return PolicyAuthenticatedOnly
}

// =============================================================================
// DECISIONS
// =============================================================================

// Kind is the outcome of a guard evaluation.
type Kind int

const (
	// KindAllow shows the requested view.
	KindAllow Kind = iota
	// KindRedirectLogin sends the user to the login view with a reason.
	KindRedirectLogin
	// KindRedirectChat sends an authenticated user away from entry views.
	KindRedirectChat
	// KindWait defers the decision until the session resolves from unknown.
	KindWait
)

// Decision is the guard's verdict for one (status, view) pair.
type Decision struct {
	Kind Kind
	// Reason is shown on the login view for KindRedirectLogin. Never empty
	// for that kind.
	Reason string
}

// =============================================================================
// EVALUATION
// =============================================================================

const signInReason = "Please sign in to continue."

// Evaluate maps session status and target view to a routing decision.
func Evaluate(status session.Status, view View) Decision {
	policy := PolicyFor(view)
	if policy == PolicyPublic {
		return Decision{Kind: KindAllow}
	}

	switch status {
	case session.StatusUnknown:
		// The stored credential has not been resolved yet; deciding now
		// would bounce a returning user through login for no reason.
		return Decision{Kind: KindWait}
	case session.StatusAuthenticated:
		if policy == PolicyAnonymousOnly {
			return Decision{Kind: KindRedirectChat}
		}
		return Decision{Kind: KindAllow}
	default:
		if policy == PolicyAuthenticatedOnly {
			return Decision{Kind: KindRedirectLogin, Reason: signInReason}
		}
		return Decision{Kind: KindAllow}
	}
}
