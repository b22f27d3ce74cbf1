// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/foachat-tui/internal/api"
	"github.com/jeranaias/foachat-tui/internal/config"
	"github.com/jeranaias/foachat-tui/internal/history"
	"github.com/jeranaias/foachat-tui/internal/logging"
	"github.com/jeranaias/foachat-tui/internal/nav"
	"github.com/jeranaias/foachat-tui/internal/session"
	"github.com/jeranaias/foachat-tui/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps carries everything the screens need, wired once in main.
type Deps struct {
	Cfg     *config.Config
	Theme   *styles.Theme
	Client  *api.Client
	Session *session.Controller
	History *history.Store // nil when history is disabled
	Log     logging.Logger
}

// =============================================================================
// ROOT MODEL
// =============================================================================

// Root is the top-level Bubble Tea model. It owns view switching: every
// navigation passes through the guard, and every session transition
// re-evaluates the guard for the mounted view, so a token invalidated
// mid-session bounces the user off a protected screen immediately.
type Root struct {
	deps  Deps
	view  nav.View
	child tea.Model

	// transitions carries session broadcasts into the update loop. dropped
	// records an overflow so the guard still re-evaluates once the buffer
	// drains; transitions coalesce, they are never lost.
	transitions chan session.Transition
	dropped     atomic.Bool

	// pending is a navigation deferred while the session was unresolved.
	pending nav.View

	width  int
	height int
}

// NewRoot creates the router and subscribes it to session transitions.
func NewRoot(deps Deps) *Root {
	r := &Root{
		deps:        deps,
		transitions: make(chan session.Transition, 16),
	}
	deps.Session.Subscribe(r.notifyTransition)
	r.view = nav.ViewHome
	r.child = newHomeModel(deps)
	return r
}

// notifyTransition runs under the controller lock and must never block it.
// On overflow the transition is coalesced into the dropped flag instead of
// discarded, since only the latest session state matters to the guard.
func (r *Root) notifyTransition(tr session.Transition) {
	select {
	case r.transitions <- tr:
	default:
		r.dropped.Store(true)
	}
}

// waitForTransition delivers the next session change. A recorded overflow
// surfaces as a synthetic message once the buffer is drained, forcing one
// guard re-evaluation against the current status.
func (r *Root) waitForTransition() tea.Cmd {
	return func() tea.Msg {
		select {
		case tr, ok := <-r.transitions:
			if !ok {
				return nil
			}
			return SessionChangedMsg{Transition: tr}
		default:
		}
		if r.dropped.CompareAndSwap(true, false) {
			return SessionChangedMsg{}
		}
		tr, ok := <-r.transitions
		if !ok {
			return nil
		}
		return SessionChangedMsg{Transition: tr}
	}
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(
		initializeSessionCmd(r.deps.Session),
		r.waitForTransition(),
		r.child.Init(),
	)
}

func (r *Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width, r.height = msg.Width, msg.Height
		r.deps.Theme.SetSize(msg.Width, msg.Height)
		child, cmd := r.child.Update(msg)
		r.child = child
		return r, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return r, tea.Quit
		}

	case sessionResolvedMsg:
		// Route to the main screen now that the stored credential resolved.
		target := nav.ViewChat
		if r.pending != "" {
			target = r.pending
			r.pending = ""
		}
		return r.navigate(target, "", "")

	case SessionChangedMsg:
		model, cmd := r.reevaluate()
		return model, tea.Batch(cmd, r.waitForTransition())

	case NavigateMsg:
		return r.navigate(msg.View, msg.Reason, msg.Notice)
	}

	child, cmd := r.child.Update(msg)
	r.child = child
	return r, cmd
}

func (r *Root) View() string {
	header := r.deps.Theme.Header.Render("FOA Chat")
	return lipgloss.JoinVertical(lipgloss.Left, header, r.child.View())
}

// =============================================================================
// ROUTING
// =============================================================================

// navigate runs the guard and mounts whichever view it settles on. The
// notice survives only when the requested view is mounted as asked; a guard
// redirect discards it.
func (r *Root) navigate(target nav.View, reason, notice string) (tea.Model, tea.Cmd) {
	switch d := nav.Evaluate(r.deps.Session.Status(), target); d.Kind {
	case nav.KindAllow:
		return r.mount(target, reason, notice)
	case nav.KindRedirectLogin:
		return r.mount(nav.ViewLogin, d.Reason, "")
	case nav.KindRedirectChat:
		return r.mount(nav.ViewChat, "", "")
	default: // nav.KindWait
		r.pending = target
		return r, nil
	}
}

// reevaluate re-runs the guard for the mounted view after a session change.
func (r *Root) reevaluate() (tea.Model, tea.Cmd) {
	d := nav.Evaluate(r.deps.Session.Status(), r.view)
	if d.Kind == nav.KindAllow || d.Kind == nav.KindWait {
		return r, nil
	}
	return r.navigate(r.view, d.Reason, "")
}

// mount replaces the current child, letting the outgoing one release
// whatever it holds.
func (r *Root) mount(view nav.View, reason, notice string) (tea.Model, tea.Cmd) {
	var teardown tea.Cmd
	if closer, ok := r.child.(interface{ teardown() tea.Cmd }); ok && r.view != view {
		teardown = closer.teardown()
	}

	r.view = view
	switch view {
	case nav.ViewLogin:
		r.child = newLoginModel(r.deps, reason, notice)
	case nav.ViewSignup:
		r.child = newSignupModel(r.deps)
	case nav.ViewForgot:
		r.child = newForgotModel(r.deps)
	case nav.ViewChat:
		r.child = newChatModel(r.deps)
	case nav.ViewSettings:
		r.child = newSettingsModel(r.deps)
	default:
		r.child = newHomeModel(r.deps)
	}

	if r.width > 0 {
		child, _ := r.child.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height})
		r.child = child
	}
	return r, tea.Batch(teardown, r.child.Init())
}
