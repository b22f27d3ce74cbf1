// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package views

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/foachat-tui/internal/api"
	"github.com/jeranaias/foachat-tui/internal/config"
	"github.com/jeranaias/foachat-tui/internal/conversation"
	"github.com/jeranaias/foachat-tui/internal/credstore"
	"github.com/jeranaias/foachat-tui/internal/logging"
	"github.com/jeranaias/foachat-tui/internal/nav"
	"github.com/jeranaias/foachat-tui/internal/session"
	"github.com/jeranaias/foachat-tui/internal/ui/styles"
)

type stubGateway struct {
	loginPayload *api.AuthPayload
	loginErr     error
	profile      *api.User
	profileErr   error
}

func (g *stubGateway) Login(ctx context.Context, email, password string) (*api.AuthPayload, error) {
	return g.loginPayload, g.loginErr
}

func (g *stubGateway) ExchangeOAuth(ctx context.Context, provider, code string) (*api.AuthPayload, error) {
	return nil, nil
}

func (g *stubGateway) FetchProfile(ctx context.Context) (*api.User, error) {
	return g.profile, g.profileErr
}

func (g *stubGateway) Logout(ctx context.Context, token string) error { return nil }

func newTestRoot(t *testing.T, gw session.Gateway, store credstore.Store) (*Root, *session.Controller) {
	t.Helper()
	cfg := config.DefaultConfig()
	ctrl := session.NewController(gw, store, nil)
	deps := Deps{
		Cfg:     cfg,
		Theme:   styles.NewTheme(),
		Client:  api.NewClient("http://127.0.0.1:1", store, nil),
		Session: ctrl,
		Log:     logging.Nop(),
	}
	return NewRoot(deps), ctrl
}

func TestRoot_RoutesToLoginWhenUnauthenticated(t *testing.T) {
	r, ctrl := newTestRoot(t, &stubGateway{}, credstore.NewMemStore())
	ctrl.Initialize(context.Background())

	model, _ := r.Update(sessionResolvedMsg{})
	r = model.(*Root)
	if r.view != nav.ViewLogin {
		t.Fatalf("view = %q, want login", r.view)
	}
	if !strings.Contains(r.View(), "sign in") {
		t.Error("login view should render the redirect reason")
	}
}

func TestRoot_RoutesToChatWhenStoredSessionValid(t *testing.T) {
	store := credstore.NewMemStore()
	store.Save("T1")
	gw := &stubGateway{profile: &api.User{Username: "a", Email: "a@b.com"}}
	r, ctrl := newTestRoot(t, gw, store)
	ctrl.Initialize(context.Background())

	model, _ := r.Update(sessionResolvedMsg{})
	r = model.(*Root)
	if r.view != nav.ViewChat {
		t.Fatalf("view = %q, want chat", r.view)
	}
}

func TestRoot_BouncesProtectedViewOnInvalidation(t *testing.T) {
	store := credstore.NewMemStore()
	store.Save("T1")
	gw := &stubGateway{profile: &api.User{Username: "a"}}
	r, ctrl := newTestRoot(t, gw, store)
	ctrl.Initialize(context.Background())
	model, _ := r.Update(sessionResolvedMsg{})
	r = model.(*Root)
	if r.view != nav.ViewChat {
		t.Fatalf("setup: view = %q", r.view)
	}

	ctrl.Invalidate(context.Background())
	model, _ = r.Update(SessionChangedMsg{Transition: session.Transition{
		From: session.StatusAuthenticated, To: session.StatusUnauthenticated,
	}})
	r = model.(*Root)
	if r.view != nav.ViewLogin {
		t.Fatalf("view = %q, want login after invalidation", r.view)
	}
}

func TestRoot_LoginRedirectsToChatOnTransition(t *testing.T) {
	store := credstore.NewMemStore()
	gw := &stubGateway{loginPayload: &api.AuthPayload{Token: "T1", User: &api.User{Username: "a"}}}
	r, ctrl := newTestRoot(t, gw, store)
	ctrl.Initialize(context.Background())
	model, _ := r.Update(sessionResolvedMsg{})
	r = model.(*Root)
	if r.view != nav.ViewLogin {
		t.Fatalf("setup: view = %q", r.view)
	}

	if err := ctrl.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatal(err)
	}
	model, _ = r.Update(SessionChangedMsg{Transition: session.Transition{
		From: session.StatusUnauthenticated, To: session.StatusAuthenticated,
	}})
	r = model.(*Root)
	if r.view != nav.ViewChat {
		t.Fatalf("view = %q, want chat after login", r.view)
	}
}

func TestRoot_NavigateRespectsAnonymousOnly(t *testing.T) {
	store := credstore.NewMemStore()
	store.Save("T1")
	gw := &stubGateway{profile: &api.User{Username: "a"}}
	r, ctrl := newTestRoot(t, gw, store)
	ctrl.Initialize(context.Background())
	model, _ := r.Update(sessionResolvedMsg{})
	r = model.(*Root)

	// An authenticated user asking for the login view lands on chat.
	model, _ = r.Update(NavigateMsg{View: nav.ViewLogin})
	r = model.(*Root)
	if r.view != nav.ViewChat {
		t.Fatalf("view = %q, want chat", r.view)
	}
}

func TestRoot_LoginShowsNoticeFromPreviousScreen(t *testing.T) {
	r, ctrl := newTestRoot(t, &stubGateway{}, credstore.NewMemStore())
	ctrl.Initialize(context.Background())
	model, _ := r.Update(sessionResolvedMsg{})
	r = model.(*Root)

	// A completed reset redirects here carrying its success line.
	model, _ = r.Update(NavigateMsg{View: nav.ViewLogin, Notice: "Your password has been reset. Please sign in."})
	r = model.(*Root)
	if r.view != nav.ViewLogin {
		t.Fatalf("view = %q, want login", r.view)
	}
	if !strings.Contains(r.View(), "has been reset") {
		t.Error("login view must render the success notice")
	}
}

func TestRoot_OverflowedTransitionStillDelivered(t *testing.T) {
	r, _ := newTestRoot(t, &stubGateway{}, credstore.NewMemStore())

	// Fill the buffer, then push one more broadcast than it can hold.
	for i := 0; i < cap(r.transitions); i++ {
		r.notifyTransition(session.Transition{From: session.StatusUnknown, To: session.StatusUnauthenticated})
	}
	r.notifyTransition(session.Transition{From: session.StatusUnauthenticated, To: session.StatusAuthenticated})
	if !r.dropped.Load() {
		t.Fatal("overflow must be recorded")
	}

	// Every buffered transition is delivered, then the overflow surfaces as
	// one more message so the guard re-evaluates against the final state.
	for i := 0; i < cap(r.transitions); i++ {
		if _, ok := r.waitForTransition()().(SessionChangedMsg); !ok {
			t.Fatalf("delivery %d: expected a session change", i)
		}
	}
	if _, ok := r.waitForTransition()().(SessionChangedMsg); !ok {
		t.Fatal("a dropped transition must still force a re-evaluation")
	}
	if r.dropped.Load() {
		t.Error("the overflow marker must be consumed")
	}
}

func TestChatModel_SubmitAndResolve(t *testing.T) {
	_, ctrl := newTestRoot(t, &stubGateway{}, credstore.NewMemStore())
	cfg := config.DefaultConfig()
	deps := Deps{
		Cfg:     cfg,
		Theme:   styles.NewTheme(),
		Client:  api.NewClient("http://127.0.0.1:1", credstore.NewMemStore(), nil),
		Session: ctrl,
		Log:     logging.Nop(),
	}
	m := newChatModel(deps)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	// Blank input is ignored without appending.
	m.submit()
	if m.manager.Len() != 1 {
		t.Fatalf("len = %d after blank submit", m.manager.Len())
	}

	m.input.SetValue("hello")
	_, cmd := m.submit()
	if cmd == nil {
		t.Fatal("accepted submit must produce a command")
	}
	if m.manager.Len() != 2 {
		t.Fatalf("len = %d, want optimistic user append", m.manager.Len())
	}
	if !m.manager.AwaitingResponse() {
		t.Fatal("awaiting flag must be set")
	}

	// A second submit while awaiting is rejected.
	m.input.SetValue("again")
	m.submit()
	if m.manager.Len() != 2 {
		t.Fatalf("len = %d, concurrent submit must not append", m.manager.Len())
	}

	m.Update(chatAnswerMsg{mgr: m.manager, turn: conversation.Turn(1), answer: "hi!", ok: true})
	if m.manager.AwaitingResponse() {
		t.Error("awaiting flag must clear after resolution")
	}
	msgs := m.manager.Messages()
	if msgs[len(msgs)-1].Content != "hi!" {
		t.Errorf("last message = %+v", msgs[len(msgs)-1])
	}
}

func TestChatModel_AuthFailureAppendsFallback(t *testing.T) {
	_, ctrl := newTestRoot(t, &stubGateway{}, credstore.NewMemStore())
	cfg := config.DefaultConfig()
	deps := Deps{
		Cfg:     cfg,
		Theme:   styles.NewTheme(),
		Client:  api.NewClient("http://127.0.0.1:1", credstore.NewMemStore(), nil),
		Session: ctrl,
		Log:     logging.Nop(),
	}
	m := newChatModel(deps)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m.input.SetValue("hello")
	m.submit()
	m.Update(chatAnswerMsg{mgr: m.manager, turn: conversation.Turn(1), authFailed: true})

	if m.manager.AwaitingResponse() {
		t.Error("awaiting flag must clear on auth failure")
	}
	msgs := m.manager.Messages()
	last := msgs[len(msgs)-1]
	if last.Content != conversation.FallbackNotice {
		t.Errorf("last message = %q, want fallback notice", last.Content)
	}
}

func TestChatModel_NewConversationDropsOldAnswer(t *testing.T) {
	_, ctrl := newTestRoot(t, &stubGateway{}, credstore.NewMemStore())
	deps := Deps{
		Cfg:     config.DefaultConfig(),
		Theme:   styles.NewTheme(),
		Client:  api.NewClient("http://127.0.0.1:1", credstore.NewMemStore(), nil),
		Session: ctrl,
		Log:     logging.Nop(),
	}
	m := newChatModel(deps)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m.input.SetValue("question A")
	m.submit()
	old := m.manager

	// Start a new conversation while A's answer is still in flight.
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.manager == old {
		t.Fatal("ctrl+n must create a fresh conversation")
	}
	m.input.SetValue("question B")
	m.submit()

	// A's answer arrives tagged with the discarded conversation. Both
	// conversations restarted their turn numbering at 1, so only the
	// manager identity tells them apart.
	m.Update(chatAnswerMsg{mgr: old, turn: conversation.Turn(1), answer: "answer for A", ok: true})
	if !m.manager.AwaitingResponse() {
		t.Error("the new conversation's turn must still be pending")
	}
	msgs := m.manager.Messages()
	if got := msgs[len(msgs)-1].Content; got != "question B" {
		t.Errorf("last message = %q, a stale answer must not be appended", got)
	}

	// B's own answer still resolves normally.
	m.Update(chatAnswerMsg{mgr: m.manager, turn: conversation.Turn(1), answer: "answer for B", ok: true})
	if m.manager.AwaitingResponse() {
		t.Error("awaiting flag must clear after the matching answer")
	}
	msgs = m.manager.Messages()
	if got := msgs[len(msgs)-1].Content; got != "answer for B" {
		t.Errorf("last message = %q, want the new conversation's answer", got)
	}
}
