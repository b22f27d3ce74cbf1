// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the client's authentication state machine.
//
// The controller is the single writer of session state. It starts Unknown,
// resolves to Unauthenticated or Authenticated during Initialize, and from
// then on every change flows through exactly one of Login, ExchangeOAuth,
// Logout, or Invalidate. Subscribers observe each transition exactly once,
// in the order it happened.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/foachat-tui/internal/api"
	"github.com/jeranaias/foachat-tui/internal/credstore"
	"github.com/jeranaias/foachat-tui/internal/logging"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the session's authentication state.
type Status int

const (
	// StatusUnknown means Initialize has not yet resolved the stored credential.
	StatusUnknown Status = iota
	// StatusUnauthenticated means no valid session exists.
	StatusUnauthenticated
	// StatusAuthenticated means a session token is held and trusted.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Transition records a single state change.
type Transition struct {
	From Status
	To   Status
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidCredentials means the backend rejected the login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnavailable means the backend could not be reached; the session
	// state is unchanged and the attempt may be repeated.
	ErrUnavailable = errors.New("server unreachable")
)

// =============================================================================
// GATEWAY DEPENDENCY
// =============================================================================

// Gateway is the slice of the backend client the controller needs.
// *api.Client satisfies it; tests substitute fakes.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*api.AuthPayload, error)
	ExchangeOAuth(ctx context.Context, provider, code string) (*api.AuthPayload, error)
	FetchProfile(ctx context.Context) (*api.User, error)
	Logout(ctx context.Context, token string) error
}

var _ Gateway = (*api.Client)(nil)

// =============================================================================
// CONTROLLER
// =============================================================================

// logoutNotifyTimeout bounds the best-effort backend notification so a dead
// server can never make local logout hang.
const logoutNotifyTimeout = 2 * time.Second

// Controller resolves, holds, and transitions the session state.
type Controller struct {
	gw    Gateway
	store credstore.Store
	log   logging.Logger

	mu     sync.Mutex
	status Status
	user   *api.User
	subs   []func(Transition)
}

// NewController creates a controller in the Unknown state.
func NewController(gw Gateway, store credstore.Store, log logging.Logger) *Controller {
	if log == nil {
		log = logging.Nop()
	}
	return &Controller{
		gw:     gw,
		store:  store,
		log:    log,
		status: StatusUnknown,
	}
}

// Status returns the current session state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CurrentUser returns the identity bound to the session, or nil when the
// session is not authenticated or the identity has not been fetched yet.
func (c *Controller) CurrentUser() *api.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Subscribe registers fn to receive every subsequent transition. Callbacks
// run with the controller lock held so ordering matches the transitions;
// they must return quickly and must not call back into the controller.
func (c *Controller) Subscribe(fn func(Transition)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// setStatus transitions to the new state and broadcasts once. Same-state
// calls are no-ops so subscribers only ever see real transitions.
// Caller must hold c.mu.
func (c *Controller) setStatus(to Status) {
	from := c.status
	if from == to {
		return
	}
	c.status = to
	for _, fn := range c.subs {
		fn(Transition{From: from, To: to})
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Initialize resolves the Unknown state from the stored credential. With no
// token the session is Unauthenticated. With a token, the identity is
// fetched: success authenticates, a backend rejection clears the token and
// leaves the session Unauthenticated. A transport failure keeps the token
// and authenticates without an identity; the token is validated the first
// time a protected call goes through. Calling Initialize after the state
// has resolved is a no-op.
func (c *Controller) Initialize(ctx context.Context) {
	c.mu.Lock()
	if c.status != StatusUnknown {
		c.mu.Unlock()
		return
	}
	if _, ok := c.store.Read(); !ok {
		c.setStatus(StatusUnauthenticated)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	user, err := c.gw.FetchProfile(ctx)
	switch {
	case err == nil:
		c.mu.Lock()
		c.user = user
		c.setStatus(StatusAuthenticated)
		c.mu.Unlock()
		c.log.Debug(ctx, "session restored from stored token")
	case api.IsAuthError(err):
		if cerr := c.store.Clear(); cerr != nil {
			c.log.Error(ctx, "token clear failed", "err", cerr)
		}
		c.mu.Lock()
		c.setStatus(StatusUnauthenticated)
		c.mu.Unlock()
		c.log.Info(ctx, "stored token rejected, session cleared")
	default:
		c.mu.Lock()
		c.setStatus(StatusAuthenticated)
		c.mu.Unlock()
		c.log.Warn(ctx, "identity fetch failed, keeping stored session", "err", err)
	}
}

// RefreshProfile fetches the identity for the current session. An auth
// rejection invalidates the session; any other failure leaves the cached
// identity (possibly nil) in place.
func (c *Controller) RefreshProfile(ctx context.Context) error {
	user, err := c.gw.FetchProfile(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			c.Invalidate(ctx)
		}
		return err
	}
	c.mu.Lock()
	if c.status == StatusAuthenticated {
		c.user = user
	}
	c.mu.Unlock()
	return nil
}

// Login exchanges credentials for a session. On success the token is
// persisted and the state becomes Authenticated as one unit: if the token
// cannot be persisted, the state does not change and the error is returned.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	payload, err := c.gw.Login(ctx, email, password)
	if err != nil {
		return c.mapLoginError(ctx, err)
	}
	return c.establish(ctx, payload)
}

// ExchangeOAuth completes a provider login with an authorization code.
func (c *Controller) ExchangeOAuth(ctx context.Context, provider, code string) error {
	payload, err := c.gw.ExchangeOAuth(ctx, provider, code)
	if err != nil {
		return c.mapLoginError(ctx, err)
	}
	return c.establish(ctx, payload)
}

// establish persists the token, populates the identity, and transitions to
// Authenticated as one unit. When the auth payload carries no identity the
// profile is fetched before the transition so a stored token is never
// observable without an identity fetch having been attempted.
func (c *Controller) establish(ctx context.Context, payload *api.AuthPayload) error {
	if payload.Token == "" {
		return &api.TransportError{Op: "login", Err: errors.New("response carried no token")}
	}
	if err := c.store.Save(payload.Token); err != nil {
		c.log.Error(ctx, "token persist failed", "err", err)
		return fmt.Errorf("persist session token: %w", err)
	}

	user := payload.User
	if user == nil {
		fetched, err := c.gw.FetchProfile(ctx)
		if err != nil {
			c.log.Warn(ctx, "identity fetch after login failed", "err", err)
		} else {
			user = fetched
		}
	}

	c.mu.Lock()
	c.user = user
	c.setStatus(StatusAuthenticated)
	c.mu.Unlock()

	c.log.Info(ctx, "session established")
	return nil
}

// mapLoginError converts gateway failures into the package's sentinels.
// A 401 here is a credential rejection, not a session invalidation.
func (c *Controller) mapLoginError(ctx context.Context, err error) error {
	if ce, ok := api.AsClientError(err); ok {
		if ce.Category() == api.CategoryBadCredentials {
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, ce.Message)
		}
		return err
	}
	if api.IsTransportError(err) {
		c.log.Warn(ctx, "login unreachable", "err", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// Logout ends the session. The token and identity are cleared and the
// transition broadcast first, regardless of network reachability; the
// backend is then notified best-effort with the snapshotted token, bounded
// by a timeout so a dead server can never delay anything but the notify.
func (c *Controller) Logout(ctx context.Context) {
	token, had := c.store.Read()
	c.clearLocked(ctx)

	if had {
		nctx, cancel := context.WithTimeout(ctx, logoutNotifyTimeout)
		if err := c.gw.Logout(nctx, token); err != nil {
			c.log.Debug(ctx, "logout notify failed", "err", err)
		}
		cancel()
	}
	c.log.Info(ctx, "session ended")
}

// Invalidate forces the session to Unauthenticated. It is called when any
// protected operation reports an auth rejection, and is idempotent.
func (c *Controller) Invalidate(ctx context.Context) {
	c.clearLocked(ctx)
	c.log.Warn(ctx, "session invalidated by backend rejection")
}

func (c *Controller) clearLocked(ctx context.Context) {
	if err := c.store.Clear(); err != nil {
		// The transition still happens: a clear failure must not leave the
		// client believing it has a session the backend rejected.
		c.log.Error(ctx, "token clear failed", "err", err)
	}
	c.mu.Lock()
	c.user = nil
	c.setStatus(StatusUnauthenticated)
	c.mu.Unlock()
}
