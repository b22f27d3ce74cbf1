// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reset drives the two-phase password reset.
//
// Phase one collects the account email and asks the backend to send a reset
// code. Phase two collects the code and the new password; the email is
// carried forward from phase one and cannot be changed. A confirmation
// mismatch fails before any network activity. Completion shows a
// confirmation state, then schedules a redirect to login so the user has
// time to read it.
package reset

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/foachat-tui/internal/logging"
)

// =============================================================================
// PHASES
// =============================================================================

// Phase is the flow's position in the reset sequence.
type Phase int

const (
	// PhaseCollectingEmail is the initial phase, before any code exists.
	PhaseCollectingEmail Phase = iota
	// PhaseAwaitingNewPassword means a code was sent to the carried email.
	PhaseAwaitingNewPassword
	// PhaseCompleted means the password was reset; a login redirect is
	// scheduled.
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseCollectingEmail:
		return "collecting-email"
	case PhaseAwaitingNewPassword:
		return "awaiting-new-password"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMismatch means the password and its confirmation differ. Raised
	// locally, before any network call.
	ErrMismatch = errors.New("passwords do not match")

	// ErrEmptyField rejects a blank email, code, or password locally.
	ErrEmptyField = errors.New("required field is empty")

	// ErrWrongPhase means the operation does not apply to the current phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")
)

// =============================================================================
// FLOW
// =============================================================================

// RedirectDelay is how long the completed confirmation stays visible before
// the flow redirects to login.
const RedirectDelay = 2 * time.Second

// Gateway is the slice of the backend client the flow needs.
type Gateway interface {
	RequestReset(ctx context.Context, email string) error
	SubmitReset(ctx context.Context, email, code, newPassword string) error
}

// Scheduler runs fn after d. Production uses time.AfterFunc; tests
// substitute a synchronous fake.
type Scheduler func(d time.Duration, fn func())

// Flow owns one password-reset attempt. It is discarded on completion or
// when the user navigates away; a new attempt starts a new Flow.
type Flow struct {
	gw       Gateway
	schedule Scheduler
	redirect func()
	log      logging.Logger

	mu    sync.Mutex
	phase Phase
	email string
}

// NewFlow creates a flow in the collecting-email phase. redirect runs after
// RedirectDelay once the reset completes.
func NewFlow(gw Gateway, redirect func(), log logging.Logger) *Flow {
	if log == nil {
		log = logging.Nop()
	}
	return &Flow{
		gw:       gw,
		schedule: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		redirect: redirect,
		log:      log,
		phase:    PhaseCollectingEmail,
	}
}

// WithScheduler substitutes the redirect scheduler (tests).
func (f *Flow) WithScheduler(s Scheduler) *Flow {
	f.schedule = s
	return f
}

// Phase returns the current phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Email returns the address carried into phase two, empty before that.
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// RequestCode asks the backend to send a reset code to email. On success
// the flow advances to awaiting-new-password with the email carried forward.
func (f *Flow) RequestCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmptyField
	}
	f.mu.Lock()
	if f.phase != PhaseCollectingEmail {
		f.mu.Unlock()
		return ErrWrongPhase
	}
	f.mu.Unlock()

	if err := f.gw.RequestReset(ctx, email); err != nil {
		return err
	}

	f.mu.Lock()
	f.phase = PhaseAwaitingNewPassword
	f.email = email
	f.mu.Unlock()
	f.log.Debug(ctx, "reset code requested")
	return nil
}

// SubmitNewPassword redeems the code for a new password. A mismatch between
// newPassword and confirm fails locally with ErrMismatch and no network
// call. On success the flow completes and the login redirect is scheduled.
func (f *Flow) SubmitNewPassword(ctx context.Context, code, newPassword, confirm string) error {
	if strings.TrimSpace(code) == "" || newPassword == "" {
		return ErrEmptyField
	}
	if newPassword != confirm {
		return ErrMismatch
	}

	f.mu.Lock()
	if f.phase != PhaseAwaitingNewPassword {
		f.mu.Unlock()
		return ErrWrongPhase
	}
	email := f.email
	f.mu.Unlock()

	if err := f.gw.SubmitReset(ctx, email, code, newPassword); err != nil {
		return err
	}

	f.mu.Lock()
	f.phase = PhaseCompleted
	f.mu.Unlock()
	f.log.Info(ctx, "password reset completed")

	if f.redirect != nil {
		f.schedule(RedirectDelay, f.redirect)
	}
	return nil
}
