// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reset

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jeranaias/foachat-tui/internal/api"
)

type fakeGateway struct {
	requestErr   error
	submitErr    error
	requestCalls int
	submitCalls  int
	lastEmail    string
	lastCode     string
}

func (f *fakeGateway) RequestReset(ctx context.Context, email string) error {
	f.requestCalls++
	f.lastEmail = email
	return f.requestErr
}

func (f *fakeGateway) SubmitReset(ctx context.Context, email, code, newPassword string) error {
	f.submitCalls++
	f.lastEmail = email
	f.lastCode = code
	return f.submitErr
}

// immediateScheduler runs callbacks synchronously and records the delay.
func immediateScheduler(delays *[]time.Duration) Scheduler {
	return func(d time.Duration, fn func()) {
		*delays = append(*delays, d)
		fn()
	}
}

func TestFlow_HappyPath(t *testing.T) {
	gw := &fakeGateway{}
	redirected := false
	var delays []time.Duration
	f := NewFlow(gw, func() { redirected = true }, nil).
		WithScheduler(immediateScheduler(&delays))

	if f.Phase() != PhaseCollectingEmail {
		t.Fatalf("initial phase = %v", f.Phase())
	}

	if err := f.RequestCode(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if f.Phase() != PhaseAwaitingNewPassword {
		t.Errorf("phase = %v, want awaiting-new-password", f.Phase())
	}
	if f.Email() != "a@b.com" {
		t.Errorf("carried email = %q", f.Email())
	}

	if err := f.SubmitNewPassword(context.Background(), "123456", "newpass1", "newpass1"); err != nil {
		t.Fatalf("SubmitNewPassword: %v", err)
	}
	if f.Phase() != PhaseCompleted {
		t.Errorf("phase = %v, want completed", f.Phase())
	}
	if !redirected {
		t.Error("completion must schedule the login redirect")
	}
	if len(delays) != 1 || delays[0] != RedirectDelay {
		t.Errorf("delays = %v, want one of %v", delays, RedirectDelay)
	}
	if gw.lastEmail != "a@b.com" || gw.lastCode != "123456" {
		t.Errorf("submit used (%q, %q)", gw.lastEmail, gw.lastCode)
	}
}

func TestSubmitNewPassword_MismatchNeverTouchesNetwork(t *testing.T) {
	gw := &fakeGateway{}
	f := NewFlow(gw, nil, nil)
	if err := f.RequestCode(context.Background(), "a@b.com"); err != nil {
		t.Fatal(err)
	}

	err := f.SubmitNewPassword(context.Background(), "123456", "newpass1", "different")
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("err = %v, want ErrMismatch", err)
	}
	if gw.submitCalls != 0 {
		t.Errorf("submit calls = %d, want 0", gw.submitCalls)
	}
	if f.Phase() != PhaseAwaitingNewPassword {
		t.Errorf("phase = %v, mismatch must not advance the flow", f.Phase())
	}
}

func TestRequestCode_UnknownEmailSurfacesBackendMessage(t *testing.T) {
	gw := &fakeGateway{requestErr: &api.ClientError{
		Status:  http.StatusNotFound,
		Message: "Email not found",
	}}
	f := NewFlow(gw, nil, nil)

	err := f.RequestCode(context.Background(), "nobody@b.com")
	ce, ok := api.AsClientError(err)
	if !ok || ce.Message != "Email not found" {
		t.Fatalf("err = %v", err)
	}
	if f.Phase() != PhaseCollectingEmail {
		t.Errorf("phase = %v, failed request must not advance", f.Phase())
	}
}

func TestSubmitNewPassword_InvalidCodeKeepsPhase(t *testing.T) {
	gw := &fakeGateway{submitErr: &api.ClientError{
		Status:  http.StatusBadRequest,
		Message: "Invalid reset code",
	}}
	redirected := false
	f := NewFlow(gw, func() { redirected = true }, nil)
	if err := f.RequestCode(context.Background(), "a@b.com"); err != nil {
		t.Fatal(err)
	}

	err := f.SubmitNewPassword(context.Background(), "000000", "newpass1", "newpass1")
	if _, ok := api.AsClientError(err); !ok {
		t.Fatalf("err = %v, want ClientError", err)
	}
	if f.Phase() != PhaseAwaitingNewPassword {
		t.Errorf("phase = %v, want awaiting-new-password for retry", f.Phase())
	}
	if redirected {
		t.Error("failed submit must not schedule a redirect")
	}
}

func TestFlow_PhaseOrderingEnforced(t *testing.T) {
	gw := &fakeGateway{}
	f := NewFlow(gw, nil, nil)

	// Phase two before phase one.
	err := f.SubmitNewPassword(context.Background(), "123456", "p1", "p1")
	if !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("err = %v, want ErrWrongPhase", err)
	}

	if err := f.RequestCode(context.Background(), "a@b.com"); err != nil {
		t.Fatal(err)
	}
	// Phase one again once a code is out.
	if err := f.RequestCode(context.Background(), "other@b.com"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("err = %v, want ErrWrongPhase", err)
	}
	if f.Email() != "a@b.com" {
		t.Errorf("email = %q, must stay immutable in phase two", f.Email())
	}
}

func TestFlow_EmptyFieldsRejectedLocally(t *testing.T) {
	gw := &fakeGateway{}
	f := NewFlow(gw, nil, nil)

	if err := f.RequestCode(context.Background(), "  "); !errors.Is(err, ErrEmptyField) {
		t.Errorf("blank email: %v", err)
	}
	if err := f.RequestCode(context.Background(), "a@b.com"); err != nil {
		t.Fatal(err)
	}
	if err := f.SubmitNewPassword(context.Background(), "", "p1", "p1"); !errors.Is(err, ErrEmptyField) {
		t.Errorf("blank code: %v", err)
	}
	if err := f.SubmitNewPassword(context.Background(), "123456", "", ""); !errors.Is(err, ErrEmptyField) {
		t.Errorf("blank password: %v", err)
	}
	if gw.submitCalls != 0 {
		t.Errorf("local validation must not reach the network, calls = %d", gw.submitCalls)
	}
}
