// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Every gateway failure is classified into exactly one of three kinds so
// call sites can handle each case explicitly instead of string-matching:
//
//   - *ClientError: the backend rejected the request (4xx): validation,
//     duplicate account, bad credentials, expired reset code.
//   - ErrAuth: the bearer token was rejected on a protected operation.
//     Observing it anywhere must force the session to unauthenticated.
//   - *TransportError: the call never produced a usable response: network
//     unreachable, timeout, oversized or malformed body.
//
// The gateway never retries; whether a retry is safe depends on the
// operation (re-posting a signup is not), so that decision stays with the
// caller.

// ErrAuth indicates the session token was rejected by the backend.
var ErrAuth = errors.New("authentication rejected")

// StatusCategory groups 4xx responses for display decisions.
type StatusCategory string

const (
	CategoryValidation     StatusCategory = "validation"
	CategoryBadCredentials StatusCategory = "bad_credentials"
	CategoryNotFound       StatusCategory = "not_found"
	CategoryOther          StatusCategory = "other"
)

// ClientError is a request the backend understood and rejected.
type ClientError struct {
	Status  int
	Message string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("backend rejected request (HTTP %d): %s", e.Status, e.Message)
}

// Category maps the HTTP status onto a coarse display category.
func (e *ClientError) Category() StatusCategory {
	switch e.Status {
	case http.StatusBadRequest:
		return CategoryValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return CategoryBadCredentials
	case http.StatusNotFound:
		return CategoryNotFound
	default:
		return CategoryOther
	}
}

// TransportError is a call that never completed: connection failure,
// timeout, or a response the client could not parse.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is (or wraps) a token rejection.
func IsAuthError(err error) bool { return errors.Is(err, ErrAuth) }

// AsClientError unwraps a *ClientError if present.
func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsTransportError reports whether err is (or wraps) a transport failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
