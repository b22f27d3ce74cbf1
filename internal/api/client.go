// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the request gateway to the foachat backend.
//
// One method per backend capability; each constructs the request, attaches
// the current session token as a bearer credential for protected operations,
// and classifies the outcome (see errors.go). The chat-answer endpoint is
// intentionally unauthenticated in the observed backend; the gateway
// reproduces that but still surfaces an auth rejection should the backend
// ever start enforcing a token there.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/foachat-tui/internal/credstore"
	"github.com/jeranaias/foachat-tui/internal/logging"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout bounds every request when the caller does not configure one.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 1 * 1024 * 1024 // 1MB

	userAgent = "foachat/0.1.0"

	// genericErrorMessage is used when a non-2xx response carries no
	// parseable {error} field. The caller must never crash on that.
	genericErrorMessage = "request failed"
)

// =============================================================================
// PAYLOAD TYPES
// =============================================================================

// User is the backend's identity record.
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthPayload is returned by login, signup, and OAuth exchange.
// Signup responses may omit the token (account created, login required).
type AuthPayload struct {
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// TokenSource supplies the current bearer token for protected operations.
// credstore.Store satisfies it; tests substitute fakes.
type TokenSource interface {
	Read() (string, bool)
}

var _ TokenSource = (credstore.Store)(nil)

// Client talks to the foachat backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        logging.Logger
}

// NewClient creates a gateway rooted at baseURL, reading bearer tokens
// from the given source.
//
// PERFORMANCE: a pooled transport is shared across all requests.
func NewClient(baseURL string, tokens TokenSource, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		tokens: tokens,
		log:    log,
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// WithHTTPClient substitutes the underlying HTTP client (tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Signup creates a new account. The backend responds with an ack (and, in
// newer deployments, a token); the client routes to login either way.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*AuthPayload, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var out AuthPayload
	if err := c.do(ctx, http.MethodPost, "/signup", body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token and identity.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthPayload
	if err := c.do(ctx, http.MethodPost, "/login", body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestReset asks the backend to email a reset code.
func (c *Client) RequestReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/request-reset", map[string]string{"email": email}, false, nil)
}

// SubmitReset redeems a reset code for a new password.
func (c *Client) SubmitReset(ctx context.Context, email, code, newPassword string) error {
	body := map[string]string{"email": email, "resetCode": code, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/reset-password", body, false, nil)
}

// ChangePassword updates the authenticated account's password. Protected.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return c.do(ctx, http.MethodPost, "/change-password", body, true, nil)
}

// FetchProfile retrieves the identity bound to the current token. Protected.
func (c *Client) FetchProfile(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/profile", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout notifies the backend that the session ended. The caller passes the
// token it snapshotted before clearing it locally, so the notification still
// carries a credential after the session state is gone. Best effort.
func (c *Client) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: no session token", ErrAuth)
	}
	return c.send(ctx, http.MethodPost, "/logout", nil, token, true, nil)
}

// ChatAnswer submits a question and returns the assistant's answer.
// Unauthenticated by design in the observed backend.
func (c *Client) ChatAnswer(ctx context.Context, question string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	body := map[string]string{"question": question}
	if err := c.do(ctx, http.MethodPost, "/chat/response", body, false, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// ExchangeOAuth exchanges a provider authorization code for a token.
func (c *Client) ExchangeOAuth(ctx context.Context, provider, code string) (*AuthPayload, error) {
	body := map[string]string{"code": code}
	var out AuthPayload
	if err := c.do(ctx, http.MethodPost, "/oauth/"+provider, body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do runs one request and classifies the outcome. protected controls both
// bearer attachment and whether a 401 counts as a session-token rejection:
// a 401 from login is bad credentials (ClientError), a 401 from a protected
// call is an expired or revoked session (ErrAuth).
func (c *Client) do(ctx context.Context, method, path string, body any, protected bool, out any) error {
	token := ""
	if protected {
		t, ok := c.tokens.Read()
		if !ok {
			// No token on a protected call is an auth failure before the
			// wire: the session must re-authenticate.
			return fmt.Errorf("%w: no session token", ErrAuth)
		}
		token = t
	}
	return c.send(ctx, method, path, body, token, protected, out)
}

// send runs one request with an explicit bearer token (empty for public
// operations) and classifies the outcome.
func (c *Client) send(ctx context.Context, method, path string, body any, token string, protected bool, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "op", op, "err", err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := readLimited(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	c.log.Debug(ctx, "request complete", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(op, resp.StatusCode, respBody, protected)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
		}
	}
	return nil
}

// classify converts a non-2xx response into exactly one error kind.
func (c *Client) classify(op string, status int, body []byte, protected bool) error {
	message := genericErrorMessage
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		message = eb.Error
	}

	if status == http.StatusUnauthorized && protected {
		return fmt.Errorf("%w: %s", ErrAuth, message)
	}
	if status >= 400 && status < 500 {
		return &ClientError{Status: status, Message: message}
	}
	return &TransportError{Op: op, Err: fmt.Errorf("server error (HTTP %d): %s", status, message)}
}

// readLimited reads the response body with a size cap.
// SECURITY: prevents memory exhaustion from a misbehaving server.
func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
