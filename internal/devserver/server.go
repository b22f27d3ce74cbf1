// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver is a self-contained stand-in for the foachat backend.
//
// It implements the same HTTP contract the client consumes (signup, login,
// password reset, profile, chat answers, OAuth exchange) entirely in memory,
// so the TUI can be developed and integration-tested without the real
// service. Behavior mirrors the production API's observable semantics: same
// paths, same status codes, same error strings.
package devserver

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/foachat-tui/internal/logging"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	tokenLifetime = 24 * time.Hour

	msgDuplicateAccount = "Username or email already exists"
	msgBadCredentials   = "Invalid email or password"
	msgEmailNotFound    = "Email not found"
	msgBadResetCode     = "Invalid reset code"
	msgBadCurrent       = "Current password is incorrect"
	msgBadToken         = "Token is invalid or expired"
)

// =============================================================================
// STATE
// =============================================================================

type account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
}

// Server holds the in-memory account and reset-code state.
type Server struct {
	secret []byte
	log    logging.Logger

	mu         sync.Mutex
	byEmail    map[string]*account
	byUsername map[string]string // username -> email
	resetCodes map[string]string // email -> code
}

// New creates an empty stub backend signing tokens with secret.
func New(secret string, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		secret:     []byte(secret),
		log:        log,
		byEmail:    make(map[string]*account),
		byUsername: make(map[string]string),
		resetCodes: make(map[string]string),
	}
}

// Router builds the HTTP surface. Routes live under /api, matching the
// production service and the client's default base URL.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimit)

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/request-reset", s.handleRequestReset)
		r.Post("/reset-password", s.handleResetPassword)
		r.Post("/chat/response", s.handleChat)
		r.Post("/oauth/{provider}", s.handleOAuth)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/profile", s.handleProfile)
			r.Post("/change-password", s.handleChangePassword)
			r.Post("/logout", s.handleLogout)
		})
	})
	return r
}

// PeekResetCode exposes the pending code for an email. Test hook; the real
// backend delivers codes by mail.
func (s *Server) PeekResetCode(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.resetCodes[strings.ToLower(email)]
	return code, ok
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	email := strings.ToLower(in.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not create account")
		return
	}

	s.mu.Lock()
	_, emailTaken := s.byEmail[email]
	_, nameTaken := s.byUsername[in.Username]
	if emailTaken || nameTaken {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, msgDuplicateAccount)
		return
	}
	s.byEmail[email] = &account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        email,
		PasswordHash: hash,
	}
	s.byUsername[in.Username] = email
	s.mu.Unlock()

	s.log.Info(r.Context(), "account created", "username", in.Username)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	acct, ok := s.byEmail[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(in.Password)) != nil {
		writeError(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}

	token, err := s.issueToken(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userPayload(acct),
	})
}

func (s *Server) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &in) {
		return
	}
	email := strings.ToLower(in.Email)

	s.mu.Lock()
	_, ok := s.byEmail[email]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, msgEmailNotFound)
		return
	}
	code := sixDigitCode()
	s.resetCodes[email] = code
	s.mu.Unlock()

	s.log.Info(r.Context(), "reset code issued", "email", email)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reset code sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email       string `json:"email"`
		ResetCode   string `json:"resetCode"`
		NewPassword string `json:"newPassword"`
	}
	if !decode(w, r, &in) {
		return
	}
	email := strings.ToLower(in.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.resetCodes[email]
	if !ok || code != in.ResetCode {
		writeError(w, http.StatusBadRequest, msgBadResetCode)
		return
	}
	acct := s.byEmail[email]
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not reset password")
		return
	}
	acct.PasswordHash = hash
	delete(s.resetCodes, email)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)
	var in struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decode(w, r, &in) {
		return
	}
	if bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(in.CurrentPassword)) != nil {
		writeError(w, http.StatusUnauthorized, msgBadCurrent)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not change password")
		return
	}
	s.mu.Lock()
	acct.PasswordHash = hash
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userPayload(accountFrom(r)))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; logout is an acknowledgment.
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Question string `json:"question"`
	}
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}
	answer := fmt.Sprintf("You asked: %q. This is the development backend; answers are canned.", in.Question)
	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

// handleOAuth accepts any non-empty code and mints a session for a synthetic
// provider account, which is enough to exercise the client's exchange path.
func (s *Server) handleOAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	var in struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Code == "" {
		writeError(w, http.StatusBadRequest, "Authorization code is required")
		return
	}

	email := strings.ToLower(provider + "-user@example.com")
	s.mu.Lock()
	acct, ok := s.byEmail[email]
	if !ok {
		acct = &account{
			ID:       uuid.NewString(),
			Username: provider + "-user",
			Email:    email,
		}
		s.byEmail[email] = acct
		s.byUsername[acct.Username] = email
	}
	s.mu.Unlock()

	token, err := s.issueToken(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userPayload(acct),
	})
}

// =============================================================================
// TOKENS AND HELPERS
// =============================================================================

func (s *Server) issueToken(acct *account) (string, error) {
	claims := jwt.MapClaims{
		"sub":   acct.ID,
		"email": acct.Email,
		"exp":   time.Now().Add(tokenLifetime).Unix(),
		"iat":   time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func userPayload(acct *account) map[string]string {
	return map[string]string{
		"id":       acct.ID,
		"username": acct.Username,
		"email":    acct.Email,
	}
}

func sixDigitCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing is unrecoverable for a dev tool.
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
