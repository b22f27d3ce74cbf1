// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

type ctxKey int

const accountKey ctxKey = iota

// accountFrom returns the account the auth middleware attached. Only valid
// inside the protected route group.
func accountFrom(r *http.Request) *account {
	return r.Context().Value(accountKey).(*account)
}

// requireAuth validates the bearer token and resolves its account.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, msgBadToken)
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, msgBadToken)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(w, http.StatusUnauthorized, msgBadToken)
			return
		}
		email, _ := claims["email"].(string)

		s.mu.Lock()
		acct, ok := s.byEmail[strings.ToLower(email)]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, msgBadToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, acct)))
	})
}

// rateLimit caps the whole stub at a generous request rate. It exists to
// mimic the production API's throttling shape, not to defend anything.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(50), 100)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
