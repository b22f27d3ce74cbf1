// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the chat transcript for one chat view.
//
// The transcript is append-only with a single writer. At most one turn is in
// flight at a time: Submit rejects input while a response is pending rather
// than queueing it, which rules out response reordering without any sequence
// matching. Every accepted submission resolves to exactly one assistant
// message, either the backend's answer or a fixed fallback notice, so the
// transcript never hangs mid-turn and never drops a user turn unanswered.
//
// A Manager lives exactly as long as its chat view. Navigating away discards
// it; a response that arrives after discard is ignored via the turn token.
package conversation

import (
	"errors"
	"strings"
	"sync"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// Greeting seeds every new conversation.
	Greeting = "Hello! I'm your FOA Chat AI assistant. How can I help you today?"

	// FallbackNotice stands in for the assistant's answer when the request
	// fails for any reason.
	FallbackNotice = "Sorry, I encountered an error processing your request. Please try again."
)

var (
	// ErrEmptyInput rejects blank submissions.
	ErrEmptyInput = errors.New("message is empty")

	// ErrBusy rejects a submission while a prior turn is still in flight.
	ErrBusy = errors.New("a response is already pending")
)

// =============================================================================
// MANAGER
// =============================================================================

// Turn identifies one accepted submission. Resolve calls carrying a stale
// turn, from a request that outlived its view or was superseded, are dropped.
type Turn uint64

// Manager owns the message sequence and the in-flight flag.
type Manager struct {
	mu       sync.Mutex
	messages []Message
	awaiting bool
	turn     Turn
	closed   bool
}

// NewManager creates a transcript seeded with the assistant greeting.
func NewManager() *Manager {
	return &Manager{
		messages: []Message{NewAssistantMessage(Greeting)},
	}
}

// Messages returns a copy of the transcript in append order.
func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// AwaitingResponse reports whether a turn is in flight.
func (m *Manager) AwaitingResponse() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awaiting
}

// Submit accepts a user message for sending. The user turn is appended
// before any network activity so it is always visible immediately. The
// returned Turn must be passed to Resolve when the answer (or failure)
// arrives.
func (m *Manager) Submit(text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrBusy
	}
	if m.awaiting {
		return 0, ErrBusy
	}
	m.messages = append(m.messages, NewUserMessage(text))
	m.awaiting = true
	m.turn++
	return m.turn, nil
}

// Resolve completes a turn with the assistant's answer. A failed request
// passes ok=false and the fallback notice is appended instead; either way
// exactly one assistant message pairs with the submission. Stale turns are
// ignored.
func (m *Manager) Resolve(turn Turn, answer string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || turn != m.turn || !m.awaiting {
		return
	}
	if !ok {
		answer = FallbackNotice
	}
	m.messages = append(m.messages, NewAssistantMessage(answer))
	m.awaiting = false
}

// Close discards the transcript. Any response still in flight resolves
// against a closed manager and is dropped.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.awaiting = false
}
