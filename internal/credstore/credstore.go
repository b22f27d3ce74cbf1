// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credstore persists the session token across client restarts.
//
// The store is a deliberately dumb key-value boundary: it performs no
// validation of token shape or expiry. Exactly one token is current at a
// time; saving overwrites, clearing removes. Read failures are reported as
// "absent" so a broken store forces re-authentication rather than letting
// the client proceed with a token it cannot verify (fail closed).
package credstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/foachat-tui/internal/util"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the persistence boundary for the session token.
type Store interface {
	// Save persists a token durably, overwriting any prior value.
	Save(token string) error
	// Read returns the current token. ok is false when no token is stored
	// or the store cannot be read.
	Read() (token string, ok bool)
	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear() error
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps the token in a single file with owner-only permissions.
// Writes are atomic so a crash never leaves a partially written token.
type FileStore struct {
	path string
}

// NewFileStore creates a store rooted at the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the conventional token location under the dotdir.
func DefaultPath(dotdir string) string {
	return filepath.Join(dotdir, "token")
}

// Save writes the token with restricted permissions (0600).
func (f *FileStore) Save(token string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	return util.AtomicWriteFile(f.path, []byte(token), 0600)
}

// Read returns the stored token. Any read failure, including a missing or
// unreadable file, is reported as absent.
func (f *FileStore) Read() (string, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false
	}
	return token, true
}

// Clear removes the token file.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// =============================================================================
// IN-MEMORY STORE
// =============================================================================

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu    sync.Mutex
	token string
	set   bool

	// FailReads simulates an unavailable persistence layer.
	FailReads bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.set = true
	return nil
}

func (m *MemStore) Read() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads || !m.set || m.token == "" {
		return "", false
	}
	return m.token, true
}

func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.set = false
	return nil
}
