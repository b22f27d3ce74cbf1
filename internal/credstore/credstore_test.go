// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "token"))

	if _, ok := store.Read(); ok {
		t.Fatal("empty store should read as absent")
	}

	if err := store.Save("T1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	token, ok := store.Read()
	if !ok || token != "T1" {
		t.Fatalf("Read = (%q, %v), want (T1, true)", token, ok)
	}

	// Overwrite keeps exactly one current token.
	if err := store.Save("T2"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	token, _ = store.Read()
	if token != "T2" {
		t.Errorf("Read after overwrite = %q, want T2", token)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := store.Read(); ok {
		t.Error("cleared store should read as absent")
	}

	// Clearing again is not an error.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestFileStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := NewFileStore(path)
	if err := store.Save("secret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file perm = %o, want 0600", info.Mode().Perm())
	}
}

func TestFileStore_FailsClosed(t *testing.T) {
	// A whitespace-only token file is treated as absent, not as a session.
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  \n"), 0600); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)
	if _, ok := store.Read(); ok {
		t.Error("blank token file should read as absent")
	}

	// An unreadable path likewise reads as absent rather than erroring.
	store = NewFileStore(filepath.Join(t.TempDir(), "missing", "token"))
	if _, ok := store.Read(); ok {
		t.Error("missing file should read as absent")
	}
}

func TestMemStore_FailReads(t *testing.T) {
	store := NewMemStore()
	if err := store.Save("T1"); err != nil {
		t.Fatal(err)
	}
	store.FailReads = true
	if _, ok := store.Read(); ok {
		t.Error("failing store must read as absent")
	}
}
