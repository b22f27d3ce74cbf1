// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.URL != "http://localhost:5000/api" {
		t.Errorf("default url = %q", cfg.Server.URL)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", cfg.Timeout())
	}
	if !cfg.History.Enabled {
		t.Error("history should default to enabled")
	}
}

func TestLoadFrom_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
url = "https://chat.example.com/api"
timeout_secs = 5

[history]
enabled = false
max_conversations = 10
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.URL != "https://chat.example.com/api" {
		t.Errorf("url = %q", cfg.Server.URL)
	}
	if cfg.Server.TimeoutSecs != 5 {
		t.Errorf("timeout_secs = %d, want 5", cfg.Server.TimeoutSecs)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled")
	}
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nurl = \"http://file.example/api\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FOACHAT_SERVER_URL", "http://env.example/api")
	t.Setenv("FOACHAT_TIMEOUT_SECS", "7")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.URL != "http://env.example/api" {
		t.Errorf("env override lost: url = %q", cfg.Server.URL)
	}
	if cfg.Server.TimeoutSecs != 7 {
		t.Errorf("env override lost: timeout = %d", cfg.Server.TimeoutSecs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty url", func(c *Config) { c.Server.URL = "" }, true},
		{"bad scheme", func(c *Config) { c.Server.URL = "ftp://x.example" }, true},
		{"zero timeout", func(c *Config) { c.Server.TimeoutSecs = 0 }, true},
		{"negative history cap", func(c *Config) { c.History.MaxConversations = -1 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
