// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for foachat.
//
// Configuration is read from ~/.foachat/config.toml with sensible defaults
// and environment variable overrides. Missing files are not an error; the
// built-in defaults point the client at a local development server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete foachat client configuration.
type Config struct {
	// Server configuration
	Server ServerConfig `toml:"server"`

	// History configuration (recent-conversation sidebar)
	History HistoryConfig `toml:"history"`

	// Logging configuration
	Log LogConfig `toml:"log"`
}

// ServerConfig describes how to reach the backend API.
type ServerConfig struct {
	// URL is the base URL of the backend API, e.g. "http://localhost:5000/api".
	URL string `toml:"url"`
	// TimeoutSecs bounds every API request. Requests exceeding it are
	// reported as transport errors so the chat view never hangs.
	TimeoutSecs int `toml:"timeout_secs"`
}

// HistoryConfig controls local persistence of recent conversations.
type HistoryConfig struct {
	// Enabled toggles the sidebar history store.
	Enabled bool `toml:"enabled"`
	// Path is the sqlite database location (empty = ~/.foachat/history.db).
	Path string `toml:"path"`
	// MaxConversations limits retained conversations (0 = unlimited).
	MaxConversations int `toml:"max_conversations"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Path is the log file location (empty = ~/.foachat/foachat.log).
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULTS AND PATHS
// =============================================================================

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "http://localhost:5000/api",
			TimeoutSecs: 30,
		},
		History: HistoryConfig{
			Enabled:          true,
			MaxConversations: 50,
		},
	}
}

// Dir returns the foachat dotdir (~/.foachat), creating nothing.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".foachat"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath resolves the history database path, applying the default.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LogPath resolves the log file path, applying the default.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "foachat.log"), nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the default location, falling back to
// defaults when no file exists, then applies environment overrides and
// validates the result.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit path. A missing file is not
// an error: defaults are used.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies FOACHAT_* environment variables on top of the
// file-provided values. Environment wins over file, file wins over defaults.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FOACHAT_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("FOACHAT_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.TimeoutSecs = n
		}
	}
	if v := os.Getenv("FOACHAT_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("FOACHAT_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for values the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server url %q", c.Server.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url scheme must be http or https, got %q", u.Scheme)
	}
	if c.Server.TimeoutSecs <= 0 {
		return errors.New("server timeout must be positive")
	}
	if c.History.MaxConversations < 0 {
		return errors.New("history max_conversations must not be negative")
	}
	return nil
}
