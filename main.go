// foachat TUI - A terminal client for the FOA Chat assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/foachat-tui/internal/api"
	"github.com/jeranaias/foachat-tui/internal/config"
	"github.com/jeranaias/foachat-tui/internal/credstore"
	"github.com/jeranaias/foachat-tui/internal/history"
	"github.com/jeranaias/foachat-tui/internal/logging"
	"github.com/jeranaias/foachat-tui/internal/session"
	"github.com/jeranaias/foachat-tui/internal/ui/styles"
	"github.com/jeranaias/foachat-tui/internal/ui/views"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "foachat:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dotdir, err := config.Dir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(dotdir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	ctx := context.Background()

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	log, closeLog, err := logging.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()
	log.Info(ctx, "starting", "version", Version, "commit", GitCommit)

	store := credstore.NewFileStore(credstore.DefaultPath(dotdir))
	client := api.NewClient(cfg.Server.URL, store, log).
		WithTimeout(cfg.Timeout())
	ctrl := session.NewController(client, store, log)

	var archive *history.Store
	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			return err
		}
		archive, err = history.Open(path)
		if err != nil {
			// History is a convenience; run without it.
			log.Warn(ctx, "history unavailable", "err", err)
		} else {
			defer archive.Close()
		}
	}

	root := views.NewRoot(views.Deps{
		Cfg:     cfg,
		Theme:   styles.NewTheme(),
		Client:  client,
		Session: ctrl,
		History: archive,
		Log:     log,
	})

	program := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
