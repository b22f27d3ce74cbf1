// foachat-stub - In-memory development backend for the foachat TUI.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jeranaias/foachat-tui/internal/devserver"
	"github.com/jeranaias/foachat-tui/internal/logging"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "listen address")
	secret := flag.String("secret", "", "JWT signing secret (random if empty)")
	flag.Parse()

	if *secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			fmt.Fprintln(os.Stderr, "foachat-stub:", err)
			os.Exit(1)
		}
		*secret = hex.EncodeToString(buf)
	}

	log, closeLog, err := logging.NewFileLogger("foachat-stub.log")
	if err != nil {
		fmt.Fprintln(os.Stderr, "foachat-stub:", err)
		os.Exit(1)
	}
	defer closeLog()

	srv := devserver.New(*secret, log)
	server := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info(context.Background(), "stub backend listening", "addr", *addr)
	fmt.Printf("foachat stub backend listening on http://%s\n", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintln(os.Stderr, "foachat-stub:", err)
		os.Exit(1)
	}
}
