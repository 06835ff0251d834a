// Package main is the entry point for the SocialSync server.
//
// main stays minimal:
//  1. load configuration (environment, optional .env)
//  2. build the logger
//  3. hand both to the server, which blocks until SIGINT/SIGTERM
//
// All actual logic lives in internal/.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/social-sync/internal/config"
	"github.com/sakif/social-sync/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if cfg.InsecureSecret {
		logger.Warn("SESSION_SECRET not set, using the built-in development secret; sessions can be forged")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
