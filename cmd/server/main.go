// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package main is the entry point for the Cinetaste server.
//
// Cinetaste builds taste profiles from a user's movie watch history and
// serves personalized, justified recommendations over a REST API.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 loading (defaults, YAML file, env)
//  2. Logging: zerolog, JSON or console format
//  3. Storage: BadgerDB profile store (in-memory when no path is set)
//  4. Providers: embedding, catalog, and justifier HTTP clients
//  5. Orchestrator: profile builder and recommendation service
//  6. HTTP server: Chi router with the versioned API and /metrics
//
// Shutdown on SIGINT/SIGTERM is graceful: the listener stops accepting
// connections, in-flight requests get the configured drain window, then
// the profile store is closed.
//
// # Example usage
//
//	export CINETASTE_EMBEDDING_API_KEY=sk-...
//	export CINETASTE_CATALOG_API_KEY=tmdb-...
//	export CINETASTE_JUSTIFY_API_KEY=sk-...
//	export CINETASTE_STORAGE_PATH=/data/cinetaste/profiles
//	./cinetaste
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinetaste/cinetaste/internal/api"
	"github.com/cinetaste/cinetaste/internal/cache"
	"github.com/cinetaste/cinetaste/internal/catalog"
	"github.com/cinetaste/cinetaste/internal/config"
	"github.com/cinetaste/cinetaste/internal/embedding"
	"github.com/cinetaste/cinetaste/internal/justify"
	"github.com/cinetaste/cinetaste/internal/logging"
	"github.com/cinetaste/cinetaste/internal/profile"
	"github.com/cinetaste/cinetaste/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config not available yet, use the default logger.
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(cfg.Logging)
	logging.Info().
		Str("storage_path", cfg.Storage.Path).
		Str("catalog_url", cfg.Catalog.BaseURL).
		Str("embedding_model", cfg.Embedding.Model).
		Msg("configuration loaded")

	logger := logging.Logger()

	store, err := storage.Open(cfg.Storage.Path, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open profile store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing profile store")
		}
	}()
	if cfg.Storage.Path == "" {
		logging.Warn().Msg("no storage path configured, profiles will not survive restarts")
	}

	embedCache := cache.New(cfg.Embedding.CacheTTL, 10*time.Minute)
	defer embedCache.Close()
	catalogCache := cache.New(cfg.Catalog.CacheTTL, 10*time.Minute)
	defer catalogCache.Close()

	embedder := embedding.NewClient(cfg.Embedding, embedCache, logger)
	catalogClient := catalog.NewClient(cfg.Catalog, catalogCache, logger)
	justifier := justify.NewClient(cfg.Justify, logger)

	builder := profile.NewBuilder(cfg.Builder, &cfg.Taste, embedder, logger)
	service := profile.NewService(builder, store, catalogClient, embedder, justifier, &cfg.Taste, logger)

	router := api.NewRouter(cfg.API, service, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server failed")
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown incomplete, closing")
		_ = server.Close()
	}

	logging.Info().Msg("server stopped gracefully")
}
