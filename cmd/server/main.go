// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Command server runs the content-authorization sidecar. It sits behind
// a reverse proxy answering auth subrequests with bare 200/403 verdicts.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/claviger/internal/api"
	"github.com/tomtom215/claviger/internal/config"
	"github.com/tomtom215/claviger/internal/decision"
	"github.com/tomtom215/claviger/internal/logging"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	logging.Info().
		Bool("static_secret", cfg.StaticSecretExtractorEnabled()).
		Bool("manifest_secret", cfg.ManifestExtractorEnabled()).
		Bool("cookie_extractors", cfg.CookieExtractorsEnabled()).
		Bool("solr", cfg.Solr.Enabled()).
		Bool("quota", cfg.QuotaMatcherEnabled()).
		Msg("Starting Claviger")

	// Wire the decision pipeline: every strategy with satisfied
	// prerequisites comes up live, everything else as its null variant.
	components, err := decision.Build(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build decision pipeline")
	}
	defer components.Close()

	readiness := func(ctx context.Context) map[string]bool {
		return components.Readiness(ctx, cfg.Solr.ContentItemCollection)
	}
	handler := api.NewHandler(components.Pipeline, readiness)

	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Probe.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type"},
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Probe.RateLimitRequests,
		RateLimitWindow:    time.Minute,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(handler, mw).Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	// Drain in-flight decisions before closing the backend clients.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown was not clean")
	}

	logging.Info().Msg("Application stopped gracefully")
}
