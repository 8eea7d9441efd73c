// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package api provides the HTTP surface of the sidecar: the decision
// routes the reverse proxy calls on every protected request, plus the
// health and metrics probes.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/claviger/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can be used with r.Use / r.With.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router assembles the HTTP surface from the decision handler and the
// middleware factories.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
}

// NewRouter creates a router serving the given handler with the given
// middleware configuration.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, mw: mw}
}

// Setup configures all routes.
//
// The probe routes get CORS and rate limiting; the decision routes get
// neither, because their only client is the fronting proxy, which must
// never be turned away while it is asking for verdicts.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order.
	r.Use(middleware.RequestID())  // Reuse or stamp X-Request-ID with logging context
	r.Use(chimiddleware.RealIP)    // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer) // Recover from panics

	// Probe endpoints: liveness, readiness, metrics.
	r.Group(func(r chi.Router) {
		r.Use(router.mw.CORS())
		r.Use(router.mw.RateLimitByRealIP())

		r.Get("/health", router.handler.Health)
		r.Get("/health/live", router.handler.HealthLive)
		r.Get("/health/ready", router.handler.HealthReady)
		r.Handle("/metrics", promhttp.Handler())
	})

	// Decision endpoints. The proxy mirrors the original method on its
	// auth subrequest, so every method is accepted.
	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.HandleFunc("/{matcher}/{clientExtractor}/{resourceExtractor}", router.handler.Decide)
		r.HandleFunc("/{matcher}/{clientExtractor}/{resourceExtractor}/with-quota-check", router.handler.DecideWithQuota)
	})

	return r
}
