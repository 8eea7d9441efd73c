// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/claviger/internal/decision"
	"github.com/tomtom215/claviger/internal/logging"
)

// ReadinessFunc reports per-backend reachability for the readiness
// probe. Unconfigured backends are absent from the map.
type ReadinessFunc func(ctx context.Context) map[string]bool

// Handler serves the decision and probe endpoints.
type Handler struct {
	pipeline  *decision.Pipeline
	readiness ReadinessFunc
	startTime time.Time
}

// NewHandler creates a handler over the decision pipeline. readiness
// may be nil when no backend probes are wanted.
func NewHandler(pipeline *decision.Pipeline, readiness ReadinessFunc) *Handler {
	return &Handler{
		pipeline:  pipeline,
		readiness: readiness,
		startTime: time.Now(),
	}
}

// Decide answers a plain auth subrequest: 200 to let the proxy serve
// the resource, 403 to refuse it.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

// DecideWithQuota answers an auth subrequest with the per-user quota
// step enabled. A quota denial carries the X-Redirect-Url hint so the
// proxy can send the user to an explanatory page.
func (h *Handler) DecideWithQuota(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// decide runs the pipeline and translates the verdict into a bare
// status. Decision responses never carry a body: the proxy consumes
// only the status and the optional redirect header, and error detail
// belongs in the logs, not on the wire.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, withQuota bool) {
	sel := decision.Selection{
		Matcher:           chi.URLParam(r, "matcher"),
		ClientExtractor:   chi.URLParam(r, "clientExtractor"),
		ResourceExtractor: chi.URLParam(r, "resourceExtractor"),
	}

	verdict, err := h.pipeline.Decide(r.Context(), r, sel, withQuota)
	if err != nil {
		logging.CtxError(r.Context()).Err(err).
			Str("matcher", sel.Matcher).
			Str("client_extractor", sel.ClientExtractor).
			Str("resource_extractor", sel.ResourceExtractor).
			Msg("Decision failed on infrastructure error")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if verdict.Allow {
		w.WriteHeader(http.StatusOK)
		return
	}

	if verdict.RedirectURL != "" {
		w.Header().Set("X-Redirect-Url", verdict.RedirectURL)
	}
	w.WriteHeader(http.StatusForbidden)
}
