// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/claviger/internal/logging"
)

// healthStatus is the /health and /health/ready payload. The proxy's
// upstream check reads only the status field; the rest is for humans
// and monitoring.
type healthStatus struct {
	Status   string          `json:"status"`
	Uptime   float64         `json:"uptime,omitempty"`
	Backends map[string]bool `json:"backends,omitempty"`
}

// Health handles liveness checks from the fronting proxy. It reports ok
// whenever the process can answer at all: a sidecar with an unreachable
// backend still decides (it denies or fails open), so backend state
// belongs to readiness, not liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthStatus{Status: "ok"})
}

// HealthLive handles Kubernetes-style liveness probes.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthStatus{
		Status: "ok",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probes. It reports degraded with a 503
// when a configured backend is unreachable, so an orchestrator can hold
// traffic while the index or the quota store recovers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	payload := healthStatus{
		Status: "ok",
		Uptime: time.Since(h.startTime).Seconds(),
	}
	status := http.StatusOK

	if h.readiness != nil {
		payload.Backends = h.readiness(r.Context())
		for _, up := range payload.Backends {
			if !up {
				payload.Status = "degraded"
				status = http.StatusServiceUnavailable
				break
			}
		}
	}

	respondJSON(w, status, payload)
}

// respondJSON writes a JSON payload with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}
