// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tomtom215/claviger/internal/logging"
)

// RequestID returns a middleware that threads a request ID through the
// decision. The fronting proxy usually stamps its own X-Request-ID on
// the auth subrequest; that ID is reused so a verdict can be correlated
// with the proxied request it decided. Requests arriving without one
// get a fresh UUID.
//
// The ID is reflected on the response header and installed in the
// logging context together with a new correlation ID, so every log line
// of the decision carries both.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithNewCorrelationID(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the request ID installed by RequestID, or the
// empty string outside of it.
func GetRequestID(ctx context.Context) string {
	return logging.RequestIDFromContext(ctx)
}
