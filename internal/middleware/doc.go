// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

/*
Package middleware provides HTTP middleware for the sidecar's request
processing: request ID tracking for distributed tracing and Prometheus
instrumentation of the decision surface.

Both middlewares use the http.HandlerFunc chaining shape and are adapted
into chi's middleware signature at the router.
*/
package middleware
