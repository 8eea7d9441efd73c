// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production.
//
// # Redis Stack Container
//
// The RedisStackContainer provides a real Redis instance with the RedisBloom
// module loaded, which the quota checker's Lua script requires:
//
//	func TestQuotaWindow(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    store, err := testinfra.NewRedisStackContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer store.Terminate(ctx)
//
//	    checker, err := quota.NewRedis(&config.RedisConfig{
//	        URL:        store.URL,
//	        QuotaLimit: 3,
//	        WindowDays: 1,
//	    })
//	    // Exercise the real atomic script
//	}
//
// # Benefits Over Mocks
//
// The quota script runs server-side and depends on module commands
// (BF.EXISTS, BF.ADD) that a stub cannot reproduce faithfully. Running it
// against a real store validates the actual contract: atomicity, TTL
// alignment, and the repeat-access guarantee.
//
// # CI Considerations
//
// These tests require Docker and network access; they carry the
// integration build tag and skip gracefully when Docker is unavailable.
// First run may need to download container images. Subsequent runs use
// cached images.
package testinfra
