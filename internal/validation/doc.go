// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance with human-readable error messages. It is used by
// the config package to validate the loaded configuration before the server
// starts, so a misconfigured deployment fails fast with a clear message instead
// of denying every request at runtime.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Error translation to human-readable messages
//   - Built-in validator support (url, oneof, min, max, etc.)
//   - Future v11 compatibility with WithRequiredStructEnabled
//
// # Quick Start
//
//	type ServerConfig struct {
//	    Addr            string        `validate:"required"`
//	    ShutdownTimeout time.Duration
//	}
//
//	func (c *Config) Validate() error {
//	    if verr := validation.ValidateStruct(c); verr != nil {
//	        return fmt.Errorf("configuration validation failed: %w", verr)
//	    }
//	    return nil
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: Field must not be empty
//   - min=n: Minimum length n characters
//   - max=n: Maximum length n characters
//   - url: Valid URL format
//   - oneof=a b c: Must be one of the specified values
//
// Numeric validations:
//   - gte=n: Greater than or equal to n
//   - lte=n: Less than or equal to n
//   - gt=n: Greater than n
//   - lt=n: Less than n
//   - min=n: Minimum value n
//   - max=n: Maximum value n
//
// # Error Types
//
// ValidationError represents a single field validation failure:
//
//	type ValidationError struct {
//	    Field()   string      // Struct field name
//	    Tag()     string      // Validation tag that failed
//	    Param()   string      // Tag parameter (e.g., "1" for min=1)
//	    Value()   interface{} // Actual value that failed
//	    Error()   string      // Human-readable message
//	}
//
// StructValidationError aggregates multiple field errors:
//
//	type StructValidationError struct {
//	    Errors() []ValidationError
//	    Error()  string           // Combined message, "; " separated
//	}
//
// # Error Message Translation
//
// Human-readable messages are generated for common validation tags:
//
//	required   -> "Addr is required"
//	url        -> "BaseURL must be a valid URL"
//	min=1      -> "QuotaLimit must be at least 1"
//	max=100    -> "WindowDays must be at most 100"
//	gte=1      -> "RateLimitRequests must be greater than or equal to 1"
//	oneof=a b  -> "LogFormat must be one of: a b"
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()  // Thread-safe
//	err := validation.ValidateStruct(&cfg) // Thread-safe
//
// # Performance
//
// The validator caches struct reflection information:
//   - First validation of a struct type: ~1ms (reflection + caching)
//   - Subsequent validations: ~10us (cached)
//   - Memory: ~500 bytes per cached struct type
//
// # See Also
//
//   - internal/config: Configuration structs validated at startup
//   - github.com/go-playground/validator/v10: Underlying library
package validation
