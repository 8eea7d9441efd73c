// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package validation

import (
	"strings"
	"testing"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	// Test that GetValidator returns the same instance
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}

	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// ===================================================================================================
// ValidateStruct Tests
// ===================================================================================================

// TestStruct mirrors the shape of the configuration structs this package validates.
type TestStruct struct {
	Addr       string `validate:"required"`
	LogFormat  string `validate:"omitempty,oneof=json console"`
	QuotaLimit int64  `validate:"min=1,max=100000000"`
	WindowDays int    `validate:"min=1,max=3650"`
	Enabled    bool
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input TestStruct
	}{
		{
			name: "all valid fields",
			input: TestStruct{
				Addr:       ":8000",
				LogFormat:  "json",
				QuotaLimit: 200000,
				WindowDays: 30,
			},
		},
		{
			name: "minimum values",
			input: TestStruct{
				Addr:       ":1",
				LogFormat:  "",
				QuotaLimit: 1,
				WindowDays: 1,
			},
		},
		{
			name: "maximum values",
			input: TestStruct{
				Addr:       "0.0.0.0:65535",
				LogFormat:  "console",
				QuotaLimit: 100000000,
				WindowDays: 3650,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     TestStruct
		wantField string
		wantTag   string
	}{
		{
			name: "missing required addr",
			input: TestStruct{
				Addr:       "",
				QuotaLimit: 100,
				WindowDays: 30,
			},
			wantField: "Addr",
			wantTag:   "required",
		},
		{
			name: "quota limit too low",
			input: TestStruct{
				Addr:       ":8000",
				QuotaLimit: 0,
				WindowDays: 30,
			},
			wantField: "QuotaLimit",
			wantTag:   "min",
		},
		{
			name: "quota limit too high",
			input: TestStruct{
				Addr:       ":8000",
				QuotaLimit: 200000000,
				WindowDays: 30,
			},
			wantField: "QuotaLimit",
			wantTag:   "max",
		},
		{
			name: "window days negative",
			input: TestStruct{
				Addr:       ":8000",
				QuotaLimit: 100,
				WindowDays: -1,
			},
			wantField: "WindowDays",
			wantTag:   "min",
		},
		{
			name: "invalid log format",
			input: TestStruct{
				Addr:       ":8000",
				LogFormat:  "xml",
				QuotaLimit: 100,
				WindowDays: 30,
			},
			wantField: "LogFormat",
			wantTag:   "oneof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			errs := err.Errors()
			if len(errs) == 0 {
				t.Fatal("StructValidationError should contain at least one error")
			}

			found := false
			for _, e := range errs {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					found = true
					break
				}
			}

			if !found {
				t.Errorf("Expected error on field %s with tag %s, got: %v", tt.wantField, tt.wantTag, errs)
			}
		})
	}
}

// ===================================================================================================
// Oneof Validation Tests
// ===================================================================================================

type LogLevelStruct struct {
	Level string `validate:"omitempty,oneof=trace debug info warn error fatal"`
}

func TestOneofValidation_Valid(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"empty", ""},
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"fatal", "fatal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := LogLevelStruct{Level: tt.level}
			err := ValidateStruct(&input)
			if err != nil {
				t.Errorf("ValidateStruct() returned unexpected error for level %q: %v", tt.level, err)
			}
		})
	}
}

func TestOneofValidation_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"invalid level", "verbose"},
		{"partial match", "infox"},
		{"case sensitive", "Info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := LogLevelStruct{Level: tt.level}
			err := ValidateStruct(&input)
			if err == nil {
				t.Errorf("ValidateStruct() should have returned error for level %q", tt.level)
			}
		})
	}
}

// ===================================================================================================
// URL Validation Tests
// ===================================================================================================

type URLStruct struct {
	BaseURL string `validate:"omitempty,url"`
}

func TestURLValidation_Valid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"http", "http://solr:8983/solr"},
		{"https", "https://solr.example.com/solr"},
		{"with port", "http://localhost:8983"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := URLStruct{BaseURL: tt.url}
			err := ValidateStruct(&input)
			if err != nil {
				t.Errorf("ValidateStruct() returned unexpected error for url %q: %v", tt.url, err)
			}
		})
	}
}

func TestURLValidation_Invalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no scheme", "solr:8983"},
		{"garbage", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := URLStruct{BaseURL: tt.url}
			err := ValidateStruct(&input)
			if err == nil {
				t.Errorf("ValidateStruct() should have returned error for url %q", tt.url)
			}
		})
	}
}

// ===================================================================================================
// WithRequiredStructEnabled Tests
// ===================================================================================================

type NestedStruct struct {
	Inner InnerStruct `validate:"required"`
}

type InnerStruct struct {
	Value string `validate:"required"`
}

func TestNestedStructValidation(t *testing.T) {
	// Valid nested struct
	valid := NestedStruct{
		Inner: InnerStruct{Value: "test"},
	}

	err := ValidateStruct(&valid)
	if err != nil {
		t.Errorf("ValidateStruct() returned unexpected error for valid nested struct: %v", err)
	}

	// Invalid - missing inner value
	invalid := NestedStruct{
		Inner: InnerStruct{Value: ""},
	}

	err = ValidateStruct(&invalid)
	if err == nil {
		t.Error("ValidateStruct() should have returned error for invalid nested struct")
	}
}

// ===================================================================================================
// Error Message Translation Tests
// ===================================================================================================

func TestErrorMessages(t *testing.T) {
	input := TestStruct{
		Addr:       "",
		QuotaLimit: 0,
		WindowDays: 30,
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	// Error message should be human-readable
	msg := err.Error()
	if msg == "" {
		t.Error("Error message should not be empty")
	}

	// Should contain field name
	if !strings.Contains(msg, "Addr") && !strings.Contains(msg, "QuotaLimit") {
		t.Errorf("Error message should reference failed field: %s", msg)
	}
}

func TestErrorMessages_Required(t *testing.T) {
	input := TestStruct{
		Addr:       "",
		QuotaLimit: 100,
		WindowDays: 30,
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	if !strings.Contains(err.Error(), "Addr is required") {
		t.Errorf("Expected 'Addr is required' in message, got: %s", err.Error())
	}
}

func TestErrorMessages_Min(t *testing.T) {
	input := TestStruct{
		Addr:       ":8000",
		QuotaLimit: 0,
		WindowDays: 30,
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	if !strings.Contains(err.Error(), "QuotaLimit must be at least 1") {
		t.Errorf("Expected 'QuotaLimit must be at least 1' in message, got: %s", err.Error())
	}
}

func TestErrorMessages_Oneof(t *testing.T) {
	input := LogLevelStruct{Level: "verbose"}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	if !strings.Contains(err.Error(), "Level must be one of:") {
		t.Errorf("Expected 'Level must be one of:' in message, got: %s", err.Error())
	}
}

func TestErrorMessages_Combined(t *testing.T) {
	input := TestStruct{
		Addr:       "",
		QuotaLimit: 0,
		WindowDays: 0,
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	// Multiple errors joined with "; "
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Expected combined errors separated by '; ', got: %s", err.Error())
	}

	if len(err.Errors()) != 3 {
		t.Errorf("Expected 3 field errors, got %d", len(err.Errors()))
	}
}
