// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package quota

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/claviger/internal/config"
)

func TestNullCheck(t *testing.T) {
	checker := NewNull()

	status, err := checker.Check(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("Check() unexpected error: %v", err)
	}
	if status != StatusBelowQuota {
		t.Errorf("Check() = %q, want %q", status, StatusBelowQuota)
	}

	// Identity of the inputs never matters
	status, err = checker.Check(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Check() unexpected error: %v", err)
	}
	if status != StatusBelowQuota {
		t.Errorf("Check() = %q, want %q", status, StatusBelowQuota)
	}
}

func TestNullString(t *testing.T) {
	if got := NewNull().String(); got != "NullQuotaChecker()" {
		t.Errorf("String() = %q, want NullQuotaChecker()", got)
	}
}

func TestQuotaKeys(t *testing.T) {
	keys := quotaKeys("usr-42")

	want := []string{
		"user:usr-42:bloom",
		"user:usr-42:count",
		"user:usr-42:first_access",
	}

	if len(keys) != len(want) {
		t.Fatalf("quotaKeys() returned %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("quotaKeys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestParseAllowed(t *testing.T) {
	tests := []struct {
		name    string
		reply   interface{}
		want    bool
		wantErr bool
	}{
		{
			name:  "allowed",
			reply: []interface{}{int64(1)},
			want:  true,
		},
		{
			name:  "denied",
			reply: []interface{}{int64(0)},
			want:  false,
		},
		{
			name:  "extra elements ignored",
			reply: []interface{}{int64(1), int64(7)},
			want:  true,
		},
		{
			name:    "not a list",
			reply:   int64(1),
			wantErr: true,
		},
		{
			name:    "empty list",
			reply:   []interface{}{},
			wantErr: true,
		},
		{
			name:    "wrong element type",
			reply:   []interface{}{"1"},
			wantErr: true,
		},
		{
			name:    "nil reply",
			reply:   nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAllowed(tt.reply)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseAllowed() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAllowed() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseAllowed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRedis_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.RedisConfig
	}{
		{"nil config", nil},
		{"empty url", &config.RedisConfig{}},
		{"unparseable url", &config.RedisConfig{URL: "redis://[::1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := NewRedis(tt.cfg)
			if err == nil {
				t.Error("NewRedis() expected error, got nil")
			}
			if checker != nil {
				t.Error("NewRedis() should return nil checker on error")
			}
		})
	}
}

func TestNewRedis_UnreachableStoreIsNotFatal(t *testing.T) {
	// Port 1 is never a redis server; the ping fails but construction succeeds
	cfg := &config.RedisConfig{
		URL:        "redis://127.0.0.1:1/0",
		QuotaLimit: 200000,
		WindowDays: 30,
	}

	checker, err := NewRedis(cfg)
	if err != nil {
		t.Fatalf("NewRedis() unexpected error: %v", err)
	}
	defer checker.Close()

	if checker.quotaLimit != 200000 {
		t.Errorf("quotaLimit = %d, want 200000", checker.quotaLimit)
	}
	if checker.windowSeconds != 30*24*60*60 {
		t.Errorf("windowSeconds = %d, want 2592000", checker.windowSeconds)
	}
}

func TestRedisCheck_StoreError(t *testing.T) {
	cfg := &config.RedisConfig{
		URL:        "redis://127.0.0.1:1/0",
		QuotaLimit: 10,
		WindowDays: 1,
	}

	checker, err := NewRedis(cfg)
	if err != nil {
		t.Fatalf("NewRedis() unexpected error: %v", err)
	}
	defer checker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status, err := checker.Check(ctx, "user-12345678", "doc-1")
	if err == nil {
		t.Fatal("Check() expected error against unreachable store, got nil")
	}
	if status != "" {
		t.Errorf("Check() status = %q, want empty on error", status)
	}

	// User ids are sanitized in error messages
	if strings.Contains(err.Error(), "user-12345678") {
		t.Errorf("Check() error leaks full user id: %v", err)
	}
}

func TestRedisString(t *testing.T) {
	checker := &Redis{quotaLimit: 200000, windowSeconds: 2592000}

	got := checker.String()
	if !strings.Contains(got, "200000") {
		t.Errorf("String() = %q, should contain the quota limit", got)
	}
	if !strings.Contains(got, "720h") {
		t.Errorf("String() = %q, should render the window duration", got)
	}
}

func TestQuotaScriptEmbedded(t *testing.T) {
	// The embedded script must carry the full three-key contract
	for _, fragment := range []string{"BF.EXISTS", "BF.RESERVE", "BF.ADD", "KEYS[3]", "ARGV[4]"} {
		if !strings.Contains(quotaCheckScript, fragment) {
			t.Errorf("quota script missing %q", fragment)
		}
	}
}
