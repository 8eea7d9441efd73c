// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package matcher

import (
	"context"
	"testing"

	"github.com/tomtom215/claviger/internal/bitmask"
	"github.com/tomtom215/claviger/internal/extractor"
)

func TestBitwiseAndMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		client   extractor.Token
		resource extractor.Token
		want     bool
	}{
		{
			name:     "overlapping bits",
			client:   extractor.MaskToken(bitmask.FromInt(0b0011)),
			resource: extractor.MaskToken(bitmask.FromInt(0b0010)),
			want:     true,
		},
		{
			name:     "disjoint bits",
			client:   extractor.MaskToken(bitmask.FromInt(0b0001)),
			resource: extractor.MaskToken(bitmask.FromInt(0b0010)),
			want:     false,
		},
		{
			name:     "high bit overlap",
			client:   extractor.MaskToken(bitmask.FromInt(1 << 63)),
			resource: extractor.MaskToken(bitmask.FromInt(1<<63 | 1)),
			want:     true,
		},
		{
			name:     "zero client mask",
			client:   extractor.MaskToken(bitmask.FromInt(0)),
			resource: extractor.MaskToken(bitmask.FromInt(^uint64(0))),
			want:     false,
		},
		{
			name:     "string token on client side",
			client:   extractor.StringToken("3"),
			resource: extractor.MaskToken(bitmask.FromInt(3)),
			want:     false,
		},
		{
			name:     "missing resource token",
			client:   extractor.MaskToken(bitmask.FromInt(3)),
			resource: extractor.NoToken(),
			want:     false,
		},
	}

	m := NewBitwiseAnd()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := m.Match(context.Background(), tt.client, tt.resource); got != tt.want {
				t.Errorf("Match(%v, %v) = %t, want %t", tt.client, tt.resource, got, tt.want)
			}
		})
	}
}

func TestBitwiseAndIsSymmetric(t *testing.T) {
	t.Parallel()

	m := NewBitwiseAnd()
	masks := []uint64{0, 1, 0b1010, 1 << 63, ^uint64(0)}

	for _, a := range masks {
		for _, b := range masks {
			left := m.Match(context.Background(), extractor.MaskToken(bitmask.FromInt(a)), extractor.MaskToken(bitmask.FromInt(b)))
			right := m.Match(context.Background(), extractor.MaskToken(bitmask.FromInt(b)), extractor.MaskToken(bitmask.FromInt(a)))
			if left != right {
				t.Errorf("Match() not symmetric for masks %#x and %#x", a, b)
			}
		}
	}
}
