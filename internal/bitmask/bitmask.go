// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package bitmask implements the 64-bit access masks that gate content.
//
// A client carries a mask describing the access categories granted to it, and
// every document carries a mask describing the categories it belongs to.
// Access is allowed when the two masks share at least one set bit. Masks
// travel in three encodings: raw integers in index documents, base64 bytes in
// token claims, and either a binary rendering or base64 in manifest metadata.
package bitmask

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMaskTooLong indicates a byte payload longer than 8 bytes.
	ErrMaskTooLong = errors.New("mask exceeds 8 bytes")

	// ErrInvalidMask indicates a value that is neither a binary rendering
	// nor valid base64.
	ErrInvalidMask = errors.New("unparseable mask value")
)

// BitMask64 is a 64-bit access mask.
type BitMask64 uint64

// FromInt creates a mask from an integer value, as stored in index documents.
func FromInt(v uint64) BitMask64 {
	return BitMask64(v)
}

// FromBytes creates a mask from up to 8 big-endian bytes. Shorter payloads
// are left-padded with zero bytes, so a 2-byte payload sets only the low 16
// bits. Payloads longer than 8 bytes are rejected.
func FromBytes(b []byte) (BitMask64, error) {
	if len(b) > 8 {
		return 0, fmt.Errorf("%w: got %d bytes", ErrMaskTooLong, len(b))
	}

	var v uint64
	for _, octet := range b {
		v = v<<8 | uint64(octet)
	}
	return BitMask64(v), nil
}

// FromBase64 creates a mask from a standard-encoding base64 string, as
// carried in token claims.
func FromBase64(s string) (BitMask64, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMask, err)
	}
	return FromBytes(b)
}

// Parse creates a mask from a manifest metadata value. Values made up
// entirely of 0 and 1 characters are read as a base-2 rendering (the same
// shape String produces); anything else is treated as base64.
func Parse(s string) (BitMask64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidMask)
	}

	if isBinary(s) {
		v, err := strconv.ParseUint(s, 2, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMask, s)
		}
		return BitMask64(v), nil
	}

	m, err := FromBase64(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMask, s)
	}
	return m, nil
}

// isBinary reports whether s contains only the characters 0 and 1.
func isBinary(s string) bool {
	for _, r := range s {
		if r != '0' && r != '1' {
			return false
		}
	}
	return true
}

// AccessAllowed reports whether the two masks share at least one set bit.
func (m BitMask64) AccessAllowed(other BitMask64) bool {
	return m&other != 0
}

// String renders the mask as 64 binary digits, most significant bit first.
func (m BitMask64) String() string {
	return fmt.Sprintf("%064b", uint64(m))
}
