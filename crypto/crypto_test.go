package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testKey(b byte) string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = b
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestNewAESSealer(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		errorMsg string
	}{
		{"empty key", "", "encryption key is empty"},
		{"invalid base64", "not-valid-base64!@#$", "base64 decode failed"},
		{"key too short", base64.StdEncoding.EncodeToString(make([]byte, 16)), "must be 32 bytes"},
		{"key too long", base64.StdEncoding.EncodeToString(make([]byte, 64)), "must be 32 bytes"},
		{"valid 32-byte key", testKey(1), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewAESSealer(tt.key)
			if tt.errorMsg == "" {
				if err != nil || s == nil {
					t.Fatalf("NewAESSealer() = %v, %v", s, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
				t.Fatalf("NewAESSealer() error = %v, want error containing %q", err, tt.errorMsg)
			}
		})
	}
}

func TestSealOpen(t *testing.T) {
	s, err := NewAESSealer(testKey(7))
	if err != nil {
		t.Fatal(err)
	}
	for _, plain := range []string{"bob@example.com", "555-0100", "ünïcødé ✓"} {
		sealed, err := s.Seal(plain)
		if err != nil {
			t.Fatalf("Seal(%q): %v", plain, err)
		}
		if !IsSealed(sealed) || strings.Contains(sealed, plain) {
			t.Fatalf("Seal(%q) = %q", plain, sealed)
		}
		again, _ := s.Seal(plain)
		if again == sealed {
			t.Fatalf("nonce reused for %q", plain)
		}
		if resealed, _ := s.Seal(sealed); resealed != sealed {
			t.Fatalf("sealed value sealed twice")
		}
		got, err := s.Open(sealed)
		if err != nil || got != plain {
			t.Fatalf("Open = %q, %v; want %q", got, err, plain)
		}
	}
}

func TestPlaintextPassesThrough(t *testing.T) {
	s, _ := NewAESSealer(testKey(7))
	if got, _ := s.Seal(""); got != "" {
		t.Fatalf("Seal(\"\") = %q", got)
	}
	if got, err := s.Open("legacy@example.com"); err != nil || got != "legacy@example.com" {
		t.Fatalf("Open(plaintext) = %q, %v", got, err)
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	s, _ := NewAESSealer(testKey(7))
	other, _ := NewAESSealer(testKey(8))
	sealed, _ := s.Seal("bob@example.com")

	if _, err := other.Open(sealed); !errors.Is(err, ErrOpen) {
		t.Fatalf("wrong key: %v", err)
	}

	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, SealedPrefix))
	raw[len(raw)-1] ^= 0xff
	if _, err := s.Open(SealedPrefix + base64.StdEncoding.EncodeToString(raw)); !errors.Is(err, ErrOpen) {
		t.Fatalf("tampered: %v", err)
	}
	if _, err := s.Open(SealedPrefix + "!!"); err == nil {
		t.Fatal("bad base64 accepted")
	}
	if _, err := s.Open(SealedPrefix + base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Fatal("short value accepted")
	}
}
