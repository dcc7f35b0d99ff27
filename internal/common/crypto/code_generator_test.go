package crypto

import (
	"strconv"
	"testing"
)

func TestNumericCodeGenerator_FourDigits(t *testing.T) {
	gen := NewNumericCodeGenerator(4)

	for i := 0; i < 500; i++ {
		code, err := gen.NewCode()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(code) != 4 {
			t.Fatalf("expected 4 characters, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("expected numeric code, got %q", code)
		}
		if n < 0 || n > 9999 {
			t.Fatalf("code out of range: %d", n)
		}
	}
}

func TestNumericCodeGenerator_DefaultDigits(t *testing.T) {
	gen := NewNumericCodeGenerator(0)

	code, err := gen.NewCode()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(code) != 4 {
		t.Errorf("expected default of 4 digits, got %q", code)
	}
}

func TestUUIDGenerator_Unique(t *testing.T) {
	gen := NewUUIDGenerator()
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		id, err := gen.NewID()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("Secret123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := h.Compare(hash, "Secret123"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "Secret124"); err == nil {
		t.Error("expected mismatch")
	}
}
