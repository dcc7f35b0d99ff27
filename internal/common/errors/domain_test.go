package commonerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_WithCauseKeepsIdentity(t *testing.T) {
	errStore := NewDomainError("STORE_UNAVAILABLE", CategoryInternal, "database operation failed")
	cause := errors.New("connection reset")
	err := errStore.WithCause(cause)

	if !errors.Is(err, errStore) {
		t.Error("expected wrapped error to match sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped error to match cause")
	}
	if err.Error() != "database operation failed: connection reset" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestDomainError_DifferentCodesDoNotMatch(t *testing.T) {
	if errors.Is(ErrUserNotFound, ErrEmailAlreadyExists) {
		t.Error("expected different codes not to match")
	}
}

func TestCategoryOf(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", ErrUserNotFound)

	if got := CategoryOf(wrapped); got != CategoryNotFound {
		t.Errorf("expected NOT_FOUND, got %s", got)
	}
	if got := CategoryOf(errors.New("plain")); got != CategoryInternal {
		t.Errorf("expected INTERNAL for plain errors, got %s", got)
	}
}

func TestAsDomainError(t *testing.T) {
	de, ok := AsDomainError(fmt.Errorf("outer: %w", ErrCircuitOpen))
	if !ok {
		t.Fatal("expected domain error")
	}
	if de.Code() != "CIRCUIT_OPEN" {
		t.Errorf("expected CIRCUIT_OPEN, got %s", de.Code())
	}
	if IsDomainError(errors.New("plain")) {
		t.Error("expected plain error not to be a domain error")
	}
}

func TestIsCategory(t *testing.T) {
	err := fmt.Errorf("lookup: %w", ErrUserNotFound)
	if !IsCategory(err, CategoryConflict, CategoryNotFound) {
		t.Error("expected NOT_FOUND to match")
	}
	if IsCategory(nil, CategoryInternal) {
		t.Error("nil must not match any category")
	}
	if !IsCategory(errors.New("plain"), CategoryInternal) {
		t.Error("plain errors are INTERNAL")
	}
}

func TestErrorCategory_Infrastructure(t *testing.T) {
	cases := map[ErrorCategory]bool{
		CategoryExternal:   true,
		CategoryInternal:   true,
		CategoryNotFound:   false,
		CategoryValidation: false,
		CategoryExpired:    false,
	}
	for c, want := range cases {
		if got := c.Infrastructure(); got != want {
			t.Errorf("%s.Infrastructure() = %v, want %v", c, got, want)
		}
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(ErrCircuitOpen.WithCause(errors.New("x"))); got != "CIRCUIT_OPEN" {
		t.Errorf("unexpected code %q", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("expected empty code, got %q", got)
	}
}
