package httpmetrics

import (
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"/health": "/health",
		"/users/123e4567-e89b-12d3-a456-426614174000/tokens": "/users/{param}/tokens",
		"/codes/1234":                        "/codes/{param}",
		"/metrics/":                          "/metrics/",
		"/v2/verify":                         "/v2/verify",
		"/tokens/" + strings.Repeat("a", 64): "/tokens/{param}",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
