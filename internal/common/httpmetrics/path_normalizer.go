package httpmetrics

import (
	"strings"

	"github.com/google/uuid"
)

const (
	paramPlaceholder = "{param}"
	// opaque token segments longer than this are collapsed too
	maxLiteralSegment = 48
)

// NormalizePath collapses identifier segments so that the path label keeps
// a bounded cardinality: UUIDs, numeric codes and long opaque values all
// become {param}.
func NormalizePath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}

	var b strings.Builder
	b.Grow(len(path))
	for _, segment := range strings.Split(trimmed, "/") {
		b.WriteByte('/')
		if isIdentifier(segment) {
			b.WriteString(paramPlaceholder)
			continue
		}
		b.WriteString(segment)
	}
	if strings.HasSuffix(path, "/") {
		b.WriteByte('/')
	}
	return b.String()
}

func isIdentifier(segment string) bool {
	if segment == "" {
		return false
	}
	if len(segment) > maxLiteralSegment {
		return true
	}
	if _, err := uuid.Parse(segment); err == nil && len(segment) == 36 {
		return true
	}
	return strings.IndexFunc(segment, func(r rune) bool { return r < '0' || r > '9' }) < 0
}
