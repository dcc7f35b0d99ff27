package commonerrors

type ErrorCategory string

const (
	CategoryMalformed    ErrorCategory = "MALFORMED"
	CategoryExpired      ErrorCategory = "EXPIRED"
	CategoryNotFound     ErrorCategory = "NOT_FOUND"
	CategoryConflict     ErrorCategory = "CONFLICT"
	CategoryUnauthorized ErrorCategory = "UNAUTHORIZED"
	CategoryValidation   ErrorCategory = "VALIDATION"
	CategoryExternal     ErrorCategory = "EXTERNAL"
	CategoryInternal     ErrorCategory = "INTERNAL"
)

// Infrastructure reports whether the category describes a failing
// dependency rather than a legitimate answer about the caller's input.
func (c ErrorCategory) Infrastructure() bool {
	return c == CategoryExternal || c == CategoryInternal
}

// CategoryOf returns the category of the first DomainError in err's chain.
// Errors outside the taxonomy are INTERNAL.
func CategoryOf(err error) ErrorCategory {
	if de, ok := AsDomainError(err); ok {
		return de.Category()
	}
	return CategoryInternal
}

func IsCategory(err error, categories ...ErrorCategory) bool {
	if err == nil {
		return false
	}
	got := CategoryOf(err)
	for _, c := range categories {
		if got == c {
			return true
		}
	}
	return false
}
