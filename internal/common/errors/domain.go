package commonerrors

import (
	"errors"
	"strings"
)

type DomainError interface {
	error
	Code() string
	Category() ErrorCategory
	Message() string
	Unwrap() error
	WithCause(cause error) DomainError
}

type domainError struct {
	code     string
	category ErrorCategory
	message  string
	cause    error
}

func NewDomainError(code string, category ErrorCategory, message string) DomainError {
	return &domainError{code: code, category: category, message: message}
}

func (e *domainError) Error() string {
	if e.cause == nil {
		return e.message
	}
	var b strings.Builder
	b.WriteString(e.message)
	b.WriteString(": ")
	b.WriteString(e.cause.Error())
	return b.String()
}

func (e *domainError) Code() string            { return e.code }
func (e *domainError) Category() ErrorCategory { return e.category }
func (e *domainError) Message() string         { return e.message }
func (e *domainError) Unwrap() error           { return e.cause }

// Is matches any DomainError with the same code, so sentinels keep matching
// after WithCause.
func (e *domainError) Is(target error) bool {
	t, ok := target.(DomainError)
	return ok && t.Code() == e.code
}

func (e *domainError) WithCause(cause error) DomainError {
	c := *e
	c.cause = cause
	return &c
}

func IsDomainError(err error) bool {
	_, ok := AsDomainError(err)
	return ok
}

func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost DomainError, or "" for errors
// outside the taxonomy.
func CodeOf(err error) string {
	if de, ok := AsDomainError(err); ok {
		return de.Code()
	}
	return ""
}

var (
	ErrMissingRequiredEnv = NewDomainError("MISSING_REQUIRED_ENV", CategoryValidation, "missing required environment variable")
	ErrInvalidConfig      = NewDomainError("INVALID_CONFIG", CategoryValidation, "invalid configuration")
	ErrCircuitOpen        = NewDomainError("CIRCUIT_OPEN", CategoryExternal, "circuit breaker is open")
	ErrUserNotFound       = NewDomainError("USER_NOT_FOUND", CategoryNotFound, "user not found")
	ErrEmailAlreadyExists = NewDomainError("EMAIL_ALREADY_EXISTS", CategoryConflict, "email already exists")
)
