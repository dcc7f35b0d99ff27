package notification

import (
	"errors"
	"fmt"
)

type FailureKind int

const (
	// KindTransient covers authentication, connection and temporary
	// rejections: a later attempt may succeed.
	KindTransient FailureKind = iota
	// KindPermanent covers malformed or rejected recipients.
	KindPermanent
)

func (k FailureKind) String() string {
	if k == KindPermanent {
		return "permanent"
	}
	return "transient"
}

type DeliveryError struct {
	Kind FailureKind
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failure: %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func Permanent(err error) error {
	return &DeliveryError{Kind: KindPermanent, Err: err}
}

func Transient(err error) error {
	return &DeliveryError{Kind: KindTransient, Err: err}
}

// IsTransient reports whether err is worth retrying. Unclassified errors
// are treated as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind == KindTransient
	}
	return true
}

var ErrInvalidRecipient = errors.New("invalid recipient address")
