package receipt

import (
	"errors"
	"fmt"
)

// Reason identifies why a receipt was rejected
type Reason string

const (
	ReasonInvalidFormat   Reason = "invalid_format"
	ReasonInvalidRetailer Reason = "invalid_retailer"
	ReasonInvalidTotal    Reason = "invalid_total"
	ReasonInvalidItem     Reason = "invalid_item"
	ReasonInvalidDateTime Reason = "invalid_datetime"
)

// ValidationError is returned when a receipt fails validation.
// Two ValidationErrors match under errors.Is when their reasons are equal.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Is reports whether target is a ValidationError with the same reason
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

// Message returns the client-facing description of the rejection
func (e *ValidationError) Message() string {
	switch e.Reason {
	case ReasonInvalidRetailer:
		return "Invalid retailer name."
	case ReasonInvalidTotal:
		return "Invalid total amount."
	case ReasonInvalidItem:
		return "Invalid item in receipt."
	case ReasonInvalidDateTime:
		return "Invalid purchase date or time."
	default:
		return "The receipt is invalid."
	}
}

var (
	ErrInvalidFormat   = &ValidationError{Reason: ReasonInvalidFormat}
	ErrInvalidRetailer = &ValidationError{Reason: ReasonInvalidRetailer}
	ErrInvalidTotal    = &ValidationError{Reason: ReasonInvalidTotal}
	ErrInvalidItem     = &ValidationError{Reason: ReasonInvalidItem}
	ErrInvalidDateTime = &ValidationError{Reason: ReasonInvalidDateTime}

	// ErrNotFound is returned when no score exists for an identifier
	ErrNotFound = errors.New("receipt not found")
)

func invalid(reason Reason, format string, args ...any) error {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
