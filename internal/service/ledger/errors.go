package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart indicates a sale without any line.
	ErrEmptyCart = errors.New("ledger: sale has no items")
	// ErrDuplicateItem indicates the same item appears twice in one sale.
	ErrDuplicateItem = errors.New("ledger: item listed more than once")
	// ErrItemNotFound indicates an unknown inventory item reference.
	ErrItemNotFound = errors.New("ledger: item not found")
	// ErrInsufficientStock indicates a sale larger than the available quantity.
	ErrInsufficientStock = errors.New("ledger: insufficient stock")
	// ErrNegativeStock indicates an adjustment that would drive stock below zero.
	ErrNegativeStock = errors.New("ledger: negative stock not allowed")
	// ErrInvalidQuantity indicates a zero or negative quantity where a positive one is required.
	ErrInvalidQuantity = errors.New("ledger: invalid quantity")
	// ErrInvalidAmount indicates a negative price or a non-positive amount.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrBlankText indicates a required text field is empty.
	ErrBlankText = errors.New("ledger: required text is blank")
)

// ValidationError reports caller input that violates a precondition. It is
// always returned before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

func invalid(field string, kind error, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), Err: kind}
}
