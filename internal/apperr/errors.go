package apperr

import (
	"errors"
	"fmt"
)

// The engines report failures through this small taxonomy so handlers can
// map them to HTTP statuses without string matching.

// ErrNotFound covers unknown ids and unmatched scan codes.
var ErrNotFound = errors.New("not found")

// ErrEmptyCart is returned by checkout when the cart has no valid lines.
var ErrEmptyCart = errors.New("cart is empty")

// ValidationError rejects an operation because of bad input. The operation
// is fully aborted; nothing is written.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Validation builds a ValidationError for a field.
func Validation(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
