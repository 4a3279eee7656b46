package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is; the HTTP layer maps each
// kind to a status code and decides how much of the message is shown.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrInsufficientFunds    = errors.New("insufficient balance for this purchase")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrUnauthenticated      = errors.New("invalid email or password")
	ErrForbidden            = errors.New("admin access required")
	ErrStorage              = errors.New("storage failure")
)

// ValidationError reports malformed caller input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientHoldingsError rejects a SELL larger than the shares held.
type InsufficientHoldingsError struct {
	Symbol    string
	Available int64
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("you can only sell up to %d shares of %s", e.Available, e.Symbol)
}

func (e *InsufficientHoldingsError) Is(target error) bool {
	return target == ErrInsufficientHoldings
}

// StorageFault marks err as a persistence failure of operation op. Errors
// that already carry a business meaning (not found, duplicates, validation)
// are returned unchanged.
func StorageFault(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsBusinessError(err) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// IsBusinessError reports whether err is one of the recoverable, caller-facing
// kinds rather than an infrastructure fault.
func IsBusinessError(err error) bool {
	for _, kind := range []error{
		ErrInvalidArgument,
		ErrNotFound,
		ErrAlreadyExists,
		ErrInsufficientFunds,
		ErrInsufficientHoldings,
		ErrUnauthenticated,
		ErrForbidden,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
