package tally

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("tally: not found")
	ErrInvalidInput = errors.New("tally: invalid input")

	// Catalog errors
	ErrGroupNotFound   = errors.New("tally: group not found")
	ErrPackageNotFound = errors.New("tally: package not found")

	// Registry errors
	ErrCustomerNotFound = errors.New("tally: customer not found")

	// Ledger errors
	ErrPaymentNotFound = errors.New("tally: payment not found")
	ErrInvalidMonth    = errors.New("tally: invalid month")
	ErrNoUnpaidPayment = errors.New("tally: no unpaid payment for month")

	// Document errors
	ErrInvalidSnapshot  = errors.New("tally: invalid snapshot")
	ErrDocumentNotFound = errors.New("tally: document not found")
	ErrNotLoaded        = errors.New("tally: book not loaded")

	// Store errors
	ErrStoreClosed = errors.New("tally: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("tally: validation failed for %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failed field of one record.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "tally: validation failed"
	case 1:
		return e[0].Error()
	}
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Field + ": " + v.Message
	}
	return "tally: validation failed: " + strings.Join(parts, "; ")
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("tally: persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrPackageNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrNoUnpaidPayment)
}

// IsValidation returns true if the input was rejected before any change.
func IsValidation(err error) bool {
	var ve ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) ||
		errors.As(err, &ves) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidMonth)
}

// IsPersistence returns true if the store rejected a save.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
