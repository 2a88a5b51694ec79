// Package services implements business workflows that span several repositories:
// converting a lead into a contact, account and opportunity in one transaction, and
// attaching comments to tenant-scoped records.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a referenced record does not exist in the caller's organization
	ErrNotFound = errors.New("not found")
	// ErrConflict means the write collides with an existing record
	ErrConflict = errors.New("conflict")
	// ErrConversionFailed wraps any failure inside the lead conversion transaction
	ErrConversionFailed = errors.New("lead conversion failed")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
