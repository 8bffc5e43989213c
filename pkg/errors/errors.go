// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Wizard session errors
var (
	ErrSessionNotFound   = errors.New("wizard session not found")
	ErrAlreadySubmitted  = errors.New("application already submitted")
	ErrUnknownField      = errors.New("unknown field")
	ErrFieldNotOnStep    = errors.New("field does not belong to the current step")
	ErrInvalidFieldValue = errors.New("value kind does not match field")
	ErrNotOnFinalStep    = errors.New("submission is only possible from the final step")
	ErrStepInvalid       = errors.New("step has validation errors")
	ErrSubmissionFailed  = errors.New("submission rejected by the portal service")
)

// Document errors
var (
	ErrFileTooLarge       = errors.New("file too large")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
)

// Catalogue errors
var (
	ErrFeeNotFound = errors.New("no fee defined for service selection")
)

// Transport errors
var (
	ErrDuplicateRequest = errors.New("duplicate request in progress")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
