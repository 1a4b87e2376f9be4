package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProposal  = errors.New("unknown proposal type")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidImage     = errors.New("signature image could not be read")
	ErrDocumentNotFound = errors.New("document not found")
	ErrPDFUnavailable   = errors.New("pdf conversion is not configured")
)

// ValidationError reports a form field the caller must correct.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
