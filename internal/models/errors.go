package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned when a referenced application, course or setting
// does not exist. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ValidationError blocks the originating action immediately; it carries
// per-field messages for user-facing reporting.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// NotificationError signals that a status write succeeded but the follow-up
// letter generation or email delivery did not. The transition is NOT rolled
// back; callers report it as a partial success and offer a resend.
type NotificationError struct {
	ApplicationID int64
	Stage         string // "letter" | "email"
	Err           error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed for application %d at %s: %v", e.ApplicationID, e.Stage, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// fieldErrors converts validator.ValidationErrors into our ValidationError.
func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return &ValidationError{Fields: fields}
}
