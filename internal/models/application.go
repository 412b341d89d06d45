package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Status is the lifecycle state of an application. The enum is mirrored
// by a CHECK constraint on applications.status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusAccepted, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Source records where an application came from. Immutable after creation.
type Source string

const (
	SourceManual Source = "manual"
	SourceOnline Source = "online_application"
)

func ParseSource(s string) (Source, error) {
	src := Source(s)
	switch src {
	case SourceManual, SourceOnline:
		return src, nil
	}
	return "", fmt.Errorf("unknown application source %q", s)
}

type Application struct {
	ID              int64      `db:"id" json:"id"`
	FullName        string     `db:"full_name" json:"full_name" validate:"required,max=120"`
	Email           string     `db:"email" json:"email" validate:"omitempty,email"`
	Phone           string     `db:"phone" json:"phone" validate:"required"`
	Course          string     `db:"course" json:"course" validate:"required,max=120"`
	Location        string     `db:"location" json:"location"`
	PriorGrade      string     `db:"prior_grade" json:"prior_grade"`
	AdmissionNumber string     `db:"admission_number" json:"admission_number"`
	Status          Status     `db:"status" json:"status"`
	Source          Source     `db:"source" json:"source"`
	AppliedAt       time.Time  `db:"applied_at" json:"applied_at"`
	AutoApproveDue  *time.Time `db:"auto_approve_due_at" json:"auto_approve_due_at,omitempty"`
	LetterSentAt    *time.Time `db:"letter_sent_at" json:"letter_sent_at,omitempty"`
}

func (a *Application) Validate() error {
	validate := validator.New()
	if err := validate.Struct(a); err != nil {
		return fieldErrors(err)
	}
	return nil
}

// ApplicationFilter narrows admin list queries. Zero values mean "any".
type ApplicationFilter struct {
	Status       Status
	NameContains string
	NumberPrefix string
}
