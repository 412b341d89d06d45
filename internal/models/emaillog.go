package models

import "time"

type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

// EmailLog records one delivery attempt. Rows are append-only; a resend
// produces a new row rather than mutating the failed one.
type EmailLog struct {
	ID            int64       `db:"id" json:"id"`
	ApplicationID int64       `db:"application_id" json:"application_id"`
	Recipient     string      `db:"recipient" json:"recipient"`
	Subject       string      `db:"subject" json:"subject"`
	Status        EmailStatus `db:"status" json:"status"`
	ProviderID    string      `db:"provider_id" json:"provider_id"`
	Error         string      `db:"error" json:"error"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}
