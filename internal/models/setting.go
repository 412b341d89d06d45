package models

import "time"

// Setting keys understood by the admissions workflow.
const (
	SettingStartingNumber    = "admissionStartingNumber"
	SettingApprovalMode      = "approvalMode"      // "manual" | "automatic"
	SettingAutoApprovalDelay = "autoApprovalDelay" // minutes
	SettingReportingDate     = "reportingDate"
)

const (
	ApprovalModeManual    = "manual"
	ApprovalModeAutomatic = "automatic"
)

// Setting is a key-value pair with upsert semantics: at most one row per key.
type Setting struct {
	Key         string    `db:"key" json:"key" validate:"required,max=64"`
	Value       string    `db:"value" json:"value"`
	Description string    `db:"description" json:"description"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Counter tracks the last issued admission-number suffix per prefix.
// current_number must never fall below the highest suffix already issued
// for the same prefix and year; the store enforces this with an atomic
// conditional update.
type Counter struct {
	Prefix        string    `db:"prefix" json:"prefix"`
	CurrentNumber int       `db:"current_number" json:"current_number"`
	LastUpdated   time.Time `db:"last_updated" json:"last_updated"`
}
