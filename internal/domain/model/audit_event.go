package model

import "time"

// AuditAction names the audited operation class.
type AuditAction string

const (
	AuditAuthorization AuditAction = "AUTHORIZATION"
	AuditConsentCheck  AuditAction = "CONSENT_CHECK"
	AuditConsentChange AuditAction = "CONSENT_CHANGE"
	AuditBreakGlass    AuditAction = "BREAK_GLASS"
	AuditAuth          AuditAction = "AUTHENTICATION"
	AuditDataAccess    AuditAction = "DATA_ACCESS"
)

// AuditOutcome is SUCCESS or FAILURE; break-glass events are always SUCCESS
// with the override recorded in Details.
type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "SUCCESS"
	AuditFailure AuditOutcome = "FAILURE"
)

// AuditEvent is one immutable trail entry. Events are append-only.
type AuditEvent struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	Action     AuditAction    `json:"action"`
	Resource   string         `json:"resource"`
	Outcome    AuditOutcome   `json:"outcome"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}
