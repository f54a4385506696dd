package model

import "time"

// VerificationOutcome resume el resultado de verificar un consent.
type VerificationOutcome string

const (
	VerificationValid    VerificationOutcome = "VALID"
	VerificationNotFound VerificationOutcome = "NOT_FOUND"
	VerificationExpired  VerificationOutcome = "EXPIRED"
	VerificationRevoked  VerificationOutcome = "REVOKED"
	VerificationInvalid  VerificationOutcome = "INVALID"
)

// VerificationResult is the answer to "may organization X see patient Y's
// data, and which categories".
type VerificationResult struct {
	PatientID         string              `json:"patientId"`
	OrganizationID    string              `json:"organizationId"`
	Outcome           VerificationOutcome `json:"outcome"`
	Reason            string              `json:"reason,omitempty"`
	AllowedCategories []DataCategory      `json:"allowedCategories,omitempty"`
	DeniedCategories  []DataCategory      `json:"deniedCategories,omitempty"`
	ExpiresAt         *time.Time          `json:"expiresAt,omitempty"`
	VerifiedAt        time.Time           `json:"verifiedAt"`
}

// Valid reports whether access is granted.
func (r *VerificationResult) Valid() bool {
	return r.Outcome == VerificationValid
}

func newResult(patientID, orgID string, outcome VerificationOutcome, reason string) *VerificationResult {
	return &VerificationResult{
		PatientID:      patientID,
		OrganizationID: orgID,
		Outcome:        outcome,
		Reason:         reason,
		VerifiedAt:     time.Now().UTC(),
	}
}

// VerificationValidResult builds a VALID result carrying the consent's categories.
func VerificationValidResult(c *ConsentRecord) *VerificationResult {
	r := newResult(c.PatientID, c.OrganizationID, VerificationValid, "")
	r.AllowedCategories = append([]DataCategory(nil), c.AllowedCategories...)
	r.ExpiresAt = c.ExpiresAt
	return r
}

// VerificationNotFoundResult builds a NOT_FOUND result.
func VerificationNotFoundResult(patientID, orgID string) *VerificationResult {
	return newResult(patientID, orgID, VerificationNotFound, "no consent record on file")
}

// VerificationExpiredResult builds an EXPIRED result.
func VerificationExpiredResult(patientID, orgID string, expiredAt *time.Time) *VerificationResult {
	r := newResult(patientID, orgID, VerificationExpired, "consent has expired")
	r.ExpiresAt = expiredAt
	return r
}

// VerificationRevokedResult builds a REVOKED result.
func VerificationRevokedResult(patientID, orgID string) *VerificationResult {
	return newResult(patientID, orgID, VerificationRevoked, "consent has been revoked")
}

// VerificationInvalidResult builds an INVALID result with a reason.
func VerificationInvalidResult(patientID, orgID, reason string) *VerificationResult {
	return newResult(patientID, orgID, VerificationInvalid, reason)
}
