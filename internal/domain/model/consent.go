package model

import (
	"fmt"
	"time"
)

// ConsentStatus is the lifecycle state of a consent record.
//
// Lifecycle: PENDING → ACTIVE → (SUSPENDED|REVOKED|EXPIRED) → ACTIVE (renewal).
// DENIED is terminal unless the patient files a new consent.
type ConsentStatus string

const (
	ConsentActive    ConsentStatus = "ACTIVE"
	ConsentPending   ConsentStatus = "PENDING"
	ConsentSuspended ConsentStatus = "SUSPENDED"
	ConsentDenied    ConsentStatus = "DENIED"
	ConsentRevoked   ConsentStatus = "REVOKED"
	ConsentExpired   ConsentStatus = "EXPIRED"
)

// AllConsentStatuses lists every valid status.
var AllConsentStatuses = []ConsentStatus{
	ConsentActive, ConsentPending, ConsentSuspended,
	ConsentDenied, ConsentRevoked, ConsentExpired,
}

// Valid reports whether the status belongs to the enum.
func (s ConsentStatus) Valid() bool {
	switch s {
	case ConsentActive, ConsentPending, ConsentSuspended, ConsentDenied, ConsentRevoked, ConsentExpired:
		return true
	}
	return false
}

// ParseConsentStatus validates and converts a raw string.
func ParseConsentStatus(s string) (ConsentStatus, error) {
	cs := ConsentStatus(s)
	if !cs.Valid() {
		return "", fmt.Errorf("unknown consent status %q", s)
	}
	return cs, nil
}

// ConsentRecord is a patient's consent for one organization.
// Uniqueness: (PatientID, OrganizationID).
type ConsentRecord struct {
	ID                string         `json:"id"`
	PatientID         string         `json:"patientId"`
	OrganizationID    string         `json:"organizationId"`
	Status            ConsentStatus  `json:"status"`
	AllowedCategories []DataCategory `json:"allowedCategories"`
	EffectiveAt       time.Time      `json:"effectiveAt"`
	ExpiresAt         *time.Time     `json:"expiresAt,omitempty"`
	PolicyReference   string         `json:"policyReference,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// IsActiveAt reports whether the consent grants access at the given instant:
// status ACTIVE, already effective, and not past expiry.
func (c *ConsentRecord) IsActiveAt(now time.Time) bool {
	if c.Status != ConsentActive {
		return false
	}
	if c.EffectiveAt.IsZero() || c.EffectiveAt.After(now) {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}
	return true
}

// IsExpiredAt reports whether the expiry date has passed, regardless of status.
func (c *ConsentRecord) IsExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Allows reports whether the consent covers the category.
// The ALL wildcard never covers restricted categories (42 CFR Part 2).
func (c *ConsentRecord) Allows(cat DataCategory) bool {
	for _, a := range c.AllowedCategories {
		if a == cat {
			return true
		}
		if a == CategoryAll && !cat.Restricted() {
			return true
		}
	}
	return false
}

// Renew reactivates a revoked or expired consent with a fresh validity window.
// Returns an error for statuses that cannot be renewed.
func (c *ConsentRecord) Renew(effectiveAt time.Time, expiresAt *time.Time) error {
	switch c.Status {
	case ConsentRevoked, ConsentExpired, ConsentSuspended:
		// renewable
	default:
		return fmt.Errorf("consent in status %s cannot be renewed", c.Status)
	}
	c.Status = ConsentActive
	c.EffectiveAt = effectiveAt
	c.ExpiresAt = expiresAt
	return nil
}
