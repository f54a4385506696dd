package model

// Principal is the authenticated caller of a protected operation, as
// reconstructed from token claims.
type Principal struct {
	UserID         string           `json:"userId"`
	OrganizationID string           `json:"organizationId"`
	Roles          []HealthcareRole `json:"roles"`
	// MFACompleted indica si el caller completó un segundo factor en esta sesión.
	MFACompleted bool `json:"mfaCompleted"`
	// AuthorizedPatients holds the patient ids a PATIENT_PROXY may act for.
	AuthorizedPatients []string `json:"authorizedPatients,omitempty"`
}

// HasRole reports whether the principal carries the role.
func (p *Principal) HasRole(role HealthcareRole) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// MayActFor reports whether a proxy principal is authorized for the patient.
func (p *Principal) MayActFor(patientID string) bool {
	for _, id := range p.AuthorizedPatients {
		if id == patientID {
			return true
		}
	}
	return false
}
