package dto

import "github.com/bridgehealth/consentbridge/internal/domain/model"

// AccessCheckRequest pide una decisión de acceso al motor.
// El principal sale del token, nunca del body.
type AccessCheckRequest struct {
	PatientID         string `json:"patientId"`
	OrganizationID    string `json:"organizationId,omitempty"`
	DataCategory      string `json:"dataCategory,omitempty"`
	RequireMFA        bool   `json:"multiFactorAuthRequired,omitempty"`
	EmergencyOverride bool   `json:"emergencyOverride,omitempty"`
	TefcaExchange     bool   `json:"tefcaExchange,omitempty"`
}

// AccessCheckResponse es la decisión del motor.
type AccessCheckResponse struct {
	Decision   string                    `json:"decision"`
	Reason     string                    `json:"reason,omitempty"`
	BreakGlass bool                      `json:"breakGlass,omitempty"`
	Consent    *model.VerificationResult `json:"consent,omitempty"`
}
