// Package scenario carga y valida el catálogo de fixture scenarios que
// ejercitan la lógica de autorización y consent.
//
// El catálogo son tres archivos JSON con datos sintéticos (HIPAA-safe):
// autorización general, autorización por rol y interoperabilidad TEFCA.
package scenario

import (
	"strings"
	"time"

	"github.com/bridgehealth/consentbridge/internal/authz"
	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

// Archivos del catálogo y la cantidad exacta de records de cada uno.
const (
	AuthorizationFile = "authorization-test-scenarios.json"
	RoleBasedFile     = "role-based-authorization-scenarios.json"
	TefcaFile         = "tefca-interoperability-scenarios.json"

	AuthorizationCount = 20
	RoleBasedCount     = 15
	TefcaCount         = 20
)

// Scenario es un caso de prueba de autorización declarativo.
type Scenario struct {
	ScenarioID  string `json:"scenarioId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	UserID         string `json:"userId"`
	PatientID      string `json:"patientId"`
	OrganizationID string `json:"organizationId"`

	// AuthorizedPatients aplica a scenarios con rol PATIENT_PROXY.
	AuthorizedPatients []string `json:"authorizedPatients,omitempty"`

	RequestingRole  model.HealthcareRole   `json:"requestingRole"`
	AuthorizedRoles []model.HealthcareRole `json:"authorizedRoles,omitempty"`

	DataCategory      model.DataCategory   `json:"dataCategory"`
	AllowedCategories []model.DataCategory `json:"allowedCategories,omitempty"`
	ConsentStatus     model.ConsentStatus  `json:"consentStatus"`

	MultiFactorAuthRequired bool `json:"multiFactorAuthRequired"`
	MFACompleted            bool `json:"mfaCompleted"`
	TefcaCompliant          bool `json:"tefcaCompliant"`
	TefcaExchange           bool `json:"tefcaExchange"`
	EmergencyOverride       bool `json:"emergencyOverride"`

	// PERMIT | DENY
	ExpectedDecision string `json:"expectedDecision"`
}

// Principal arma el caller que describe el scenario.
func (s *Scenario) Principal() *model.Principal {
	userID := s.UserID
	if userID == "" {
		userID = "user-" + strings.ToLower(string(s.RequestingRole))
	}
	return &model.Principal{
		UserID:             userID,
		OrganizationID:     s.OrganizationID,
		Roles:              []model.HealthcareRole{s.RequestingRole},
		MFACompleted:       s.MFACompleted,
		AuthorizedPatients: s.AuthorizedPatients,
	}
}

// ConsentRecord arma el consent record que el scenario presupone en el store.
func (s *Scenario) ConsentRecord(now time.Time) *model.ConsentRecord {
	cats := s.AllowedCategories
	if len(cats) == 0 && s.DataCategory != "" {
		cats = []model.DataCategory{s.DataCategory}
	}
	rec := &model.ConsentRecord{
		PatientID:         s.PatientID,
		OrganizationID:    s.OrganizationID,
		Status:            s.ConsentStatus,
		AllowedCategories: cats,
		EffectiveAt:       now.Add(-24 * time.Hour),
	}
	if s.ConsentStatus == model.ConsentExpired {
		expired := now.Add(-time.Hour)
		rec.ExpiresAt = &expired
	}
	return rec
}

// AccessRequest traduce el scenario al request que evalúa el motor.
func (s *Scenario) AccessRequest() authz.AccessRequest {
	return authz.AccessRequest{
		Principal:         s.Principal(),
		PatientID:         s.PatientID,
		OrganizationID:    s.OrganizationID,
		Category:          s.DataCategory,
		RequireMFA:        s.MultiFactorAuthRequired,
		EmergencyOverride: s.EmergencyOverride,
		TefcaExchange:     s.TefcaExchange,
	}
}
