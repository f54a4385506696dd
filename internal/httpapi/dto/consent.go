// Package dto define los contratos JSON de la API pública.
package dto

import (
	"encoding/json"
	"time"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

// GrantConsentRequest crea o reemplaza el consent de un paciente con una organización.
type GrantConsentRequest struct {
	PatientID         string     `json:"patientId"`
	OrganizationID    string     `json:"organizationId"`
	AllowedCategories []string   `json:"allowedCategories"`
	EffectiveAt       *time.Time `json:"effectiveAt,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	PolicyReference   string     `json:"policyReference,omitempty"`
}

// RenewConsentRequest reactiva un consent vencido, revocado o suspendido.
type RenewConsentRequest struct {
	EffectiveAt *time.Time `json:"effectiveAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// ConsentResponse es la vista pública de un ConsentRecord.
type ConsentResponse struct {
	ID                string     `json:"id"`
	PatientID         string     `json:"patientId"`
	OrganizationID    string     `json:"organizationId"`
	Status            string     `json:"status"`
	AllowedCategories []string   `json:"allowedCategories"`
	EffectiveAt       time.Time  `json:"effectiveAt"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	PolicyReference   string     `json:"policyReference,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// NewConsentResponse convierte el modelo de dominio al contrato público.
func NewConsentResponse(rec *model.ConsentRecord) ConsentResponse {
	cats := make([]string, 0, len(rec.AllowedCategories))
	for _, c := range rec.AllowedCategories {
		cats = append(cats, string(c))
	}
	return ConsentResponse{
		ID:                rec.ID,
		PatientID:         rec.PatientID,
		OrganizationID:    rec.OrganizationID,
		Status:            string(rec.Status),
		AllowedCategories: cats,
		EffectiveAt:       rec.EffectiveAt,
		ExpiresAt:         rec.ExpiresAt,
		PolicyReference:   rec.PolicyReference,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

// ConsentListResponse lista los consents de un paciente.
type ConsentListResponse struct {
	Consents []ConsentResponse `json:"consents"`
	Count    int               `json:"count"`
}

// FilterResourceRequest pide filtrar un recurso FHIR según el consent vigente.
type FilterResourceRequest struct {
	ResourceID   string          `json:"resourceId,omitempty"`
	ResourceType string          `json:"resourceType"`
	FHIRVersion  string          `json:"fhirVersion,omitempty"`
	Content      json.RawMessage `json:"content"`
}

// FilteredResourceResponse devuelve el recurso recortado.
type FilteredResourceResponse struct {
	ResourceID   string          `json:"resourceId,omitempty"`
	ResourceType string          `json:"resourceType"`
	FHIRVersion  string          `json:"fhirVersion,omitempty"`
	Content      json.RawMessage `json:"content"`
}
