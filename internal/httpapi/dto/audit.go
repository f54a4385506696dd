package dto

import "github.com/bridgehealth/consentbridge/internal/domain/model"

// AuditListResponse lista eventos del audit trail, más recientes primero.
type AuditListResponse struct {
	Events []model.AuditEvent `json:"events"`
	Count  int                `json:"count"`
}
