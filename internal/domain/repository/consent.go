package repository

import (
	"context"
	"time"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

// ConsentRepository define operaciones sobre consent records.
type ConsentRepository interface {
	// Upsert crea o actualiza el consent de (patientID, organizationID),
	// reemplazando categorías y ventana de validez.
	Upsert(ctx context.Context, rec *model.ConsentRecord) (*model.ConsentRecord, error)

	// Get obtiene el consent de un paciente para una organización.
	// Retorna ErrNotFound si no existe.
	Get(ctx context.Context, patientID, organizationID string) (*model.ConsentRecord, error)

	// ListByPatient lista todos los consents de un paciente.
	// Si activeOnly es true, filtra los que no están ACTIVE y vigentes a now.
	ListByPatient(ctx context.Context, patientID string, activeOnly bool, now time.Time) ([]model.ConsentRecord, error)

	// ListExpired lista consents con fecha de expiración pasada cuyo status
	// todavía no es EXPIRED.
	ListExpired(ctx context.Context, now time.Time) ([]model.ConsentRecord, error)

	// UpdateStatus cambia el status de un consent existente.
	UpdateStatus(ctx context.Context, patientID, organizationID string, status model.ConsentStatus) error

	// Revoke revoca un consent (status REVOKED, conserva el registro).
	Revoke(ctx context.Context, patientID, organizationID string) error
}

// AuditRepository persiste el audit trail. Append-only.
type AuditRepository interface {
	// Append agrega un evento al trail.
	Append(ctx context.Context, ev *model.AuditEvent) error

	// ListByActor lista eventos de un actor, más recientes primero.
	ListByActor(ctx context.Context, actor string, limit int) ([]model.AuditEvent, error)

	// ListByResource lista eventos sobre un recurso, más recientes primero.
	ListByResource(ctx context.Context, resource string, limit int) ([]model.AuditEvent, error)
}
