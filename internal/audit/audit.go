// Package audit registra el audit trail de autorización y consent.
//
// Cada evento se persiste vía AuditRepository y se loguea estructurado.
// El trail es append-only: nunca se edita ni borra.
package audit

import (
	"context"
	"time"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/domain/repository"
	"github.com/bridgehealth/consentbridge/internal/observability/logger"
)

// Recorder escribe eventos de auditoría.
type Recorder struct {
	repo repository.AuditRepository
}

// NewRecorder crea un Recorder sobre el repositorio dado.
func NewRecorder(repo repository.AuditRepository) *Recorder {
	return &Recorder{repo: repo}
}

// Record persiste un evento. Si la persistencia falla, el evento igual
// queda en el log estructurado; auditar nunca debe voltear la operación.
func (r *Recorder) Record(ctx context.Context, ev *model.AuditEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	log := logger.From(ctx).With(
		logger.Component("audit"),
		logger.String("action", string(ev.Action)),
		logger.String("actor", ev.Actor),
		logger.String("resource", ev.Resource),
		logger.String("outcome", string(ev.Outcome)),
	)

	if err := r.repo.Append(ctx, ev); err != nil {
		log.Error("audit event not persisted", logger.Err(err), logger.Any("details", ev.Details))
		return
	}
	log.Info("audit event recorded")
}

// Authorization registra el resultado de un chequeo RBAC.
func (r *Recorder) Authorization(ctx context.Context, actor string, perm model.Permission, granted bool, details map[string]any) {
	outcome := model.AuditFailure
	if granted {
		outcome = model.AuditSuccess
	}
	if details == nil {
		details = map[string]any{}
	}
	details["permission"] = string(perm)
	r.Record(ctx, &model.AuditEvent{
		Actor:    actor,
		Action:   model.AuditAuthorization,
		Resource: "permission:" + string(perm),
		Outcome:  outcome,
		Details:  details,
	})
}

// ConsentCheck registra una verificación de consent.
func (r *Recorder) ConsentCheck(ctx context.Context, actor string, res *model.VerificationResult) {
	outcome := model.AuditFailure
	if res.Valid() {
		outcome = model.AuditSuccess
	}
	r.Record(ctx, &model.AuditEvent{
		Actor:    actor,
		Action:   model.AuditConsentCheck,
		Resource: "patient:" + res.PatientID,
		Outcome:  outcome,
		Details: map[string]any{
			"organization_id": res.OrganizationID,
			"result":          string(res.Outcome),
			"reason":          res.Reason,
		},
	})
}

// ConsentChange registra altas, renovaciones y revocaciones de consent.
func (r *Recorder) ConsentChange(ctx context.Context, actor, patientID, organizationID, change string) {
	r.Record(ctx, &model.AuditEvent{
		Actor:    actor,
		Action:   model.AuditConsentChange,
		Resource: "patient:" + patientID,
		Outcome:  model.AuditSuccess,
		Details: map[string]any{
			"organization_id": organizationID,
			"change":          change,
		},
	})
}

// BreakGlass registra un acceso de emergencia. Siempre SUCCESS: el override
// concede el acceso, y el evento es la evidencia para revisión posterior.
func (r *Recorder) BreakGlass(ctx context.Context, actor, patientID string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	details["emergency_override"] = true
	r.Record(ctx, &model.AuditEvent{
		Actor:    actor,
		Action:   model.AuditBreakGlass,
		Resource: "patient:" + patientID,
		Outcome:  model.AuditSuccess,
		Details:  details,
	})
}
