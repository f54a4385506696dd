package authz

import (
	"context"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/observability/logger"
)

// Decision values returned by Evaluate.
const (
	DecisionPermit = "PERMIT"
	DecisionDeny   = "DENY"
)

// AccessRequest describe un intento de acceso a datos de un paciente.
type AccessRequest struct {
	Principal      *model.Principal
	PatientID      string
	OrganizationID string
	Category       model.DataCategory

	// RequireMFA exige que el principal haya completado un segundo factor.
	RequireMFA bool

	// EmergencyOverride pide acceso break-glass: se saltea el consent,
	// nunca la auditoría.
	EmergencyOverride bool

	// TefcaExchange marca el request como query/respuesta entre QHINs.
	TefcaExchange bool
}

// Decision es el veredicto del motor con su justificación.
type Decision struct {
	Decision string `json:"decision"` // PERMIT | DENY
	Reason   string `json:"reason,omitempty"`
	// BreakGlass indica que el PERMIT salió por override de emergencia.
	BreakGlass bool `json:"breakGlass,omitempty"`
	// Consent acompaña la decisión cuando hubo verificación de consent.
	Consent *model.VerificationResult `json:"consent,omitempty"`
}

func permit() *Decision            { return &Decision{Decision: DecisionPermit} }
func deny(reason string) *Decision { return &Decision{Decision: DecisionDeny, Reason: reason} }

// ConsentVerifier es lo que el motor necesita del consent service.
type ConsentVerifier interface {
	VerifyForCategories(ctx context.Context, patientID, organizationID string, cats []model.DataCategory) (*model.VerificationResult, error)
}

// Engine combina RBAC, MFA, consent y break-glass en una sola decisión.
//
// Orden de evaluación: identidad → rol/permiso → alcance por paciente →
// MFA → break-glass → consent. El primer DENY corta; break-glass permite
// sin mirar consent pero queda auditado.
type Engine struct {
	authorizer *Authorizer
	consent    ConsentVerifier
}

// NewEngine crea el motor de decisión.
func NewEngine(a *Authorizer, cv ConsentVerifier) *Engine {
	return &Engine{authorizer: a, consent: cv}
}

// Evaluate resuelve un AccessRequest.
func (e *Engine) Evaluate(ctx context.Context, req AccessRequest) (*Decision, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("Engine.Evaluate"),
		logger.PatientID(req.PatientID),
		logger.OrganizationID(req.OrganizationID),
		logger.Category(string(req.Category)),
	)

	p := req.Principal
	if p == nil || p.UserID == "" {
		return deny("no authenticated principal"), nil
	}
	if req.PatientID == "" || req.OrganizationID == "" {
		return deny("patient and organization are required"), nil
	}
	if req.Category != "" && !req.Category.Valid() {
		return deny("unknown data category"), nil
	}

	if !e.authorizer.CanAccessPatientData(ctx, p, req.PatientID) {
		log.Info("access denied", logger.Decision(DecisionDeny), logger.String("cause", "rbac"))
		return deny("role does not permit access to this patient's data"), nil
	}

	if req.TefcaExchange && !e.authorizer.HasPermission(ctx, p, model.PermTefcaQuery) {
		log.Info("access denied", logger.Decision(DecisionDeny), logger.String("cause", "tefca"))
		return deny("principal is not a TEFCA exchange participant"), nil
	}

	if req.RequireMFA && !p.MFACompleted {
		log.Info("access denied", logger.Decision(DecisionDeny), logger.String("cause", "mfa"))
		return deny("multi-factor authentication required"), nil
	}

	if req.EmergencyOverride {
		if !e.authorizer.HasPermission(ctx, p, model.PermBreakGlass) {
			log.Info("access denied", logger.Decision(DecisionDeny), logger.String("cause", "break_glass"))
			return deny("role cannot invoke emergency override"), nil
		}
		log.Warn("break-glass access granted", logger.Decision(DecisionPermit), logger.UserID(p.UserID))
		if e.authorizer.audit != nil {
			e.authorizer.audit.BreakGlass(ctx, p.UserID, req.PatientID, map[string]any{
				"organization_id": req.OrganizationID,
				"category":        string(req.Category),
			})
		}
		d := permit()
		d.BreakGlass = true
		d.Reason = "emergency override"
		return d, nil
	}

	// Patient self-access does not hinge on an inter-org consent record.
	if p.HasRole(model.RolePatient) && p.UserID == req.PatientID {
		return permit(), nil
	}

	var cats []model.DataCategory
	if req.Category != "" {
		cats = []model.DataCategory{req.Category}
	}
	res, err := e.consent.VerifyForCategories(ctx, req.PatientID, req.OrganizationID, cats)
	if err != nil {
		return nil, err
	}
	if !res.Valid() {
		log.Info("access denied", logger.Decision(DecisionDeny), logger.String("cause", "consent"))
		d := deny(res.Reason)
		d.Consent = res
		return d, nil
	}
	if len(res.DeniedCategories) > 0 {
		log.Info("access denied", logger.Decision(DecisionDeny), logger.String("cause", "consent_category"))
		d := deny("consent does not cover requested category")
		d.Consent = res
		return d, nil
	}

	log.Debug("access permitted", logger.Decision(DecisionPermit))
	d := permit()
	d.Consent = res
	return d, nil
}
