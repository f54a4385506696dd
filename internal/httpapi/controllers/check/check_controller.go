// Package check contiene el controller del motor de decisiones de acceso.
package check

import (
	"net/http"

	"github.com/bridgehealth/consentbridge/internal/authz"
	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/httpapi/dto"
	"github.com/bridgehealth/consentbridge/internal/httpapi/helpers"
	"github.com/bridgehealth/consentbridge/internal/httpapi/httperr"
	"github.com/bridgehealth/consentbridge/internal/httpapi/middlewares"
	"github.com/bridgehealth/consentbridge/internal/observability/logger"
)

// Controller evalúa requests de acceso contra RBAC, MFA y consent.
type Controller struct {
	engine *authz.Engine
	// observe recibe cada decisión para métricas. Puede ser nil.
	observe func(decision string, breakGlass bool)
}

// NewController crea el controller.
func NewController(engine *authz.Engine, observe func(decision string, breakGlass bool)) *Controller {
	return &Controller{engine: engine, observe: observe}
}

// Check maneja POST /v1/access/check
func (c *Controller) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Check.Check"))

	p := middlewares.GetPrincipal(ctx)
	if p == nil {
		httperr.WriteError(w, httperr.ErrUnauthorized)
		return
	}

	var req dto.AccessCheckRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		httperr.WriteError(w, httperr.ErrMissingFields.WithDetail("patientId es requerido"))
		return
	}

	var cat model.DataCategory
	if req.DataCategory != "" {
		parsed, err := model.ParseDataCategory(req.DataCategory)
		if err != nil {
			httperr.WriteError(w, httperr.ErrInvalidCategory.WithDetail(req.DataCategory))
			return
		}
		cat = parsed
	}

	orgID := req.OrganizationID
	if orgID == "" {
		orgID = p.OrganizationID
	}

	decision, err := c.engine.Evaluate(ctx, authz.AccessRequest{
		Principal:         p,
		PatientID:         req.PatientID,
		OrganizationID:    orgID,
		Category:          cat,
		RequireMFA:        req.RequireMFA,
		EmergencyOverride: req.EmergencyOverride,
		TefcaExchange:     req.TefcaExchange,
	})
	if err != nil {
		log.Error("decision engine failed", logger.PatientID(req.PatientID), logger.Err(err))
		httperr.WriteError(w, httperr.ErrInternalServerError.WithCause(err))
		return
	}

	if c.observe != nil {
		c.observe(decision.Decision, decision.BreakGlass)
	}
	log.Info("access evaluated",
		logger.PatientID(req.PatientID),
		logger.Decision(decision.Decision),
	)
	helpers.WriteJSON(w, http.StatusOK, dto.AccessCheckResponse{
		Decision:   decision.Decision,
		Reason:     decision.Reason,
		BreakGlass: decision.BreakGlass,
		Consent:    decision.Consent,
	})
}
