// Package consent contiene el controller del ciclo de vida de consents.
package consent

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	consentsvc "github.com/bridgehealth/consentbridge/internal/consent"
	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/domain/repository"
	"github.com/bridgehealth/consentbridge/internal/httpapi/dto"
	"github.com/bridgehealth/consentbridge/internal/httpapi/helpers"
	"github.com/bridgehealth/consentbridge/internal/httpapi/httperr"
	"github.com/bridgehealth/consentbridge/internal/httpapi/middlewares"
	"github.com/bridgehealth/consentbridge/internal/observability/logger"
)

// Controller expone el CRUD, la verificación y el filtrado de consents.
type Controller struct {
	svc     *consentsvc.Service
	observe func(outcome string)
}

// NewController crea el controller. observe recibe el outcome de cada
// verificación para las métricas; puede ser nil.
func NewController(svc *consentsvc.Service, observe func(outcome string)) *Controller {
	return &Controller{svc: svc, observe: observe}
}

func actor(r *http.Request) string {
	if p := middlewares.GetPrincipal(r.Context()); p != nil {
		return p.UserID
	}
	return "anonymous"
}

// Grant maneja POST /v1/consents
func (c *Controller) Grant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Consent.Grant"))

	var req dto.GrantConsentRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.PatientID == "" || req.OrganizationID == "" {
		httperr.WriteError(w, httperr.ErrMissingFields.WithDetail("patientId y organizationId son requeridos"))
		return
	}

	cats := make([]model.DataCategory, 0, len(req.AllowedCategories))
	for _, raw := range req.AllowedCategories {
		cat, err := model.ParseDataCategory(raw)
		if err != nil {
			httperr.WriteError(w, httperr.ErrInvalidCategory.WithDetail(raw))
			return
		}
		cats = append(cats, cat)
	}

	effective := time.Now().UTC()
	if req.EffectiveAt != nil {
		effective = *req.EffectiveAt
	}
	rec := &model.ConsentRecord{
		PatientID:         req.PatientID,
		OrganizationID:    req.OrganizationID,
		Status:            model.ConsentActive,
		AllowedCategories: cats,
		EffectiveAt:       effective,
		ExpiresAt:         req.ExpiresAt,
		PolicyReference:   req.PolicyReference,
	}

	if err := c.svc.ValidatePolicy(rec); err != nil {
		httperr.WriteError(w, httperr.ErrInvalidConsentPolicy.WithDetail(err.Error()))
		return
	}

	out, err := c.svc.Grant(ctx, actor(r), rec)
	if err != nil {
		log.Error("consent grant failed", logger.PatientID(req.PatientID), logger.Err(err))
		httperr.WriteError(w, httperr.FromRepository(err))
		return
	}

	log.Info("consent granted",
		logger.PatientID(out.PatientID),
		logger.OrganizationID(out.OrganizationID),
	)
	helpers.WriteJSON(w, http.StatusCreated, dto.NewConsentResponse(out))
}

// List maneja GET /v1/consents/{patientID}
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID := chi.URLParam(r, "patientID")

	recs, err := c.svc.ListActiveForPatient(ctx, patientID)
	if err != nil {
		httperr.WriteError(w, httperr.FromRepository(err))
		return
	}

	resp := dto.ConsentListResponse{Consents: make([]dto.ConsentResponse, 0, len(recs))}
	for i := range recs {
		resp.Consents = append(resp.Consents, dto.NewConsentResponse(&recs[i]))
	}
	resp.Count = len(resp.Consents)
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Get maneja GET /v1/consents/{patientID}/{organizationID}
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID := chi.URLParam(r, "patientID")
	orgID := chi.URLParam(r, "organizationID")

	rec, err := c.svc.Get(ctx, patientID, orgID)
	if err != nil {
		httperr.WriteError(w, httperr.FromRepository(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewConsentResponse(rec))
}

// Revoke maneja DELETE /v1/consents/{patientID}/{organizationID}
func (c *Controller) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Consent.Revoke"))
	patientID := chi.URLParam(r, "patientID")
	orgID := chi.URLParam(r, "organizationID")

	if err := c.svc.Revoke(ctx, actor(r), patientID, orgID); err != nil {
		httperr.WriteError(w, httperr.FromRepository(err))
		return
	}

	log.Info("consent revoked", logger.PatientID(patientID), logger.OrganizationID(orgID))
	w.WriteHeader(http.StatusNoContent)
}

// Renew maneja POST /v1/consents/{patientID}/{organizationID}/renew
func (c *Controller) Renew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Consent.Renew"))
	patientID := chi.URLParam(r, "patientID")
	orgID := chi.URLParam(r, "organizationID")

	var req dto.RenewConsentRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	effective := time.Now().UTC()
	if req.EffectiveAt != nil {
		effective = *req.EffectiveAt
	}

	out, err := c.svc.Renew(ctx, actor(r), patientID, orgID, effective, req.ExpiresAt)
	if err != nil {
		switch {
		case repository.IsNotFound(err):
			httperr.WriteError(w, httperr.ErrConsentNotFound)
		case strings.Contains(err.Error(), "cannot be renewed"):
			httperr.WriteError(w, httperr.ErrConsentNotRenewable.WithDetail(err.Error()))
		default:
			httperr.WriteError(w, httperr.ErrInvalidConsentPolicy.WithDetail(err.Error()))
		}
		return
	}

	log.Info("consent renewed", logger.PatientID(patientID), logger.OrganizationID(orgID))
	helpers.WriteJSON(w, http.StatusOK, dto.NewConsentResponse(out))
}

// Verify maneja GET /v1/consents/{patientID}/{organizationID}/verify
// Acepta ?category=LAB_RESULTS repetido o separado por coma.
func (c *Controller) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID := chi.URLParam(r, "patientID")
	orgID := chi.URLParam(r, "organizationID")

	var cats []model.DataCategory
	for _, raw := range r.URL.Query()["category"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			cat, err := model.ParseDataCategory(part)
			if err != nil {
				httperr.WriteError(w, httperr.ErrInvalidCategory.WithDetail(part))
				return
			}
			cats = append(cats, cat)
		}
	}

	res, err := c.svc.VerifyForCategories(ctx, patientID, orgID, cats)
	if err != nil {
		httperr.WriteError(w, httperr.FromRepository(err))
		return
	}
	if c.observe != nil {
		c.observe(string(res.Outcome))
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Filter maneja POST /v1/consents/{patientID}/{organizationID}/filter
// Recorta un recurso FHIR según las categorías que cubre el consent vigente.
func (c *Controller) Filter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID := chi.URLParam(r, "patientID")
	orgID := chi.URLParam(r, "organizationID")

	var req dto.FilterResourceRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.ResourceType == "" || len(req.Content) == 0 {
		httperr.WriteError(w, httperr.ErrMissingFields.WithDetail("resourceType y content son requeridos"))
		return
	}

	rec, err := c.svc.GetActive(ctx, patientID, orgID)
	if repository.IsNotFound(err) {
		httperr.WriteError(w, httperr.ErrConsentDenied.WithDetail("no active consent on file"))
		return
	}
	if err != nil {
		httperr.WriteError(w, httperr.FromRepository(err))
		return
	}

	res := &consentsvc.Resource{
		ResourceID:   req.ResourceID,
		ResourceType: req.ResourceType,
		FHIRVersion:  req.FHIRVersion,
		Content:      req.Content,
	}
	out := consentsvc.FilterResource(res, rec, time.Now().UTC())
	if out == nil {
		httperr.WriteError(w, httperr.ErrConsentDenied.WithDetail("resource blocked by consent"))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.FilteredResourceResponse{
		ResourceID:   out.ResourceID,
		ResourceType: out.ResourceType,
		FHIRVersion:  out.FHIRVersion,
		Content:      out.Content,
	})
}
