// Package audit contiene el controller de consulta del audit trail.
package audit

import (
	"net/http"
	"strconv"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/domain/repository"
	"github.com/bridgehealth/consentbridge/internal/httpapi/dto"
	"github.com/bridgehealth/consentbridge/internal/httpapi/helpers"
	"github.com/bridgehealth/consentbridge/internal/httpapi/httperr"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Controller expone el audit trail en modo sólo lectura.
type Controller struct {
	repo repository.AuditRepository
}

// NewController crea el controller.
func NewController(repo repository.AuditRepository) *Controller {
	return &Controller{repo: repo}
}

// List maneja GET /v1/audit?actor=...|resource=...&limit=N
// Exige exactamente uno de actor o resource.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	actor := q.Get("actor")
	resource := q.Get("resource")

	if (actor == "") == (resource == "") {
		httperr.WriteError(w, httperr.ErrInvalidParameter.WithDetail("exactly one of actor or resource is required"))
		return
	}

	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httperr.WriteError(w, httperr.ErrInvalidParameter.WithDetail("limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var (
		events []model.AuditEvent
		err    error
	)
	if actor != "" {
		events, err = c.repo.ListByActor(ctx, actor, limit)
	} else {
		events, err = c.repo.ListByResource(ctx, resource, limit)
	}
	if err != nil {
		httperr.WriteError(w, httperr.FromRepository(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.AuditListResponse{Events: events, Count: len(events)})
}
