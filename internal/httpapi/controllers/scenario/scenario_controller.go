// Package scenario contiene el controller de solo lectura del catálogo
// de escenarios y el replay contra el motor de decisiones.
package scenario

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bridgehealth/consentbridge/internal/authz"
	"github.com/bridgehealth/consentbridge/internal/httpapi/dto"
	"github.com/bridgehealth/consentbridge/internal/httpapi/helpers"
	"github.com/bridgehealth/consentbridge/internal/httpapi/httperr"
	scn "github.com/bridgehealth/consentbridge/internal/scenario"
)

// Controller sirve el catálogo cargado en memoria al arrancar.
type Controller struct {
	catalog *scn.Catalog
	engine  *authz.Engine
}

// NewController crea el controller. El engine es opcional; sin él el
// endpoint de replay responde 503.
func NewController(catalog *scn.Catalog, engine *authz.Engine) *Controller {
	return &Controller{catalog: catalog, engine: engine}
}

func (c *Controller) set(name string) ([]scn.Scenario, bool) {
	switch name {
	case "authorization":
		return c.catalog.Authorization, true
	case "role-based":
		return c.catalog.RoleBased, true
	case "tefca":
		return c.catalog.Tefca, true
	}
	return nil, false
}

// List maneja GET /v1/scenarios
// Con ?set=authorization|role-based|tefca filtra un solo archivo.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	setName := r.URL.Query().Get("set")
	if setName == "" {
		all := c.catalog.All()
		helpers.WriteJSON(w, http.StatusOK, dto.ScenarioListResponse{Scenarios: all, Count: len(all)})
		return
	}

	scenarios, ok := c.set(setName)
	if !ok {
		httperr.WriteError(w, httperr.ErrInvalidParameter.WithDetail("set debe ser authorization, role-based o tefca"))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ScenarioListResponse{
		Set:       setName,
		Scenarios: scenarios,
		Count:     len(scenarios),
	})
}

// Get maneja GET /v1/scenarios/{scenarioID}
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scenarioID")
	for _, s := range c.catalog.All() {
		if s.ScenarioID == id {
			helpers.WriteJSON(w, http.StatusOK, s)
			return
		}
	}
	httperr.WriteError(w, httperr.ErrScenarioNotFound.WithDetail(id))
}

// Replay maneja POST /v1/scenarios/{scenarioID}/replay
// Corre el escenario por el motor real y compara con lo esperado.
func (c *Controller) Replay(w http.ResponseWriter, r *http.Request) {
	if c.engine == nil {
		httperr.WriteError(w, httperr.ErrServiceUnavailable.WithDetail("decision engine not wired"))
		return
	}

	id := chi.URLParam(r, "scenarioID")
	var found *scn.Scenario
	for _, s := range c.catalog.All() {
		if s.ScenarioID == id {
			sc := s
			found = &sc
			break
		}
	}
	if found == nil {
		httperr.WriteError(w, httperr.ErrScenarioNotFound.WithDetail(id))
		return
	}

	decision, err := c.engine.Evaluate(r.Context(), found.AccessRequest())
	if err != nil {
		httperr.WriteError(w, httperr.ErrInternalServerError.WithCause(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ScenarioReplayResponse{
		ScenarioID:       found.ScenarioID,
		ExpectedDecision: found.ExpectedDecision,
		ActualDecision:   decision.Decision,
		Reason:           decision.Reason,
		Match:            decision.Decision == found.ExpectedDecision,
	})
}
