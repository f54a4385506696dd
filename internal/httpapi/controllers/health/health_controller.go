// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/bridgehealth/consentbridge/internal/httpapi/dto"
	"github.com/bridgehealth/consentbridge/internal/httpapi/helpers"
)

// Pinger es cualquier dependencia que puede reportar si está viva.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller maneja /livez y /readyz.
type Controller struct {
	checks map[string]Pinger
}

// NewController crea el controller con los checks nombrados.
func NewController(checks map[string]Pinger) *Controller {
	return &Controller{checks: checks}
}

// Livez maneja GET /livez. Siempre OK si el proceso responde.
func (c *Controller) Livez(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// Readyz maneja GET /readyz. Consulta cada dependencia con timeout corto.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "ready", Checks: make(map[string]string, len(c.checks))}
	status := http.StatusOK

	for name, p := range c.checks {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	helpers.WriteJSON(w, status, resp)
}
