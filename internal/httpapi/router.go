package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bridgehealth/consentbridge/internal/authz"
	consentsvc "github.com/bridgehealth/consentbridge/internal/consent"
	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/domain/repository"
	auditctrl "github.com/bridgehealth/consentbridge/internal/httpapi/controllers/audit"
	authctrl "github.com/bridgehealth/consentbridge/internal/httpapi/controllers/auth"
	checkctrl "github.com/bridgehealth/consentbridge/internal/httpapi/controllers/check"
	consentctrl "github.com/bridgehealth/consentbridge/internal/httpapi/controllers/consent"
	healthctrl "github.com/bridgehealth/consentbridge/internal/httpapi/controllers/health"
	scenarioctrl "github.com/bridgehealth/consentbridge/internal/httpapi/controllers/scenario"
	"github.com/bridgehealth/consentbridge/internal/httpapi/httperr"
	mw "github.com/bridgehealth/consentbridge/internal/httpapi/middlewares"
	"github.com/bridgehealth/consentbridge/internal/jwt"
	"github.com/bridgehealth/consentbridge/internal/rate"
	scn "github.com/bridgehealth/consentbridge/internal/scenario"
)

// RouterDeps agrupa las dependencias del router.
type RouterDeps struct {
	Issuer  *jwt.Issuer
	Consent *consentsvc.Service
	Engine  *authz.Engine
	Catalog *scn.Catalog

	// APIClients autoriza la emisión de tokens: client id -> hash bcrypt
	// del secret. Vacío significa emisión cerrada.
	APIClients map[string]string

	// Audits habilita la consulta del audit trail. Opcional.
	Audits repository.AuditRepository

	// TokenLimiter protege el endpoint de emisión de tokens. Opcional.
	TokenLimiter rate.Limiter

	// HealthChecks son las dependencias consultadas por /readyz.
	HealthChecks map[string]healthctrl.Pinger

	// MetricsHandler sirve /metrics. Opcional.
	MetricsHandler http.Handler
}

// NewRouter arma el router completo del servicio.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperr.WriteError(w, httperr.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperr.WriteError(w, httperr.ErrMethodNotAllowed)
	})

	// Observabilidad y salud, sin auth.
	hc := healthctrl.NewController(deps.HealthChecks)
	r.Get("/livez", hc.Livez)
	r.Get("/readyz", hc.Readyz)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Emisión de tokens: exige client credentials y va rate-limited por IP.
	tc := authctrl.NewTokenController(deps.Issuer, deps.APIClients)
	r.Group(func(g chi.Router) {
		g.Use(mw.WithNoStore())
		g.Use(mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.TokenLimiter}))
		g.Post("/v1/auth/token", tc.Token)
	})

	// Todo lo demás exige bearer token.
	r.Group(func(g chi.Router) {
		g.Use(mw.WithAuth(deps.Issuer))
		g.Use(mw.WithNoStore())

		cc := checkctrl.NewController(deps.Engine, ObserveDecision)
		g.Post("/v1/access/check", cc.Check)

		kc := consentctrl.NewController(deps.Consent, ObserveVerification)
		g.Route("/v1/consents", func(cr chi.Router) {
			cr.With(mw.RequirePermission(model.PermWriteConsent)).Post("/", kc.Grant)
			cr.With(mw.RequirePermission(model.PermReadConsent)).Get("/{patientID}", kc.List)
			cr.With(mw.RequirePermission(model.PermReadConsent)).Get("/{patientID}/{organizationID}", kc.Get)
			cr.With(mw.RequirePermission(model.PermWriteConsent)).Delete("/{patientID}/{organizationID}", kc.Revoke)
			cr.With(mw.RequirePermission(model.PermWriteConsent)).Post("/{patientID}/{organizationID}/renew", kc.Renew)
			cr.With(mw.RequirePermission(model.PermReadConsent)).Get("/{patientID}/{organizationID}/verify", kc.Verify)
			cr.With(mw.RequirePermission(model.PermReadPatientData)).Post("/{patientID}/{organizationID}/filter", kc.Filter)
		})

		if deps.Audits != nil {
			ac := auditctrl.NewController(deps.Audits)
			g.With(mw.RequirePermission(model.PermReadAuditLogs)).Get("/v1/audit", ac.List)
		}

		if deps.Catalog != nil {
			sc := scenarioctrl.NewController(deps.Catalog, deps.Engine)
			g.Route("/v1/scenarios", func(sr chi.Router) {
				sr.Get("/", sc.List)
				sr.Get("/{scenarioID}", sc.Get)
				sr.Post("/{scenarioID}/replay", sc.Replay)
			})
		}
	})

	return mw.Chain(r,
		mw.WithRequestID(),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
		mw.WithLogging(),
		WithMetrics,
	)
}
