package middlewares

import (
	"net/http"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/bridgehealth/consentbridge/internal/authz"
	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/httpapi/httperr"
	"github.com/bridgehealth/consentbridge/internal/jwt"
)

// WithAuth valida el bearer token y deja el Principal en el contexto.
func WithAuth(issuer *jwt.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httperr.WriteError(w, httperr.ErrTokenMissing)
				return
			}

			p, err := issuer.Parse(raw)
			if err != nil {
				if strings.Contains(err.Error(), jwtv5.ErrTokenExpired.Error()) {
					httperr.WriteError(w, httperr.ErrTokenExpired)
					return
				}
				httperr.WriteError(w, httperr.ErrTokenInvalid.WithCause(err))
				return
			}

			ctx := WithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole exige que el principal tenga al menos uno de los roles.
func RequireRole(roles ...model.HealthcareRole) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				httperr.WriteError(w, httperr.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if p.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httperr.WriteError(w, httperr.ErrForbidden)
		})
	}
}

// RequirePermission exige que algún rol del principal otorgue el permiso.
func RequirePermission(perm model.Permission) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				httperr.WriteError(w, httperr.ErrUnauthorized)
				return
			}
			for _, role := range p.Roles {
				if authz.RoleHasPermission(role, perm) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httperr.WriteError(w, httperr.ErrForbidden)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
