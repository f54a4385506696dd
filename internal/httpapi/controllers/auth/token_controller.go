// Package auth contiene el controller de emisión de tokens.
package auth

import (
	"net/http"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/httpapi/dto"
	"github.com/bridgehealth/consentbridge/internal/httpapi/helpers"
	"github.com/bridgehealth/consentbridge/internal/httpapi/httperr"
	"github.com/bridgehealth/consentbridge/internal/jwt"
	"github.com/bridgehealth/consentbridge/internal/observability/logger"
	"github.com/bridgehealth/consentbridge/internal/security"
)

// TokenController emite access tokens HS256 para actores del sistema,
// previa autenticación del cliente API con client secret.
type TokenController struct {
	issuer *jwt.Issuer
	// clients mapea client id -> hash bcrypt del secret.
	clients map[string]string
}

// NewTokenController crea el controller. Sin clientes configurados toda
// emisión se rechaza.
func NewTokenController(issuer *jwt.Issuer, clients map[string]string) *TokenController {
	return &TokenController{issuer: issuer, clients: clients}
}

// Token maneja POST /v1/auth/token
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokenController.Token"))

	var req dto.TokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if req.ClientID == "" || req.ClientSecret == "" {
		httperr.WriteError(w, httperr.ErrMissingFields.WithDetail("clientId y clientSecret son requeridos"))
		return
	}
	hash, ok := c.clients[req.ClientID]
	if !ok || !security.VerifySecret(req.ClientSecret, hash) {
		log.Warn("token request rejected", logger.String("client_id", req.ClientID))
		httperr.WriteError(w, httperr.ErrInvalidClient)
		return
	}

	if req.UserID == "" || len(req.Roles) == 0 {
		httperr.WriteError(w, httperr.ErrMissingFields.WithDetail("userId y roles son requeridos"))
		return
	}

	roles := make([]model.HealthcareRole, 0, len(req.Roles))
	for _, raw := range req.Roles {
		role, err := model.ParseHealthcareRole(raw)
		if err != nil {
			httperr.WriteError(w, httperr.ErrInvalidRole.WithDetail(raw))
			return
		}
		roles = append(roles, role)
	}

	p := &model.Principal{
		UserID:             req.UserID,
		OrganizationID:     req.OrganizationID,
		Roles:              roles,
		MFACompleted:       req.MFACompleted,
		AuthorizedPatients: req.AuthorizedPatients,
	}

	token, err := c.issuer.Sign(p)
	if err != nil {
		log.Error("token signing failed", logger.Err(err))
		httperr.WriteError(w, httperr.ErrInternalServerError.WithCause(err))
		return
	}

	log.Info("token issued", logger.UserID(req.UserID), logger.Int("roles", len(roles)))
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(c.issuer.AccessTTL.Seconds()),
	})
}
