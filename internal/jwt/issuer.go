// Package jwt emite y valida los access tokens del servicio.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

// Issuer firma tokens HS256 con el secreto del servicio.
type Issuer struct {
	Iss       string
	secret    []byte
	AccessTTL time.Duration
}

// NewIssuer crea un Issuer. El TTL por defecto es 15m.
func NewIssuer(iss string, secret []byte) *Issuer {
	return &Issuer{
		Iss:       iss,
		secret:    secret,
		AccessTTL: 15 * time.Minute,
	}
}

// Claims son las claims propias del bridge dentro del JWT.
type Claims struct {
	OrganizationID     string   `json:"org"`
	Roles              []string `json:"roles"`
	MFACompleted       bool     `json:"mfa,omitempty"`
	AuthorizedPatients []string `json:"patients,omitempty"`
	jwtv5.RegisteredClaims
}

// Sign emite un token para el principal.
func (i *Issuer) Sign(p *model.Principal) (string, error) {
	if p == nil || p.UserID == "" {
		return "", errors.New("principal with user id is required")
	}
	now := time.Now()
	roles := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		roles = append(roles, string(r))
	}
	claims := Claims{
		OrganizationID:     p.OrganizationID,
		Roles:              roles,
		MFACompleted:       p.MFACompleted,
		AuthorizedPatients: p.AuthorizedPatients,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   p.UserID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(i.AccessTTL)),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	return tk.SignedString(i.secret)
}

// Parse valida firma, issuer y expiración, y reconstruye el Principal.
func (i *Issuer) Parse(raw string) (*model.Principal, error) {
	var claims Claims
	tk, err := jwtv5.ParseWithClaims(raw, &claims, func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	},
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !tk.Valid {
		return nil, errors.New("invalid token")
	}

	p := &model.Principal{
		UserID:             claims.Subject,
		OrganizationID:     claims.OrganizationID,
		MFACompleted:       claims.MFACompleted,
		AuthorizedPatients: claims.AuthorizedPatients,
	}
	for _, r := range claims.Roles {
		role, rerr := model.ParseHealthcareRole(r)
		if rerr != nil {
			// Roles desconocidos se descartan, no voltean el token.
			continue
		}
		p.Roles = append(p.Roles, role)
	}
	return p, nil
}
