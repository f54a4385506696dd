package middlewares

import (
	"context"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

type ctxKey string

const (
	// ctxPrincipalKey guarda el Principal autenticado
	ctxPrincipalKey ctxKey = "principal"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithPrincipal inyecta el Principal autenticado en el contexto.
func WithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetPrincipal obtiene el Principal del contexto.
// Retorna nil si el middleware de auth no corrió.
func GetPrincipal(ctx context.Context) *model.Principal {
	if v := ctx.Value(ctxPrincipalKey); v != nil {
		if p, ok := v.(*model.Principal); ok {
			return p
		}
	}
	return nil
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
