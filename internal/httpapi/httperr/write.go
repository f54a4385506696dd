package httperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bridgehealth/consentbridge/internal/domain/repository"
)

// errorResponse estructura interna para la serialización JSON.
// Controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Maneja automáticamente errores *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// FromRepository traduce errores de la capa de repositorio a AppError.
func FromRepository(err error) *AppError {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrConsentNotFound.WithCause(err)
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict.WithCause(err)
	case errors.Is(err, repository.ErrInvalidInput):
		return ErrBadRequest.WithCause(err)
	default:
		return ErrInternalServerError.WithCause(err)
	}
}
