// Package errors mapea la taxonomía de errores del flujo a respuestas HTTP.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/integrationhub/internal/integration"
)

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rid := w.Header().Get("X-Request-ID")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{
		Error:            code,
		ErrorDescription: desc,
		RequestID:        rid,
	})
}

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteFlowError clasifica err y escribe la respuesta. Retorna el código
// usado, útil para métricas por outcome.
func WriteFlowError(w http.ResponseWriter, err error) string {
	status, code, desc := MapFlowError(err)
	WriteError(w, status, code, desc)
	return code
}

// MapFlowError traduce la taxonomía del flujo a (status, code, detail).
//
//   - input inválido / state roto / mismatch → 4xx, nunca reintentables
//   - rechazo del proveedor → 400 con el mensaje verbatim
//   - fallas del lado del proveedor → 502, el caller puede reintentar el flujo
//   - integridad de datos → 500, requiere reiniciar la autorización
func MapFlowError(err error) (int, string, string) {
	var denied *integration.ProviderDeniedError
	var exchange *integration.ExchangeError
	var upstream *integration.UpstreamError

	switch {
	case errors.As(err, &denied):
		return http.StatusBadRequest, "provider_denied", denied.Reason
	case errors.As(err, &exchange):
		return http.StatusBadGateway, "token_exchange_rejected", exchange.Error()
	case errors.As(err, &upstream):
		return http.StatusBadGateway, "provider_error", upstream.Error()
	case errors.Is(err, integration.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, integration.ErrMissingParameter):
		return http.StatusBadRequest, "missing_parameter", err.Error()
	case errors.Is(err, integration.ErrMalformedState):
		return http.StatusBadRequest, "malformed_state", err.Error()
	case errors.Is(err, integration.ErrStateExpired):
		return http.StatusBadRequest, "state_expired_or_unknown", err.Error()
	case errors.Is(err, integration.ErrStateMismatch):
		return http.StatusBadRequest, "state_mismatch", err.Error()
	case errors.Is(err, integration.ErrMissingToken):
		return http.StatusBadRequest, "missing_token", err.Error()
	case errors.Is(err, integration.ErrCredentialsNotFound):
		return http.StatusNotFound, "credentials_not_found", err.Error()
	case errors.Is(err, integration.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "provider_unavailable", err.Error()
	case errors.Is(err, integration.ErrInvalidTokenResponse):
		return http.StatusInternalServerError, "invalid_token_response", err.Error()
	case errors.Is(err, integration.ErrCorruptedRecord):
		return http.StatusInternalServerError, "corrupted_record", err.Error()
	default:
		return http.StatusInternalServerError, "internal_error", "unexpected error"
	}
}
