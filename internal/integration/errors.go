package integration

import (
	"errors"
	"fmt"
)

// Errores del flujo de autorización e intercambio.
// Los controllers HTTP los mapean a status codes; acá solo clasificamos.
var (
	// ErrInvalidRequest: input del caller incompleto (user_id/org_id vacíos).
	ErrInvalidRequest = errors.New("integration: missing or invalid request input")

	// ErrMissingParameter: el callback llegó sin code o sin state.
	ErrMissingParameter = errors.New("integration: missing code or state in callback")

	// ErrMalformedState: el parámetro state no decodifica a un FlowState válido.
	ErrMalformedState = errors.New("integration: malformed state parameter")

	// ErrStateExpired: no hay state/verifier guardado para la identidad del
	// state decodificado. Cubre expiración por TTL, replay de un callback ya
	// consumido y requests forjados: los tres son indistinguibles a propósito.
	ErrStateExpired = errors.New("integration: state expired or unknown")

	// ErrStateMismatch: el nonce decodificado no coincide con el guardado (CSRF).
	ErrStateMismatch = errors.New("integration: state nonce mismatch")

	// ErrUpstreamUnavailable: no se pudo alcanzar el endpoint del proveedor.
	ErrUpstreamUnavailable = errors.New("integration: provider unreachable")

	// ErrInvalidTokenResponse: el proveedor respondió 200 pero sin access_token.
	ErrInvalidTokenResponse = errors.New("integration: token response missing access_token")

	// ErrCorruptedRecord: un registro guardado no parsea como JSON.
	ErrCorruptedRecord = errors.New("integration: corrupted stored record")

	// ErrCredentialsNotFound: credenciales nunca creadas, ya consumidas o vencidas.
	ErrCredentialsNotFound = errors.New("integration: credentials not found")

	// ErrMissingToken: las credenciales entregadas no traen access_token.
	ErrMissingToken = errors.New("integration: credentials missing access_token")
)

// ProviderDeniedError: el proveedor devolvió error en el callback
// (típicamente el usuario rechazó el consent). Se surfacea verbatim.
type ProviderDeniedError struct {
	Reason string
}

func (e *ProviderDeniedError) Error() string {
	return "integration: provider denied authorization: " + e.Reason
}

// ExchangeError: el endpoint de tokens respondió non-200.
type ExchangeError struct {
	Status int
	Body   string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("integration: token exchange rejected (status %d): %s", e.Status, e.Body)
}

// UpstreamError: el API de listado del proveedor respondió non-200.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("integration: provider API error (status %d)", e.Status)
}
