package integration

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// FlowState ata un flujo de autorización a (nonce, user, org).
// El nonce viaja dentro del parámetro `state` y también queda guardado
// server-side; la integridad se verifica por comparación contra el registro
// guardado, no por firma criptográfica.
//
// El orden de los campos define la forma canónica del JSON: codificar y
// decodificar debe reproducir los mismos bytes.
type FlowState struct {
	Nonce  string `json:"state"`
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

// NewFlowState crea un FlowState con un nonce fresco de 32 bytes (256 bits).
func NewFlowState(userID, orgID string) (FlowState, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return FlowState{}, fmt.Errorf("integration: generating nonce: %w", err)
	}
	return FlowState{
		Nonce:  base64.RawURLEncoding.EncodeToString(b[:]),
		UserID: userID,
		OrgID:  orgID,
	}, nil
}

// EncodeState serializa el FlowState para el parámetro `state`:
// base64 URL-safe sin padding del JSON canónico.
func EncodeState(s FlowState) string {
	raw, _ := json.Marshal(s)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeState valida y decodifica un parámetro `state`.
// Acepta input con o sin padding. Retorna ErrMalformedState si no es
// base64/JSON válido o si falta alguno de {nonce, user_id, org_id}.
func DecodeState(encoded string) (FlowState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return FlowState{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	var s FlowState
	if err := json.Unmarshal(raw, &s); err != nil {
		return FlowState{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if s.Nonce == "" || s.UserID == "" || s.OrgID == "" {
		return FlowState{}, fmt.Errorf("%w: incomplete state payload", ErrMalformedState)
	}
	return s, nil
}
