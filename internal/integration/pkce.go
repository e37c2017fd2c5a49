package integration

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCEPair es el par verifier/challenge de RFC 7636.
// El verifier nunca sale del servidor hasta el intercambio de tokens;
// el challenge es one-way (SHA-256), no existe operación de decode.
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE produce un verifier de 48 bytes de entropía (64 chars
// URL-safe, dentro del rango 43-128 de la RFC) y su challenge S256.
func GeneratePKCE() (PKCEPair, error) {
	var b [48]byte
	if _, err := rand.Read(b[:]); err != nil {
		return PKCEPair{}, fmt.Errorf("integration: generating pkce verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(b[:])
	return PKCEPair{
		Verifier:  verifier,
		Challenge: ChallengeS256(verifier),
	}, nil
}

// ChallengeS256 deriva el code_challenge de un verifier:
// base64url sin padding del SHA-256 del verifier.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
