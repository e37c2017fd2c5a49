package integration

import (
	"strings"
	"testing"
)

func TestGeneratePKCE(t *testing.T) {
	pk, err := GeneratePKCE()
	if err != nil {
		t.Fatalf("GeneratePKCE: %v", err)
	}

	// RFC 7636 exige un verifier de 43 a 128 chars.
	if n := len(pk.Verifier); n < 43 || n > 128 {
		t.Fatalf("verifier length %d out of RFC range", n)
	}
	if strings.ContainsAny(pk.Verifier, "+/=") {
		t.Fatalf("verifier is not URL-safe: %q", pk.Verifier)
	}
	if pk.Challenge != ChallengeS256(pk.Verifier) {
		t.Fatal("challenge does not match its verifier")
	}
	if pk.Challenge == pk.Verifier {
		t.Fatal("challenge must never equal the verifier")
	}
}

func TestGeneratePKCEIsRandom(t *testing.T) {
	a, _ := GeneratePKCE()
	b, _ := GeneratePKCE()
	if a.Verifier == b.Verifier {
		t.Fatal("two pairs produced the same verifier")
	}
}

func TestChallengeS256KnownVector(t *testing.T) {
	// Vector del apéndice B de RFC 7636.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cHo"

	if got := ChallengeS256(verifier); got != want {
		t.Fatalf("ChallengeS256 = %q, want %q", got, want)
	}
}

func TestChallengeIsDeterministic(t *testing.T) {
	if ChallengeS256("abc") != ChallengeS256("abc") {
		t.Fatal("same verifier produced different challenges")
	}
	if ChallengeS256("abc") == ChallengeS256("abd") {
		t.Fatal("different verifiers produced the same challenge")
	}
}
