package integration

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	st, err := NewFlowState("user-1", "org-1")
	if err != nil {
		t.Fatalf("NewFlowState: %v", err)
	}
	if st.Nonce == "" {
		t.Fatal("expected non-empty nonce")
	}

	decoded, err := DecodeState(EncodeState(st))
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if decoded != st {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, st)
	}
}

func TestStateNoncesAreUnique(t *testing.T) {
	a, _ := NewFlowState("u", "o")
	b, _ := NewFlowState("u", "o")
	if a.Nonce == b.Nonce {
		t.Fatal("two flows produced the same nonce")
	}
}

func TestEncodeStateIsURLSafe(t *testing.T) {
	st, _ := NewFlowState("user+/=", "org con espacios")
	enc := EncodeState(st)
	if strings.ContainsAny(enc, "+/=") {
		t.Fatalf("encoded state is not URL-safe: %q", enc)
	}
}

func TestDecodeStateAcceptsPadding(t *testing.T) {
	st, _ := NewFlowState("user-1", "org-1")
	padded := EncodeState(st) + "=="

	decoded, err := DecodeState(padded)
	if err != nil {
		t.Fatalf("DecodeState with padding: %v", err)
	}
	if decoded.Nonce != st.Nonce {
		t.Fatal("padded decode lost the nonce")
	}
}

func TestDecodeStateMalformed(t *testing.T) {
	cases := map[string]string{
		"not base64":     "!!!not-base64!!!",
		"not json":       base64.RawURLEncoding.EncodeToString([]byte("plain text")),
		"missing nonce":  base64.RawURLEncoding.EncodeToString([]byte(`{"user_id":"u","org_id":"o"}`)),
		"missing user":   base64.RawURLEncoding.EncodeToString([]byte(`{"state":"n","org_id":"o"}`)),
		"missing org":    base64.RawURLEncoding.EncodeToString([]byte(`{"state":"n","user_id":"u"}`)),
		"empty payload":  base64.RawURLEncoding.EncodeToString([]byte(`{}`)),
		"empty string":   "",
		"json null":      base64.RawURLEncoding.EncodeToString([]byte(`null`)),
	}
	for name, in := range cases {
		if _, err := DecodeState(in); !errors.Is(err, ErrMalformedState) {
			t.Fatalf("%s: expected ErrMalformedState, got %v", name, err)
		}
	}
}
