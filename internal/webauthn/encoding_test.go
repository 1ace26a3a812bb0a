package webauthn

import (
	"bytes"
	"encoding/base64"
	"math/rand"
	"testing"
)

func TestDecodeBase64URL_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		raw := make([]byte, rng.Intn(64))
		rng.Read(raw)

		unpadded := base64.RawURLEncoding.EncodeToString(raw)
		got, err := DecodeBase64URL(unpadded)
		if err != nil {
			t.Fatalf("DecodeBase64URL(%q) failed: %v", unpadded, err)
		}
		if !bytes.Equal(got, raw) {
			t.Fatalf("round trip mismatch for %q", unpadded)
		}

		padded := base64.URLEncoding.EncodeToString(raw)
		got, err = DecodeBase64URL(padded)
		if err != nil {
			t.Fatalf("DecodeBase64URL(%q) failed: %v", padded, err)
		}
		if !bytes.Equal(got, raw) {
			t.Fatalf("round trip mismatch for %q", padded)
		}
	}
}

func TestDecodeBase64URL_AcceptsPlainBase64(t *testing.T) {
	raw := []byte("any carnal pleasure")
	got, err := DecodeBase64URL(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("DecodeBase64URL failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("got %q; want %q", got, raw)
	}
}

func TestDecodeBase64URL_Invalid(t *testing.T) {
	if _, err := DecodeBase64URL("!!!"); err == nil {
		t.Error("expected error for invalid input")
	}
}

// The decode path is url-safe but the encode path emits plain base64.
// Fixed vector: "_-8" decodes to 0xff 0xef, which encodes back as "/+8="
// with the standard alphabet, not "_-8" again.
func TestEncodeBase64_PlainAlphabetAsymmetry(t *testing.T) {
	raw, err := DecodeBase64URL("_-8")
	if err != nil {
		t.Fatalf("DecodeBase64URL failed: %v", err)
	}
	if !bytes.Equal(raw, []byte{0xff, 0xef}) {
		t.Fatalf("decoded = %x; want ffef", raw)
	}
	if got := EncodeBase64(raw); got != "/+8=" {
		t.Errorf("EncodeBase64 = %q; want %q", got, "/+8=")
	}
}

func TestUserIDBytes_IsLiteralCharacters(t *testing.T) {
	// "42" must become the characters '4','2', not a base64 decode.
	got := UserIDBytes("42")
	if !bytes.Equal(got, []byte{'4', '2'}) {
		t.Errorf("UserIDBytes(\"42\") = %v; want [52 50]", got)
	}
}
