// Package webauthn drives the passkey registration and authentication
// ceremonies against the relying party, translating between the wire format
// (base64url strings) and the raw bytes the platform credential manager
// works with.
package webauthn

import (
	"encoding/base64"
	"strings"
)

// DecodeBase64URL decodes a base64url string, padded or not: '-' and '_'
// map back to the standard alphabet and '=' padding is restored before a
// standard base64 decode.
func DecodeBase64URL(s string) ([]byte, error) {
	b64 := strings.ReplaceAll(s, "-", "+")
	b64 = strings.ReplaceAll(b64, "_", "/")
	if rem := len(b64) % 4; rem != 0 {
		b64 += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(b64)
}

// EncodeBase64 encodes raw bytes as plain base64. The decode path is
// base64url-aware but the encode path is not: the relying party expects
// standard base64 on outgoing credential data, so the asymmetry is part of
// the wire contract and must not be "fixed" to url-safe here.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// UserIDBytes turns the server's string-form user id into the byte sequence
// the credential manager expects. This is an encoding of the literal
// characters, not a base64 decode — the server sends the id as plain text.
func UserIDBytes(id string) []byte {
	return []byte(id)
}
