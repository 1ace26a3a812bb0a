package webauthn

import (
	"errors"
	"fmt"
)

// Wire types mirror the loosely structured JSON the relying party sends on
// the begin endpoints. They stay distinct from the platform-facing types so
// a malformed server response fails at one conversion boundary instead of
// deep inside a credential manager call.

// RelyingParty identifies the server in registration options.
type RelyingParty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WireUser is the user entity in registration options. ID travels as a
// plain string, not base64url.
type WireUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// CredParam is one accepted credential algorithm.
type CredParam struct {
	Type string `json:"type"`
	Alg  int    `json:"alg"`
}

// RegistrationOptionsWire is the payload of POST /webauthn/register/begin.
type RegistrationOptionsWire struct {
	Challenge        string       `json:"challenge"`
	RP               RelyingParty `json:"rp"`
	User             WireUser     `json:"user"`
	PubKeyCredParams []CredParam  `json:"pubKeyCredParams"`
	Timeout          int          `json:"timeout,omitempty"`
	Attestation      string       `json:"attestation,omitempty"`
}

// WireAllowedCredential is one allowCredentials entry; ID is base64url.
type WireAllowedCredential struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// AuthenticationOptionsWire is the "options" object of
// POST /webauthn/auth/begin.
type AuthenticationOptionsWire struct {
	Challenge        string                  `json:"challenge"`
	RPID             string                  `json:"rpId,omitempty"`
	AllowCredentials []WireAllowedCredential `json:"allowCredentials"`
	Timeout          int                     `json:"timeout,omitempty"`
	UserVerification string                  `json:"userVerification,omitempty"`
}

// CreationOptions is the decoded, platform-facing form of registration
// options: every opaque field is raw bytes.
type CreationOptions struct {
	Challenge       []byte
	RPID            string
	RPName          string
	UserID          []byte
	UserName        string
	UserDisplayName string
	Algorithms      []int
}

// RequestOptions is the decoded, platform-facing form of authentication
// options.
type RequestOptions struct {
	Challenge          []byte
	RPID               string
	AllowCredentialIDs [][]byte
	UserVerification   string
}

// ErrMissingChallenge reports begin options without a usable challenge.
var ErrMissingChallenge = errors.New("webauthn: options missing challenge")

// DecodeRegistrationOptions converts wire registration options into
// platform form. The challenge is base64url-decoded; the user id is the
// literal bytes of its string form.
func DecodeRegistrationOptions(w RegistrationOptionsWire) (CreationOptions, error) {
	if w.Challenge == "" {
		return CreationOptions{}, ErrMissingChallenge
	}
	challenge, err := DecodeBase64URL(w.Challenge)
	if err != nil {
		return CreationOptions{}, fmt.Errorf("webauthn: decode challenge: %w", err)
	}
	opts := CreationOptions{
		Challenge:       challenge,
		RPID:            w.RP.ID,
		RPName:          w.RP.Name,
		UserID:          UserIDBytes(w.User.ID),
		UserName:        w.User.Name,
		UserDisplayName: w.User.DisplayName,
	}
	for _, p := range w.PubKeyCredParams {
		opts.Algorithms = append(opts.Algorithms, p.Alg)
	}
	return opts, nil
}

// DecodeAuthenticationOptions converts wire authentication options into
// platform form, base64url-decoding the challenge and each allowed
// credential id individually.
func DecodeAuthenticationOptions(w AuthenticationOptionsWire) (RequestOptions, error) {
	if w.Challenge == "" {
		return RequestOptions{}, ErrMissingChallenge
	}
	challenge, err := DecodeBase64URL(w.Challenge)
	if err != nil {
		return RequestOptions{}, fmt.Errorf("webauthn: decode challenge: %w", err)
	}
	opts := RequestOptions{
		Challenge:        challenge,
		RPID:             w.RPID,
		UserVerification: w.UserVerification,
	}
	for _, cred := range w.AllowCredentials {
		id, err := DecodeBase64URL(cred.ID)
		if err != nil {
			return RequestOptions{}, fmt.Errorf("webauthn: decode credential id %q: %w", cred.ID, err)
		}
		opts.AllowCredentialIDs = append(opts.AllowCredentialIDs, id)
	}
	return opts, nil
}
