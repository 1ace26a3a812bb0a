package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/printforge/storefront/internal/webauthn"
)

// promptAuthenticator satisfies the webauthn.Authenticator port for a
// terminal session: it prints the decoded ceremony parameters and reads the
// credential fields produced by an external platform tool. Leaving the
// credential id empty cancels the ceremony.
type promptAuthenticator struct {
	in *bufio.Scanner
}

func newPromptAuthenticator() *promptAuthenticator {
	return &promptAuthenticator{in: bufio.NewScanner(os.Stdin)}
}

func (p *promptAuthenticator) field(label string) string {
	fmt.Printf("%s: ", label)
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}

func (p *promptAuthenticator) binaryField(label string) ([]byte, error) {
	raw := p.field(label + " (base64)")
	if raw == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(raw)
}

// Create prompts for a newly created credential (registration).
func (p *promptAuthenticator) Create(_ context.Context, opts webauthn.CreationOptions) (*webauthn.Credential, error) {
	fmt.Printf("Create a passkey for %q (user %s)\n", opts.RPName, opts.UserName)
	fmt.Printf("Challenge: %s\n", base64.StdEncoding.EncodeToString(opts.Challenge))

	id := p.field("Credential id (empty to cancel)")
	if id == "" {
		return nil, webauthn.ErrCancelled
	}
	rawID, err := p.binaryField("Raw id")
	if err != nil {
		return nil, err
	}
	clientData, err := p.binaryField("clientDataJSON")
	if err != nil {
		return nil, err
	}
	attestation, err := p.binaryField("attestationObject")
	if err != nil {
		return nil, err
	}
	return &webauthn.Credential{
		ID:                id,
		RawID:             rawID,
		Type:              "public-key",
		ClientDataJSON:    clientData,
		AttestationObject: attestation,
	}, nil
}

// Get prompts for an assertion from an existing credential (authentication).
func (p *promptAuthenticator) Get(_ context.Context, opts webauthn.RequestOptions) (*webauthn.Credential, error) {
	fmt.Printf("Assert with a passkey (%d allowed credentials)\n", len(opts.AllowCredentialIDs))
	fmt.Printf("Challenge: %s\n", base64.StdEncoding.EncodeToString(opts.Challenge))

	id := p.field("Credential id (empty to cancel)")
	if id == "" {
		return nil, webauthn.ErrCancelled
	}
	rawID, err := p.binaryField("Raw id")
	if err != nil {
		return nil, err
	}
	clientData, err := p.binaryField("clientDataJSON")
	if err != nil {
		return nil, err
	}
	authData, err := p.binaryField("authenticatorData")
	if err != nil {
		return nil, err
	}
	signature, err := p.binaryField("signature")
	if err != nil {
		return nil, err
	}
	userHandle, err := p.binaryField("userHandle (empty if none)")
	if err != nil {
		return nil, err
	}
	return &webauthn.Credential{
		ID:                id,
		RawID:             rawID,
		Type:              "public-key",
		ClientDataJSON:    clientData,
		AuthenticatorData: authData,
		Signature:         signature,
		UserHandle:        userHandle,
	}, nil
}
