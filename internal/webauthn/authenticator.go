package webauthn

import (
	"context"
	"errors"
)

// ErrCancelled is returned by an Authenticator when the user dismisses the
// platform prompt. The ceremony client reports it as an informational
// outcome, never as a failure.
var ErrCancelled = errors.New("webauthn: user cancelled")

// Credential is what the platform credential manager hands back. Fields not
// produced by a given ceremony stay nil: AttestationObject only exists after
// Create, AuthenticatorData/Signature/UserHandle only after Get, and
// UserHandle stays nil when the authenticator provides none.
type Credential struct {
	ID                string
	RawID             []byte
	Type              string
	ClientDataJSON    []byte
	AttestationObject []byte
	AuthenticatorData []byte
	Signature         []byte
	UserHandle        []byte
}

// Authenticator is the port to the platform credential manager. The platform
// enforces its own ceremony timeout; this layer adds none.
type Authenticator interface {
	// Create makes a new credential for the relying party (registration).
	Create(ctx context.Context, opts CreationOptions) (*Credential, error)
	// Get produces an assertion from an existing credential (authentication).
	Get(ctx context.Context, opts RequestOptions) (*Credential, error)
}
