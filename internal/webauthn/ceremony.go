package webauthn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Status is the terminal state of a ceremony. Cancelled is informational,
// not a failure: the user changed their mind, nothing went wrong.
type Status int

const (
	// StatusRegistered means the new credential was accepted by the server.
	StatusRegistered Status = iota
	// StatusAuthenticated means the assertion was accepted by the server.
	StatusAuthenticated
	// StatusCancelled means the user dismissed the platform prompt.
	StatusCancelled
	// StatusFailed means a network, server, or decode failure ended the
	// ceremony.
	StatusFailed
)

// Result is the terminal outcome of one ceremony. Message is safe to show
// to the user; Err carries the underlying cause for failed outcomes.
type Result struct {
	Status  Status
	Message string
	Err     error
}

func failure(message string, err error) Result {
	return Result{Status: StatusFailed, Message: message, Err: err}
}

// Client performs the two-phase passkey ceremonies against the relying
// party. It holds no state between calls; every attempt starts with a fresh
// server-issued challenge. There are no retries: each outcome is terminal
// and the next user action begins a new ceremony.
type Client struct {
	baseURL string
	http    *http.Client
	authn   Authenticator
	log     *zap.Logger
}

// NewClient creates a ceremony client. hc must carry the session cookie jar
// shared with the API client so the relying party recognizes the session.
func NewClient(baseURL string, hc *http.Client, authn Authenticator, log *zap.Logger) *Client {
	return &Client{baseURL: baseURL, http: hc, authn: authn, log: log}
}

// registrationFinish is the credential payload POSTed to
// /webauthn/register/finish. Binary fields are plain base64.
type registrationFinish struct {
	ID       string `json:"id"`
	RawID    string `json:"rawId"`
	Type     string `json:"type"`
	Response struct {
		ClientDataJSON    string `json:"clientDataJSON"`
		AttestationObject string `json:"attestationObject"`
	} `json:"response"`
}

// Register runs the attestation ceremony: begin, decode, create, encode,
// finish.
func (c *Client) Register(ctx context.Context, email string) Result {
	resp, err := c.postJSON(ctx, "/webauthn/register/begin", map[string]string{"email": email})
	if err != nil {
		return failure("Passkey registration begin failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return failure("Passkey registration begin failed", statusError(resp.StatusCode))
	}

	var wire RegistrationOptionsWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return failure("Passkey registration begin failed", err)
	}
	opts, err := DecodeRegistrationOptions(wire)
	if err != nil {
		return failure("Passkey registration begin failed", err)
	}

	cred, err := c.authn.Create(ctx, opts)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return Result{Status: StatusCancelled, Message: "User cancelled passkey creation"}
		}
		return failure("Passkey creation failed", err)
	}

	var payload registrationFinish
	payload.ID = cred.ID
	payload.RawID = EncodeBase64(cred.RawID)
	payload.Type = cred.Type
	payload.Response.ClientDataJSON = EncodeBase64(cred.ClientDataJSON)
	payload.Response.AttestationObject = EncodeBase64(cred.AttestationObject)

	finishResp, err := c.postJSON(ctx, "/webauthn/register/finish", payload)
	if err != nil {
		return failure("Passkey registration finish failed", err)
	}
	defer finishResp.Body.Close()
	if finishResp.StatusCode != http.StatusOK {
		return failure("Passkey registration finish failed", statusError(finishResp.StatusCode))
	}

	return Result{Status: StatusRegistered, Message: "Passkey registration successful"}
}

// assertionFinish is the payload POSTed to /webauthn/auth/finish.
// UserHandle is a pointer so an authenticator that provides no handle
// serializes as null, not as an encoded empty string.
type assertionFinish struct {
	UserID   string `json:"userId"`
	Response struct {
		ID       string `json:"id"`
		RawID    string `json:"rawId"`
		Type     string `json:"type"`
		Response struct {
			AuthenticatorData string  `json:"authenticatorData"`
			ClientDataJSON    string  `json:"clientDataJSON"`
			Signature         string  `json:"signature"`
			UserHandle        *string `json:"userHandle"`
		} `json:"response"`
	} `json:"response"`
}

// Authenticate runs the assertion ceremony, structurally the same as
// Register but against navigator-get semantics: allowCredentials ids are
// decoded individually and the response carries authenticator data and a
// signature.
func (c *Client) Authenticate(ctx context.Context, email string) Result {
	resp, err := c.postJSON(ctx, "/webauthn/auth/begin", map[string]string{"email": email})
	if err != nil {
		return failure("No passkey found or user not registered", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return failure("No passkey found or user not registered", statusError(resp.StatusCode))
	}

	var begin struct {
		Options AuthenticationOptionsWire `json:"options"`
		UserID  string                    `json:"userId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&begin); err != nil {
		return failure("No passkey found or user not registered", err)
	}
	opts, err := DecodeAuthenticationOptions(begin.Options)
	if err != nil {
		return failure("No passkey found or user not registered", err)
	}

	cred, err := c.authn.Get(ctx, opts)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return Result{Status: StatusCancelled, Message: "User cancelled passkey login"}
		}
		return failure("Passkey login failed", err)
	}

	var payload assertionFinish
	payload.UserID = begin.UserID
	payload.Response.ID = cred.ID
	payload.Response.RawID = EncodeBase64(cred.RawID)
	payload.Response.Type = cred.Type
	payload.Response.Response.AuthenticatorData = EncodeBase64(cred.AuthenticatorData)
	payload.Response.Response.ClientDataJSON = EncodeBase64(cred.ClientDataJSON)
	payload.Response.Response.Signature = EncodeBase64(cred.Signature)
	if cred.UserHandle != nil {
		handle := EncodeBase64(cred.UserHandle)
		payload.Response.Response.UserHandle = &handle
	}

	finishResp, err := c.postJSON(ctx, "/webauthn/auth/finish", payload)
	if err != nil {
		return failure("Authentication failed", err)
	}
	defer finishResp.Body.Close()
	if finishResp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(finishResp.Body).Decode(&body)
		if body.Error != "" {
			return failure("Authentication failed: "+body.Error, statusError(finishResp.StatusCode))
		}
		return failure("Authentication failed", statusError(finishResp.StatusCode))
	}

	return Result{Status: StatusAuthenticated, Message: "Passkey login successful"}
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

func statusError(code int) error {
	return fmt.Errorf("unexpected status %d", code)
}
