package webauthn

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// fakeAuthenticator scripts the platform credential manager.
type fakeAuthenticator struct {
	createOpts *CreationOptions
	getOpts    *RequestOptions
	credential *Credential
	err        error
}

func (f *fakeAuthenticator) Create(_ context.Context, opts CreationOptions) (*Credential, error) {
	f.createOpts = &opts
	if f.err != nil {
		return nil, f.err
	}
	return f.credential, nil
}

func (f *fakeAuthenticator) Get(_ context.Context, opts RequestOptions) (*Credential, error) {
	f.getOpts = &opts
	if f.err != nil {
		return nil, f.err
	}
	return f.credential, nil
}

func newCeremonyClient(t *testing.T, handler http.Handler, authn Authenticator) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, server.Client(), authn, zap.NewNop())
}

func TestRegister_Success(t *testing.T) {
	challenge := []byte{0xfb, 0xef, 0xbe, 0x01, 0x02}
	rawID := []byte("raw-credential-id")
	attestation := []byte("attestation-object")
	clientData := []byte(`{"type":"webauthn.create"}`)

	var finishBody []byte
	r := chi.NewRouter()
	r.Post("/webauthn/register/begin", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"challenge": base64.RawURLEncoding.EncodeToString(challenge),
			"rp":        map[string]string{"id": "localhost", "name": "Printforge"},
			"user":      map[string]string{"id": "42", "name": "a@b.c", "displayName": "a@b.c"},
			"pubKeyCredParams": []map[string]any{
				{"type": "public-key", "alg": -7},
				{"type": "public-key", "alg": -257},
			},
		})
	})
	r.Post("/webauthn/register/finish", func(w http.ResponseWriter, req *http.Request) {
		finishBody, _ = io.ReadAll(req.Body)
		w.WriteHeader(http.StatusOK)
	})

	authn := &fakeAuthenticator{credential: &Credential{
		ID:                "cred-id",
		RawID:             rawID,
		Type:              "public-key",
		ClientDataJSON:    clientData,
		AttestationObject: attestation,
	}}
	client := newCeremonyClient(t, r, authn)

	result := client.Register(context.Background(), "a@b.c")
	if result.Status != StatusRegistered {
		t.Fatalf("status = %v (%s, err %v); want StatusRegistered", result.Status, result.Message, result.Err)
	}

	// The authenticator must see decoded bytes: base64url challenge,
	// literal-character user id, and the algorithm list.
	if authn.createOpts == nil {
		t.Fatal("authenticator was not invoked")
	}
	if !bytes.Equal(authn.createOpts.Challenge, challenge) {
		t.Errorf("challenge = %x; want %x", authn.createOpts.Challenge, challenge)
	}
	if !bytes.Equal(authn.createOpts.UserID, []byte("42")) {
		t.Errorf("user id = %v; want literal \"42\" bytes", authn.createOpts.UserID)
	}
	if len(authn.createOpts.Algorithms) != 2 || authn.createOpts.Algorithms[0] != -7 {
		t.Errorf("algorithms = %v; want [-7 -257]", authn.createOpts.Algorithms)
	}

	// Outgoing binary fields are plain base64, not base64url.
	var finish struct {
		ID       string `json:"id"`
		RawID    string `json:"rawId"`
		Response struct {
			ClientDataJSON    string `json:"clientDataJSON"`
			AttestationObject string `json:"attestationObject"`
		} `json:"response"`
	}
	if err := json.Unmarshal(finishBody, &finish); err != nil {
		t.Fatalf("finish body did not parse: %v", err)
	}
	if finish.RawID != base64.StdEncoding.EncodeToString(rawID) {
		t.Errorf("rawId = %q; want plain base64 of raw id", finish.RawID)
	}
	if finish.Response.AttestationObject != base64.StdEncoding.EncodeToString(attestation) {
		t.Errorf("attestationObject = %q; want plain base64", finish.Response.AttestationObject)
	}
}

func TestRegister_UserCancelled(t *testing.T) {
	finishCalled := false
	r := chi.NewRouter()
	r.Post("/webauthn/register/begin", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"challenge": "AQID",
			"user":      map[string]string{"id": "1"},
		})
	})
	r.Post("/webauthn/register/finish", func(w http.ResponseWriter, _ *http.Request) {
		finishCalled = true
	})

	client := newCeremonyClient(t, r, &fakeAuthenticator{err: ErrCancelled})
	result := client.Register(context.Background(), "a@b.c")

	if result.Status != StatusCancelled {
		t.Errorf("status = %v; want StatusCancelled", result.Status)
	}
	if result.Err != nil {
		t.Errorf("cancellation carried an error: %v", result.Err)
	}
	if finishCalled {
		t.Error("finish endpoint reached after cancellation")
	}
}

func TestRegister_BeginFails(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/webauthn/register/begin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client := newCeremonyClient(t, r, &fakeAuthenticator{})
	result := client.Register(context.Background(), "a@b.c")

	if result.Status != StatusFailed {
		t.Errorf("status = %v; want StatusFailed", result.Status)
	}
	if result.Message != "Passkey registration begin failed" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestRegister_FinishFails(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/webauthn/register/begin", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"challenge": "AQID",
			"user":      map[string]string{"id": "1"},
		})
	})
	r.Post("/webauthn/register/finish", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	client := newCeremonyClient(t, r, &fakeAuthenticator{credential: &Credential{ID: "c", Type: "public-key"}})
	result := client.Register(context.Background(), "a@b.c")

	if result.Status != StatusFailed {
		t.Errorf("status = %v; want StatusFailed", result.Status)
	}
	if result.Message != "Passkey registration finish failed" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestAuthenticate_Success(t *testing.T) {
	challenge := []byte{0x10, 0x20, 0x30}
	allowedID := []byte("stored-credential")

	var finishBody []byte
	r := chi.NewRouter()
	r.Post("/webauthn/auth/begin", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"userId": "42",
			"options": map[string]any{
				"challenge": base64.RawURLEncoding.EncodeToString(challenge),
				"allowCredentials": []map[string]string{
					{"type": "public-key", "id": base64.RawURLEncoding.EncodeToString(allowedID)},
				},
			},
		})
	})
	r.Post("/webauthn/auth/finish", func(w http.ResponseWriter, req *http.Request) {
		finishBody, _ = io.ReadAll(req.Body)
		w.WriteHeader(http.StatusOK)
	})

	authn := &fakeAuthenticator{credential: &Credential{
		ID:                "cred-id",
		RawID:             []byte("raw-id"),
		Type:              "public-key",
		ClientDataJSON:    []byte(`{"type":"webauthn.get"}`),
		AuthenticatorData: []byte("auth-data"),
		Signature:         []byte("signature"),
		// No UserHandle: the wire field must be null, not "".
	}}
	client := newCeremonyClient(t, r, authn)

	result := client.Authenticate(context.Background(), "a@b.c")
	if result.Status != StatusAuthenticated {
		t.Fatalf("status = %v (%s, err %v); want StatusAuthenticated", result.Status, result.Message, result.Err)
	}

	if authn.getOpts == nil {
		t.Fatal("authenticator was not invoked")
	}
	if !bytes.Equal(authn.getOpts.Challenge, challenge) {
		t.Errorf("challenge = %x; want %x", authn.getOpts.Challenge, challenge)
	}
	if len(authn.getOpts.AllowCredentialIDs) != 1 || !bytes.Equal(authn.getOpts.AllowCredentialIDs[0], allowedID) {
		t.Errorf("allowCredentials = %v; want decoded %q", authn.getOpts.AllowCredentialIDs, allowedID)
	}

	var finish map[string]any
	if err := json.Unmarshal(finishBody, &finish); err != nil {
		t.Fatalf("finish body did not parse: %v", err)
	}
	if finish["userId"] != "42" {
		t.Errorf("userId = %v; want 42", finish["userId"])
	}
	inner := finish["response"].(map[string]any)["response"].(map[string]any)
	if handle, present := inner["userHandle"]; !present || handle != nil {
		t.Errorf("userHandle = %v; want explicit null", handle)
	}
	if inner["signature"] != base64.StdEncoding.EncodeToString([]byte("signature")) {
		t.Errorf("signature = %v; want plain base64", inner["signature"])
	}
}

func TestAuthenticate_UserHandleEncodedWhenPresent(t *testing.T) {
	var finishBody []byte
	r := chi.NewRouter()
	r.Post("/webauthn/auth/begin", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"userId":  "42",
			"options": map[string]any{"challenge": "AQID", "allowCredentials": []any{}},
		})
	})
	r.Post("/webauthn/auth/finish", func(w http.ResponseWriter, req *http.Request) {
		finishBody, _ = io.ReadAll(req.Body)
		w.WriteHeader(http.StatusOK)
	})

	client := newCeremonyClient(t, r, &fakeAuthenticator{credential: &Credential{
		ID:         "cred-id",
		Type:       "public-key",
		UserHandle: []byte("handle"),
	}})
	result := client.Authenticate(context.Background(), "a@b.c")
	if result.Status != StatusAuthenticated {
		t.Fatalf("status = %v; want StatusAuthenticated", result.Status)
	}

	var finish assertionFinish
	if err := json.Unmarshal(finishBody, &finish); err != nil {
		t.Fatal(err)
	}
	want := base64.StdEncoding.EncodeToString([]byte("handle"))
	if finish.Response.Response.UserHandle == nil || *finish.Response.Response.UserHandle != want {
		t.Errorf("userHandle = %v; want %q", finish.Response.Response.UserHandle, want)
	}
}

func TestAuthenticate_BeginFails(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/webauthn/auth/begin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client := newCeremonyClient(t, r, &fakeAuthenticator{})
	result := client.Authenticate(context.Background(), "a@b.c")

	if result.Status != StatusFailed {
		t.Errorf("status = %v; want StatusFailed", result.Status)
	}
	if result.Message != "No passkey found or user not registered" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestAuthenticate_FinishFailureSurfacesServerError(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/webauthn/auth/begin", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"userId":  "42",
			"options": map[string]any{"challenge": "AQID", "allowCredentials": []any{}},
		})
	})
	r.Post("/webauthn/auth/finish", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "signature mismatch"})
	})
	client := newCeremonyClient(t, r, &fakeAuthenticator{credential: &Credential{ID: "c", Type: "public-key"}})
	result := client.Authenticate(context.Background(), "a@b.c")

	if result.Status != StatusFailed {
		t.Errorf("status = %v; want StatusFailed", result.Status)
	}
	if result.Message != "Authentication failed: signature mismatch" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestAuthenticate_UserCancelled(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/webauthn/auth/begin", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"userId":  "42",
			"options": map[string]any{"challenge": "AQID", "allowCredentials": []any{}},
		})
	})
	client := newCeremonyClient(t, r, &fakeAuthenticator{err: ErrCancelled})
	result := client.Authenticate(context.Background(), "a@b.c")

	if result.Status != StatusCancelled {
		t.Errorf("status = %v; want StatusCancelled", result.Status)
	}
	if result.Err != nil {
		t.Errorf("cancellation carried an error: %v", result.Err)
	}
}
