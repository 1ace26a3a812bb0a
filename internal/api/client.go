// Package api is the thin client for the storefront's remote HTTP API:
// catalog, colors, profile, password auth, and checkout. Session state rides
// on cookies; the underlying http.Client carries a cookie jar shared with
// the passkey ceremony client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/printforge/storefront/internal/models"
)

// ErrUnauthorized is returned when the server answers 401, typically a
// missing or expired session cookie.
var ErrUnauthorized = errors.New("api: unauthorized")

// Client talks to the remote storefront API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds an http.Client with a cookie jar and a request
// timeout, suitable for sharing between the API client and the passkey
// ceremony client so both see the same session.
func NewHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}, nil
}

// New creates an API client on top of an existing http.Client.
func New(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// Product fetches catalog detail for one product.
func (c *Client) Product(ctx context.Context, id int) (*models.Product, error) {
	var p models.Product
	if err := c.getJSON(ctx, "/product/"+strconv.Itoa(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Products fetches one page of the product listing.
func (c *Client) Products(ctx context.Context, page, limit int) (*models.ProductList, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	var list models.ProductList
	if err := c.getJSON(ctx, "/list?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Search queries the catalog by free text.
func (c *Client) Search(ctx context.Context, query string) (*models.ProductList, error) {
	q := url.Values{}
	q.Set("q", query)
	var list models.ProductList
	if err := c.getJSON(ctx, "/search?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Colors fetches the available color options for a filament type.
func (c *Client) Colors(ctx context.Context, filamentType string) ([]models.Filament, error) {
	q := url.Values{}
	q.Set("filamentType", filamentType)
	var resp models.ColorsResponse
	if err := c.getJSON(ctx, "/colors?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Profile fetches the authenticated user's profile. A 401 maps to
// ErrUnauthorized.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.getJSON(ctx, "/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile saves edits to the profile and returns the stored copy.
func (c *Client) UpdateProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	var updated models.Profile
	if err := c.postJSON(ctx, "/profile/"+strconv.Itoa(p.ID), p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Authenticators lists the registered passkeys for the current user.
func (c *Client) Authenticators(ctx context.Context) ([]models.Authenticator, error) {
	var auths []models.Authenticator
	if err := c.getJSON(ctx, "/webauthn/authenticators", &auths); err != nil {
		return nil, err
	}
	return auths, nil
}

// SignIn performs password sign-in. On success the session cookie lands in
// the jar.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.postJSON(ctx, "/auth/signin", body, nil)
}

// SignUp creates an account with email and password.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.postJSON(ctx, "/auth/signup", body, nil)
}

// Checkout starts payment for a cart and returns the payment client secret.
// The secret is opaque here; the payment SDK consumes it.
func (c *Client) Checkout(ctx context.Context, cartID string) (string, error) {
	q := url.Values{}
	q.Set("cartId", cartID)
	var resp struct {
		ClientSecret string `json:"clientSecret"`
	}
	if err := c.postJSON(ctx, "/cart/checkout?"+q.Encode(), nil, &resp); err != nil {
		return "", err
	}
	return resp.ClientSecret, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("server error %d on %s: %s", resp.StatusCode, req.URL.Path, string(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s: %w", req.URL.Path, err)
	}
	return nil
}
