/**
 * @description
 * HTTP client for the card service. It implements session.Gateway so the
 * client-held session state and profile draft can run against a remote
 * deployment.
 */
package cardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Ghavvvo/pulpy/internal/domain"
)

// Client is an HTTP client for the card service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a card service client with a bounded request timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type authResponse struct {
	Bundle *domain.Bundle `json:"bundle"`
	Token  string         `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login exchanges credentials for a bundle and session token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Bundle, string, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", payload, &resp); err != nil {
		return nil, "", err
	}
	return resp.Bundle, resp.Token, nil
}

// Signup registers a new profile and returns its bundle and session token.
func (c *Client) Signup(ctx context.Context, data domain.SignupRequest) (*domain.Bundle, string, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", data, &resp); err != nil {
		return nil, "", err
	}
	return resp.Bundle, resp.Token, nil
}

// FetchBundle fetches the authenticated user's bundle.
func (c *Client) FetchBundle(ctx context.Context, token string) (*domain.Bundle, error) {
	var bundle domain.Bundle
	if err := c.do(ctx, http.MethodGet, "/me", token, nil, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// UpdateProfile persists a partial update and returns the refetched bundle.
func (c *Client) UpdateProfile(ctx context.Context, token string, patch domain.ProfilePatch) (*domain.Bundle, error) {
	var bundle domain.Bundle
	if err := c.do(ctx, http.MethodPut, "/me/profile", token, patch, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// RequestUpgrade asks for a premium upgrade and returns the refetched bundle.
func (c *Client) RequestUpgrade(ctx context.Context, token, reference string, cycle domain.BillingCycle) (*domain.Bundle, error) {
	payload := map[string]string{
		"payment_reference": reference,
		"billing_cycle":     string(cycle),
	}
	var resp struct {
		Bundle *domain.Bundle `json:"bundle"`
	}
	if err := c.do(ctx, http.MethodPost, "/me/upgrade", token, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Bundle, nil
}

// ResolvePublicProfile fetches the public projection for a handle.
func (c *Client) ResolvePublicProfile(ctx context.Context, handle string) (*domain.PublicProfile, error) {
	var view domain.PublicProfile
	if err := c.do(ctx, http.MethodGet, "/p/"+handle, "", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out interface{}) error {
	if c.baseURL == "" {
		return domain.NewStoreError("card client", fmt.Errorf("base URL is not configured"))
	}

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return domain.NewStoreError("card client", err)
		}
		body = bytes.NewBuffer(data)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return domain.NewStoreError("card client", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewStoreError("card client", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.NewStoreError("card client", err)
		}
	}
	return nil
}

// mapError translates HTTP statuses back into the error taxonomy so callers
// see the same errors whether the gateway is local or remote.
func (c *Client) mapError(resp *http.Response) error {
	var er errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&er)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrInvalidCredentials
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		if strings.Contains(er.Error, "handle") {
			return domain.ErrDuplicateHandle
		}
		return domain.ErrDuplicateEmail
	case http.StatusBadRequest:
		return domain.NewValidationError("request", er.Error)
	default:
		return domain.NewStoreError("card client", fmt.Errorf("service returned status %d", resp.StatusCode))
	}
}
