// Package backend is the JSON REST client for the Implantei backend API.
// It implements the tenant and profile ports. Calls made on behalf of an
// inbound request carry that caller's bearer token; calls with no caller,
// such as background jobs, fall back to the provider or service token.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// envelope is the backend's uniform response shape. Data carries the payload
// for tenant endpoints, User for the profile endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	User    json.RawMessage `json:"user,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Client talks to the backend API. It satisfies ports.TenantService and the
// session profile port.
type Client struct {
	http         *http.Client
	baseURL      string
	serviceToken string
	tokens       ports.TokenSource
	log          zerolog.Logger
}

// Option mutates a Client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithServiceToken sets the fallback bearer used when no identity is signed
// in, e.g. for the background cache-refresh job.
func WithServiceToken(token string) Option {
	return func(c *Client) { c.serviceToken = token }
}

func NewClient(baseURL string, tokens ports.TokenSource, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		log:     log.With().Str("component", "backend").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Profile fetches the application user for the caller bound to ctx. The
// backend derives the subject from the bearer token, so the identity
// argument only serves staleness matching in the session core.
func (c *Client) Profile(ctx context.Context, _ ports.Identity) (*domain.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(env.User, &user); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &user, nil
}

func (c *Client) Tenant(ctx context.Context, id string) (*domain.Tenant, error) {
	env, err := c.do(ctx, http.MethodGet, "/companies/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeTenant(env.Data)
}

func (c *Client) Tenants(ctx context.Context) ([]domain.Tenant, error) {
	env, err := c.do(ctx, http.MethodGet, "/companies/tenants", nil)
	if err != nil {
		return nil, err
	}

	var tenants []domain.Tenant
	if err := json.Unmarshal(env.Data, &tenants); err != nil {
		return nil, fmt.Errorf("decode tenant list: %w", err)
	}
	return tenants, nil
}

func (c *Client) CreateTenant(ctx context.Context, in ports.TenantInput) (*domain.Tenant, error) {
	env, err := c.do(ctx, http.MethodPost, "/companies", in)
	if err != nil {
		return nil, err
	}
	return decodeTenant(env.Data)
}

func (c *Client) UpdateTenant(ctx context.Context, id string, in ports.TenantInput) (*domain.Tenant, error) {
	env, err := c.do(ctx, http.MethodPut, "/companies/"+url.PathEscape(id), in)
	if err != nil {
		return nil, err
	}
	return decodeTenant(env.Data)
}

func (c *Client) SetTenantActive(ctx context.Context, id string, active bool) (*domain.Tenant, error) {
	body := map[string]bool{"active": active}
	env, err := c.do(ctx, http.MethodPatch, "/companies/"+url.PathEscape(id)+"/status", body)
	if err != nil {
		return nil, err
	}
	return decodeTenant(env.Data)
}

func (c *Client) DeleteTenant(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/companies/"+url.PathEscape(id), nil)
	return err
}

func decodeTenant(raw json.RawMessage) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode tenant: %w", err)
	}
	return &t, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, c.statusError(resp.StatusCode, path, env.Message)
	}
	return &env, nil
}

// bearer picks the caller's own token first, so a request verified as one
// user is never forwarded with another user's credentials. Without a caller
// it uses the identity token, then the service token; the identity port
// reports unauthenticated as an error, which counts as absence.
func (c *Client) bearer(ctx context.Context) string {
	if token := ports.CallerToken(ctx); token != "" {
		return token
	}
	if c.tokens != nil {
		if token, err := c.tokens.IDToken(ctx); err == nil && token != "" {
			return token
		}
	}
	return c.serviceToken
}

func (c *Client) statusError(status int, path, message string) error {
	switch status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		if strings.HasPrefix(path, "/auth/") {
			return domain.ErrUserNotFound
		}
		return domain.ErrTenantNotFound
	case http.StatusConflict:
		return domain.ErrUserExists
	default:
		if message == "" {
			message = http.StatusText(status)
		}
		c.log.Error().Int("status", status).Str("path", path).Str("message", message).Msg("backend call failed")
		return fmt.Errorf("backend %s: %s (status %d)", path, message, status)
	}
}
