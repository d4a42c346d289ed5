package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clinical-rx-core/internal/platform/httpclient"
	"clinical-rx-core/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("token verifier not configured")
	ErrUnauthorized  = errors.New("token rejected by identity provider")
	ErrUpstream      = errors.New("identity provider error")
)

const (
	DefaultVerifyPath   = "/v1/tokens/verify"
	DefaultAPIKeyHeader = "X-Api-Key"
)

// Config del proveedor de identidad. Sale de config.Auth.
type Config struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	VerifyPath   string
	Timeout      time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
	verifyPath   string
}

func NewClient(cfg Config) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return newClient(hc, cfg), nil
}

func newClient(hc *httpclient.Client, cfg Config) *Client {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = DefaultAPIKeyHeader
	}
	p := strings.TrimSpace(cfg.VerifyPath)
	if p == "" {
		p = DefaultVerifyPath
	}
	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
		verifyPath:   p,
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
}

// VerifyToken pregunta al proveedor si el token es válido. El user_id que
// devuelve tiene que existir como usuario registrado acá; eso lo resuelve
// identity.CurrentUser, no este cliente.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	var out verifyResponse
	err := c.http.DoJSON(ctx, http.MethodPost, c.verifyPath, map[string]string{
		c.apiKeyHeader:  c.apiKey,
		"Authorization": "Bearer " + token,
	}, verifyRequest{Token: token}, &out)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && (he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	uid := strings.TrimSpace(out.UserID)
	if uid == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing user_id", ErrUpstream)
	}
	return auth.Claims{
		UserID:   uid,
		Email:    strings.TrimSpace(out.Email),
		TenantID: strings.TrimSpace(out.TenantID),
	}, nil
}
