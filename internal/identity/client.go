// Package identity resolves bearer tokens to user IDs by calling the
// identity service. The storefront treats identity as a black box: tokens in,
// user IDs out.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/iamsonukr/storefront/pkg/errors"
	"github.com/iamsonukr/storefront/pkg/httpclient"
)

// Client verifies bearer tokens against the identity service. Calls go
// through a circuit breaker so an identity outage degrades storefront
// requests to guests instead of hanging them.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
}

// verifyResponse is the identity service's token verification payload.
type verifyResponse struct {
	Data struct {
		UserID string `json:"user_id"`
	} `json:"data"`
}

// NewClient creates an identity client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	client := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("identity"), logger)

	return &Client{
		http:    cb,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Resolve verifies a bearer token and returns the user ID it belongs to.
// Invalid or expired tokens come back as unauthorized errors.
func (c *Client) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.Unauthorized("missing token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/auth/verify", nil)
	if err != nil {
		return "", fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", apperrors.Unavailable("identity service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httpclient.ParseResponseError(resp, "identity")
	}

	var payload verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode verify response: %w", err)
	}
	if payload.Data.UserID == "" {
		return "", apperrors.Unauthorized("token did not resolve to a user")
	}

	return payload.Data.UserID, nil
}
