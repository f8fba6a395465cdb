// Package apiclient is the thin HTTP wrapper around the upstream business
// REST API. It injects bearer tokens, refreshes them once on expiry, and
// normalizes upstream failures into a small error taxonomy.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// TokenStore supplies and receives auth tokens. The session manager owns
// the canonical token state; the client only reads it and pushes refreshed
// tokens back.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	UpdateTokens(access, refresh string, expiresIn int)
}

// Client talks to the upstream API under a fixed base URL (".../api").
// All methods are safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client for the given base URL. The default transport is
// instrumented with otelhttp and uses a 15 second overall timeout.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   15 * time.Second,
		},
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET and returns the raw response body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST with a JSON body and returns the raw response body.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT with a JSON body and returns the raw response body.
func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Ping checks upstream reachability without requiring a session. Any HTTP
// response counts as reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return errors.Wrap(err, "build ping request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "upstream unreachable")
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// skipAuth reports whether the path must go out without an Authorization
// header. Login and refresh are the only two; sending a stale bearer token
// on refresh would get the refresh itself rejected.
func skipAuth(path string) bool {
	return strings.Contains(path, "/auth/login") || strings.Contains(path, "/auth/refresh")
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
	}

	data, status, err := c.roundTrip(ctx, method, path, query, payload)
	if err != nil {
		return nil, err
	}

	// One refresh attempt on an expired token, then a single retry.
	if status == http.StatusUnauthorized && !skipAuth(path) && c.tokens.RefreshToken() != "" {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		data, status, err = c.roundTrip(ctx, method, path, query, payload)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status > 299 {
		return nil, statusError(status, data)
	}
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "build %s %s", method, path)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.AccessToken(); token != "" && !skipAuth(path) {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "read %s %s response", method, path)
	}

	zctx.From(ctx).Debug("Upstream call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return data, resp.StatusCode, nil
}

// refresh exchanges the refresh token for a new access token and stores the
// result. A refresh failure invalidates nothing locally; the caller's
// original auth error surfaces instead.
func (c *Client) refresh(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"refreshToken": c.tokens.RefreshToken(),
	})
	if err != nil {
		return errors.Wrap(err, "encode refresh request")
	}

	data, status, err := c.roundTrip(ctx, http.MethodPost, "/auth/refresh", nil, payload)
	if err != nil {
		return errors.Wrap(err, "refresh token")
	}
	if status < 200 || status > 299 {
		return errors.Wrap(statusError(status, data), "refresh token")
	}

	var refreshed struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    int    `json:"expiresIn"`
	}
	if err := json.Unmarshal(data, &refreshed); err != nil {
		return errors.Wrap(err, "decode refresh response")
	}
	if refreshed.AccessToken == "" {
		return errors.New("refresh response missing access token")
	}

	// Some deployments rotate the refresh token, some echo the old one back.
	next := refreshed.RefreshToken
	if next == "" {
		next = c.tokens.RefreshToken()
	}
	c.tokens.UpdateTokens(refreshed.AccessToken, next, refreshed.ExpiresIn)
	return nil
}
