// Package apiclient is the single shared transport every service call goes
// through. It fixes the base endpoint, the JSON content type and cookie-based
// credentials, and funnels every response through one interception point that
// normalizes failures into *apierror.Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/mantis-client/internal/apierror"
	"github.com/rs/zerolog/log"
)

// ArtifactClearer wipes locally persisted client state.
type ArtifactClearer interface {
	ClearAll() error
}

// Client is the shared HTTP client.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	clearer ArtifactClearer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Jar is replaced by
// a fresh cookie jar when nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithArtifactClearer sets what gets wiped when the server answers 401.
func WithArtifactClearer(clearer ArtifactClearer) Option {
	return func(c *Client) {
		c.clearer = clearer
	}
}

// New creates a Client for the given base endpoint.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// BaseURL returns the configured base endpoint.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Jar returns the cookie jar holding the server session.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// Get issues a GET and decodes the response body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch issues a PATCH with body encoded as JSON.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do performs a request. body is JSON-encoded when non-nil; out receives the
// decoded response when non-nil. Every error returned is an *apierror.Error.
// No timeout is applied here; bound the call through ctx.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return apierror.NewTransport(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.intercept(req, nil, nil, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.intercept(req, resp, nil, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.intercept(req, resp, data, nil)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("Could not decode response body")
		return apierror.NewMalformed(err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	return req, nil
}

// intercept is the single point every failed exchange passes through. A 401
// clears the local client state; redirecting is left to whoever watches the
// session, so that a deep service call never triggers navigation itself.
func (c *Client) intercept(req *http.Request, resp *http.Response, body []byte, transportErr error) error {
	logger := log.With().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Logger()

	if resp != nil && resp.StatusCode == http.StatusUnauthorized && c.clearer != nil {
		if err := c.clearer.ClearAll(); err != nil {
			logger.Warn().Err(err).Msg("Failed to clear client storage after 401")
		}
	}

	if resp == nil || transportErr != nil {
		logger.Debug().Err(transportErr).Msg("Request failed without a usable response")
		return apierror.NewTransport(transportErr)
	}

	apiErr := apierror.FromResponse(resp.StatusCode, body)
	logger.Debug().Int("status", resp.StatusCode).Str("kind", apiErr.Kind.String()).Msg(apiErr.Message)
	return apiErr
}
