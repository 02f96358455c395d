// Package client is a typed Go SDK for the addonhub REST API plus the
// per-screen loaders a front end drives.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/imroc/req/v3"
)

const defaultTimeout = 15 * time.Second

// APIError is any non-2xx answer. Message is the server's "error" field.
type APIError struct {
	StatusCode int            `json:"-"`
	Message    string         `json:"error"`
	Code       string         `json:"code"`
	Details    map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("addonhub: http %d", e.StatusCode)
	}
	return e.Message
}

// IsNotFound reports whether the API answered 404.
func (e *APIError) IsNotFound() bool { return e != nil && e.StatusCode == http.StatusNotFound }

// Option customises a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithToken starts the client already signed in.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient routes requests through an existing *http.Client, e.g. an
// httptest server's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Transport != nil {
			c.http.GetClient().Transport = hc.Transport
		}
	}
}

// Client talks to one addonhub deployment. It is safe for concurrent use.
type Client struct {
	http *req.Client

	mu           sync.RWMutex
	token        string
	refreshToken string
}

// New builds a client for baseURL, e.g. "http://localhost:3001/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: req.C().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(defaultTimeout).
			SetCommonHeader("Accept", "application/json").
			SetUserAgent("addonhub-go-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current access token, if signed in.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetTokens replaces the stored credentials; empty strings sign out.
func (c *Client) SetTokens(token, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.refreshToken = refreshToken
}

func (c *Client) tokens() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.refreshToken
}

func (c *Client) newRequest(ctx context.Context) *req.Request {
	r := c.http.R().SetContext(ctx)
	if token := c.Token(); token != "" {
		r.SetBearerAuthToken(token)
	}
	return r
}

// do sends r and decodes a 2xx body into out (when non-nil) or an error
// body into *APIError.
func (c *Client) do(r *req.Request, method, path string, out any) error {
	apiErr := &APIError{}
	if out != nil {
		r.SetSuccessResult(out)
	}
	r.SetErrorResult(apiErr)

	resp, err := r.Send(method, path)
	if err != nil {
		return fmt.Errorf("addonhub: %s %s: %w", method, path, err)
	}
	if resp.IsErrorState() {
		apiErr.StatusCode = resp.GetStatusCode()
		return apiErr
	}
	if !resp.IsSuccessState() {
		return &APIError{StatusCode: resp.GetStatusCode(), Message: "unexpected response"}
	}
	return nil
}
