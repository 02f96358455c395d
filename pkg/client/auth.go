package client

import (
	"context"
	"errors"
	"net/http"
)

// ErrNotSignedIn is returned by calls that need stored credentials.
var ErrNotSignedIn = errors.New("addonhub: not signed in")

// Register creates an account and keeps the returned tokens.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthSession, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.signIn(ctx, "/auth/register", body)
}

// Login keeps the returned tokens on success.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthSession, error) {
	body := map[string]string{"email": email, "password": password}
	return c.signIn(ctx, "/auth/login", body)
}

func (c *Client) signIn(ctx context.Context, path string, body any) (*AuthSession, error) {
	var out AuthSession
	r := c.http.R().SetContext(ctx).SetBody(body)
	if err := c.do(r, http.MethodPost, path, &out); err != nil {
		return nil, err
	}
	c.SetTokens(out.Token, out.RefreshToken)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	if c.Token() == "" {
		return nil, ErrNotSignedIn
	}
	var out userEnvelope
	if err := c.do(c.newRequest(ctx), http.MethodGet, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Refresh rotates the stored token pair. The old pair is unusable afterwards.
func (c *Client) Refresh(ctx context.Context) error {
	token, refresh := c.tokens()
	if token == "" || refresh == "" {
		return ErrNotSignedIn
	}
	var out AuthSession
	r := c.newRequest(ctx).SetBody(map[string]string{"refreshToken": refresh})
	if err := c.do(r, http.MethodPost, "/auth/refresh", &out); err != nil {
		return err
	}
	c.SetTokens(out.Token, out.RefreshToken)
	return nil
}

// Logout revokes the server session and forgets local tokens even when the
// server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	err := c.do(c.newRequest(ctx), http.MethodPost, "/auth/logout", nil)
	c.SetTokens("", "")
	return err
}
