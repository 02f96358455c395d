package client

import (
	"context"
	"net/http"
	"strconv"
)

type userEnvelope struct {
	Message string `json:"message,omitempty"`
	User    User   `json:"user"`
}

// GetUser loads a public profile with the user's addons and aggregate stats.
func (c *Client) GetUser(ctx context.Context, id string) (*Profile, error) {
	var out Profile
	r := c.newRequest(ctx).SetPathParam("id", id)
	if err := c.do(r, http.MethodGet, "/users/{id}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserAddons(ctx context.Context, id string, page, limit int) (*AddonList, error) {
	var out AddonList
	r := c.newRequest(ctx).SetPathParam("id", id)
	if page > 0 {
		r.SetQueryParam("page", strconv.Itoa(page))
	}
	if limit > 0 {
		r.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if err := c.do(r, http.MethodGet, "/users/{id}/addons", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile edits the signed-in user's own profile.
func (c *Client) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*User, error) {
	var out userEnvelope
	r := c.newRequest(ctx).SetPathParam("id", id).SetBody(patch)
	if err := c.do(r, http.MethodPut, "/users/{id}", &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
