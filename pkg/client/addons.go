package client

import (
	"context"
	"net/http"
	"strconv"
)

type addonEnvelope struct {
	Message string `json:"message"`
	Addon   Addon  `json:"addon"`
}

func (p ListParams) query() map[string]string {
	q := map[string]string{}
	if p.Search != "" {
		q["search"] = p.Search
	}
	if p.Category != "" && p.Category != CategoryAll {
		q["category"] = p.Category
	}
	if p.SortBy != "" {
		q["sortBy"] = p.SortBy
	}
	if p.Page > 0 {
		q["page"] = strconv.Itoa(p.Page)
	}
	if p.Limit > 0 {
		q["limit"] = strconv.Itoa(p.Limit)
	}
	if p.Featured {
		q["featured"] = "true"
	}
	return q
}

func (c *Client) ListAddons(ctx context.Context, params ListParams) (*AddonList, error) {
	var out AddonList
	r := c.newRequest(ctx).SetQueryParams(params.query())
	if err := c.do(r, http.MethodGet, "/addons", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAddon(ctx context.Context, id string) (*Addon, error) {
	var out Addon
	r := c.newRequest(ctx).SetPathParam("id", id)
	if err := c.do(r, http.MethodGet, "/addons/{id}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateAddon(ctx context.Context, input AddonInput) (*Addon, error) {
	var out addonEnvelope
	r := c.newRequest(ctx).SetBody(input)
	if err := c.do(r, http.MethodPost, "/addons", &out); err != nil {
		return nil, err
	}
	return &out.Addon, nil
}

func (c *Client) UpdateAddon(ctx context.Context, id string, patch AddonPatch) (*Addon, error) {
	var out addonEnvelope
	r := c.newRequest(ctx).SetPathParam("id", id).SetBody(patch)
	if err := c.do(r, http.MethodPut, "/addons/{id}", &out); err != nil {
		return nil, err
	}
	return &out.Addon, nil
}

func (c *Client) DeleteAddon(ctx context.Context, id string) error {
	r := c.newRequest(ctx).SetPathParam("id", id)
	return c.do(r, http.MethodDelete, "/addons/{id}", nil)
}

// IncrementViews returns the new view count.
func (c *Client) IncrementViews(ctx context.Context, id string) (int64, error) {
	var out struct {
		Views int64 `json:"views"`
	}
	r := c.newRequest(ctx).SetPathParam("id", id)
	if err := c.do(r, http.MethodPatch, "/addons/{id}/views", &out); err != nil {
		return 0, err
	}
	return out.Views, nil
}

// IncrementDownloads returns the new download count.
func (c *Client) IncrementDownloads(ctx context.Context, id string) (int64, error) {
	var out struct {
		Downloads int64 `json:"downloads"`
	}
	r := c.newRequest(ctx).SetPathParam("id", id)
	if err := c.do(r, http.MethodPatch, "/addons/{id}/downloads", &out); err != nil {
		return 0, err
	}
	return out.Downloads, nil
}

// SetFeatured is admin only.
func (c *Client) SetFeatured(ctx context.Context, id string, featured bool) (*Addon, error) {
	var out Addon
	r := c.newRequest(ctx).
		SetPathParam("id", id).
		SetBody(map[string]bool{"featured": featured})
	if err := c.do(r, http.MethodPatch, "/admin/addons/{id}/featured", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
