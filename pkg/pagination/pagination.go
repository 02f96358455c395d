package pagination

import "math"

const (
	// DefaultLimit is the page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta is the pagination block returned next to every listing.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Normalize fills defaults for unset values and clamps the limit.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset is the number of rows skipped before the page starts.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NewMeta builds the pagination block for a page of a result set of size total.
func NewMeta(p Params, total int64) Meta {
	n := p.Normalize()
	return Meta{
		Page:  n.Page,
		Limit: n.Limit,
		Total: total,
		Pages: PageCount(total, n.Limit),
	}
}

// PageCount is ceil(total/limit).
func PageCount(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
