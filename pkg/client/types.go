package client

import "time"

const (
	SortNewest    = "newest"
	SortPopular   = "popular"
	SortDownloads = "downloads"

	// CategoryAll disables the category filter.
	CategoryAll = "all"
)

type Author struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

type DownloadLink struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Platform string `json:"platform,omitempty"`
}

type Addon struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Version       string         `json:"version"`
	Images        []string       `json:"images"`
	CoverImage    string         `json:"coverImage"`
	DownloadLinks []DownloadLink `json:"downloadLinks"`
	Views         int64          `json:"views"`
	Downloads     int64          `json:"downloads"`
	Featured      bool           `json:"featured"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	Author        Author         `json:"author"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type AddonList struct {
	Addons     []Addon    `json:"addons"`
	Pagination Pagination `json:"pagination"`
}

// User is the public view; Email and Role are only set for the caller's own account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	Avatar    *string   `json:"avatar"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

type Stats struct {
	TotalAddons    int   `json:"totalAddons"`
	TotalViews     int64 `json:"totalViews"`
	TotalDownloads int64 `json:"totalDownloads"`
}

type Profile struct {
	User   User    `json:"user"`
	Addons []Addon `json:"addons"`
	Stats  Stats   `json:"stats"`
}

// ListParams are the catalogue filters. Zero values are left to server defaults.
type ListParams struct {
	Search   string
	Category string
	SortBy   string
	Page     int
	Limit    int
	Featured bool
}

type AddonInput struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Version       string         `json:"version,omitempty"`
	Images        []string       `json:"images"`
	DownloadLinks []DownloadLink `json:"downloadLinks"`
}

// AddonPatch sends only the non-nil fields.
type AddonPatch struct {
	Title         *string         `json:"title,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Category      *string         `json:"category,omitempty"`
	Version       *string         `json:"version,omitempty"`
	Images        *[]string       `json:"images,omitempty"`
	DownloadLinks *[]DownloadLink `json:"downloadLinks,omitempty"`
}

// ProfilePatch sends only the non-nil fields; an empty string clears avatar or bio.
type ProfilePatch struct {
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

type AuthSession struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}
