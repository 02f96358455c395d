package addons

import (
	"time"

	"github.com/angelmondragon/addonhub-backend/pkg/db/models"
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	"github.com/angelmondragon/addonhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// AuthorDTO is the public slice of the owning user embedded in every addon.
type AuthorDTO struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   *string   `json:"avatar"`
}

type DownloadLinkDTO struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Platform string `json:"platform,omitempty"`
}

// AddonDTO is the wire shape of an addon.
type AddonDTO struct {
	ID            uuid.UUID           `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      enums.AddonCategory `json:"category"`
	Version       string              `json:"version"`
	Images        []string            `json:"images"`
	CoverImage    string              `json:"coverImage"`
	DownloadLinks []DownloadLinkDTO   `json:"downloadLinks"`
	Views         int64               `json:"views"`
	Downloads     int64               `json:"downloads"`
	Featured      bool                `json:"featured"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	Author        AuthorDTO           `json:"author"`
}

// ListResult is the envelope returned by every paginated addon listing.
type ListResult struct {
	Addons     []AddonDTO      `json:"addons"`
	Pagination pagination.Meta `json:"pagination"`
}

// NewAddonDTO shapes a persisted addon. The author falls back to the bare
// user id when the association was not preloaded.
func NewAddonDTO(a models.Addon) AddonDTO {
	dto := AddonDTO{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Category:    a.Category,
		Version:     a.Version,
		Images:      append([]string{}, a.ImageList()...),
		CoverImage:  a.CoverImage,
		DownloadLinks: lo.Map(a.DownloadLinkList(), func(l models.DownloadLink, _ int) DownloadLinkDTO {
			return DownloadLinkDTO{Name: l.Name, URL: l.URL, Platform: l.Platform}
		}),
		Views:     a.Views,
		Downloads: a.Downloads,
		Featured:  a.Featured,
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
		Author:    AuthorDTO{ID: a.UserID},
	}
	if a.User != nil {
		dto.Author.Username = a.User.Username
		dto.Author.Avatar = a.User.AvatarURL
	}
	return dto
}

// NewAddonDTOs never returns nil so empty lists encode as [].
func NewAddonDTOs(rows []models.Addon) []AddonDTO {
	if len(rows) == 0 {
		return []AddonDTO{}
	}
	return lo.Map(rows, func(a models.Addon, _ int) AddonDTO {
		return NewAddonDTO(a)
	})
}

func toModelLinks(links []DownloadLinkDTO) []models.DownloadLink {
	return lo.Map(links, func(l DownloadLinkDTO, _ int) models.DownloadLink {
		return models.DownloadLink{Name: l.Name, URL: l.URL, Platform: l.Platform}
	})
}
