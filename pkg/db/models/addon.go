package models

import (
	"time"

	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultAddonVersion is stored when a creator omits the version.
const DefaultAddonVersion = "1.0.0"

// DownloadLink is one mirror an addon can be fetched from.
type DownloadLink struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Platform string `json:"platform,omitempty"`
}

// Addon is a published content package. CoverImage mirrors Images[0].
type Addon struct {
	ID            uuid.UUID                          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string                             `gorm:"column:title;type:varchar(100);not null"`
	Description   string                             `gorm:"column:description;not null;default:''"`
	Category      enums.AddonCategory                `gorm:"column:category;type:text;not null"`
	Version       string                             `gorm:"column:version;not null;default:'1.0.0'"`
	Images        datatypes.JSONType[[]string]       `gorm:"column:images;type:jsonb;not null"`
	CoverImage    string                             `gorm:"column:cover_image;not null"`
	DownloadLinks datatypes.JSONType[[]DownloadLink] `gorm:"column:download_links;type:jsonb;not null"`
	Views         int64                              `gorm:"column:views;not null;default:0"`
	Downloads     int64                              `gorm:"column:downloads;not null;default:0"`
	Featured      bool                               `gorm:"column:featured;not null;default:false"`
	UserID        uuid.UUID                          `gorm:"column:user_id;type:uuid;not null;index"`
	User          *User                              `gorm:"foreignKey:UserID"`
	CreatedAt     time.Time                          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                          `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Addon) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Version == "" {
		a.Version = DefaultAddonVersion
	}
	return nil
}

// SetImages replaces the gallery and keeps the cover in sync.
func (a *Addon) SetImages(images []string) {
	a.Images = datatypes.NewJSONType(append([]string(nil), images...))
	a.CoverImage = ""
	if len(images) > 0 {
		a.CoverImage = images[0]
	}
}

// SetDownloadLinks replaces the download mirrors.
func (a *Addon) SetDownloadLinks(links []DownloadLink) {
	a.DownloadLinks = datatypes.NewJSONType(append([]DownloadLink(nil), links...))
}

// ImageList returns the stored gallery.
func (a *Addon) ImageList() []string {
	return a.Images.Data()
}

// DownloadLinkList returns the stored download mirrors.
func (a *Addon) DownloadLinkList() []DownloadLink {
	return a.DownloadLinks.Data()
}
