package users

import (
	"strings"
	"time"

	"github.com/angelmondragon/addonhub-backend/internal/addons"
	"github.com/angelmondragon/addonhub-backend/pkg/db/models"
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// PublicUserDTO is what anyone may see about a user.
type PublicUserDTO struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Avatar    *string   `json:"avatar"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

// SelfUserDTO adds the private fields a user sees about themselves.
type SelfUserDTO struct {
	PublicUserDTO
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
}

type StatsDTO struct {
	TotalAddons    int   `json:"totalAddons"`
	TotalViews     int64 `json:"totalViews"`
	TotalDownloads int64 `json:"totalDownloads"`
}

// ProfileDTO is the public profile page payload.
type ProfileDTO struct {
	User   PublicUserDTO     `json:"user"`
	Addons []addons.AddonDTO `json:"addons"`
	Stats  StatsDTO          `json:"stats"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	Role         enums.UserRole
}

func (d CreateUserDTO) ToModel() *models.User {
	role := d.Role
	if role == "" {
		role = enums.UserRoleUser
	}
	return &models.User{
		Username:     d.Username,
		Email:        NormalizeEmail(d.Email),
		PasswordHash: d.PasswordHash,
		Role:         role,
	}
}

func NewPublicUserDTO(u *models.User) PublicUserDTO {
	return PublicUserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.AvatarURL,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func NewSelfUserDTO(u *models.User) *SelfUserDTO {
	if u == nil {
		return nil
	}
	return &SelfUserDTO{
		PublicUserDTO: NewPublicUserDTO(u),
		Email:         u.Email,
		Role:          u.Role,
	}
}

// NewStats sums counters over every addon the user owns.
func NewStats(rows []models.Addon) StatsDTO {
	return StatsDTO{
		TotalAddons:    len(rows),
		TotalViews:     lo.SumBy(rows, func(a models.Addon) int64 { return a.Views }),
		TotalDownloads: lo.SumBy(rows, func(a models.Addon) int64 { return a.Downloads }),
	}
}

// NormalizeEmail is applied before every email write or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
