package models

import (
	"time"

	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can publish addons.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string         `gorm:"column:username;type:varchar(20);not null;uniqueIndex"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	AvatarURL    *string        `gorm:"column:avatar_url"`
	Bio          *string        `gorm:"column:bio;type:varchar(500)"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:user"`
	Addons       []Addon        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = enums.UserRoleUser
	}
	return nil
}
