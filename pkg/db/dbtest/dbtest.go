// Package dbtest opens throwaway sqlite databases carrying the addonhub
// schema for repository and service tests.
package dbtest

import (
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/angelmondragon/addonhub-backend/pkg/db"
	"github.com/angelmondragon/addonhub-backend/pkg/db/models"
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// schema mirrors the goose migrations in sqlite dialect.
var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username VARCHAR(20) NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT NOT NULL,
		avatar_url TEXT NULL,
		bio VARCHAR(500) NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE addons (
		id TEXT PRIMARY KEY,
		title VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '1.0.0',
		images TEXT NOT NULL DEFAULT '[]',
		cover_image TEXT NOT NULL DEFAULT '',
		download_links TEXT NOT NULL DEFAULT '[]',
		views INTEGER NOT NULL DEFAULT 0,
		downloads INTEGER NOT NULL DEFAULT 0,
		featured BOOLEAN NOT NULL DEFAULT 0,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX idx_addons_user_id ON addons (user_id)`,
}

// Open returns a client over a fresh in-memory database that is closed when
// the test ends. Connections are capped at one so concurrent writers queue
// instead of failing with "database is locked".
func Open(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(log.New(io.Discard, "", 0), gormlogger.Config{LogLevel: gormlogger.Silent}),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db.Wrap(conn)
}

// CreateUser inserts a user with a unique username derived from prefix.
func CreateUser(t testing.TB, client *db.Client, prefix string) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := &models.User{
		Username:     prefix + suffix,
		Email:        prefix + suffix + "@example.com",
		PasswordHash: "hash",
		Role:         enums.UserRoleUser,
	}
	if err := client.DB().Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// AddonOption tweaks a seeded addon before insert.
type AddonOption func(*models.Addon)

// CreateAddon inserts a valid addon owned by userID.
func CreateAddon(t testing.TB, client *db.Client, userID uuid.UUID, opts ...AddonOption) *models.Addon {
	t.Helper()
	addon := &models.Addon{
		Title:       "Test Addon",
		Description: "seeded for tests",
		Category:    enums.AddonCategoryOther,
		Version:     models.DefaultAddonVersion,
		UserID:      userID,
	}
	addon.SetImages([]string{"https://cdn.example.com/cover.png"})
	addon.SetDownloadLinks([]models.DownloadLink{{Name: "Main", URL: "https://dl.example.com/file.mcaddon"}})
	for _, opt := range opts {
		opt(addon)
	}
	if err := client.DB().Create(addon).Error; err != nil {
		t.Fatalf("create addon: %v", err)
	}
	return addon
}

func WithTitle(title string) AddonOption {
	return func(a *models.Addon) { a.Title = title }
}

func WithDescription(desc string) AddonOption {
	return func(a *models.Addon) { a.Description = desc }
}

func WithCategory(c enums.AddonCategory) AddonOption {
	return func(a *models.Addon) { a.Category = c }
}

func WithCounters(views, downloads int64) AddonOption {
	return func(a *models.Addon) {
		a.Views = views
		a.Downloads = downloads
	}
}

func WithFeatured() AddonOption {
	return func(a *models.Addon) { a.Featured = true }
}

func WithCreatedAt(ts time.Time) AddonOption {
	return func(a *models.Addon) {
		a.CreatedAt = ts
		a.UpdatedAt = ts
	}
}
