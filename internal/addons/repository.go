package addons

import (
	"context"
	"strings"

	"github.com/angelmondragon/addonhub-backend/pkg/db/models"
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	"github.com/angelmondragon/addonhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counter names the addon counters that can be incremented.
type Counter string

const (
	CounterViews     Counter = "views"
	CounterDownloads Counter = "downloads"
)

// ListQuery is the repository form of a listing request.
type ListQuery struct {
	Search string
	// Category is empty when the listing is not filtered by category.
	Category     enums.AddonCategory
	FeaturedOnly bool
	UserID       *uuid.UUID
	Sort         enums.AddonSort
	Page         pagination.Params
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, addon *models.Addon) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(addon).Error
}

// FindByID loads the addon together with its author.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Addon, error) {
	var addon models.Addon
	if err := r.db.WithContext(ctx).Preload("User").First(&addon, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &addon, nil
}

// Save writes every column of the addon; the author row is never touched.
func (r *Repository) Save(ctx context.Context, addon *models.Addon) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(addon).Error
}

// Delete hard-deletes the addon and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Addon{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// IncrementCounter adds one to the counter in a single UPDATE and returns the
// new value. It returns gorm.ErrRecordNotFound when the addon does not exist.
// Call it inside a transaction so the read-back sees this increment.
func (r *Repository) IncrementCounter(ctx context.Context, id uuid.UUID, counter Counter) (int64, error) {
	col := string(counter)
	res := r.db.WithContext(ctx).
		Model(&models.Addon{}).
		Where("id = ?", id).
		UpdateColumn(col, gorm.Expr(col+" + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var value int64
	if err := r.db.WithContext(ctx).
		Model(&models.Addon{}).
		Select(col).
		Where("id = ?", id).
		Row().
		Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

// SetFeatured flips the featured flag; it returns false when no row matched.
func (r *Repository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Addon{}).
		Where("id = ?", id).
		Update("featured", featured)
	return res.RowsAffected > 0, res.Error
}

// List returns one page of addons matching q and the total match count.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Addon, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page.Normalize()
	var rows []models.Addon
	err := r.filtered(ctx, q).
		Preload("User").
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.Sort.Column()}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListAllByUser returns every addon owned by userID, newest first.
func (r *Repository) ListAllByUser(ctx context.Context, userID uuid.UUID) ([]models.Addon, error) {
	var rows []models.Addon
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) filtered(ctx context.Context, q ListQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Addon{})
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		tx = tx.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.FeaturedOnly {
		tx = tx.Where("featured = ?", true)
	}
	if q.UserID != nil {
		tx = tx.Where("user_id = ?", *q.UserID)
	}
	return tx
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
