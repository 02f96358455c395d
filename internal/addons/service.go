package addons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/addonhub-backend/pkg/db"
	"github.com/angelmondragon/addonhub-backend/pkg/db/models"
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/angelmondragon/addonhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgNotFound        = "Addon not found"
	msgForbiddenEdit   = "You can only edit your own addons"
	msgForbiddenDelete = "You can only delete your own addons"
)

// Service exposes the addon catalogue operations.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*AddonDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*AddonDTO, error)
	Update(ctx context.Context, userID, addonID uuid.UUID, input UpdateInput) (*AddonDTO, error)
	Delete(ctx context.Context, userID, addonID uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) (int64, error)
	IncrementDownloads(ctx context.Context, id uuid.UUID) (int64, error)
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*AddonDTO, error)
}

// ListInput holds the already parsed browse filters.
type ListInput struct {
	Search string
	// Category is "" or "all" for no category filter.
	Category     string
	FeaturedOnly bool
	Sort         enums.AddonSort
	Page         pagination.Params
}

type CreateInput struct {
	Title         string
	Description   string
	Category      enums.AddonCategory
	Version       string
	Images        []string
	DownloadLinks []DownloadLinkDTO
}

// UpdateInput carries only the fields present in the request.
type UpdateInput struct {
	Title         *string
	Description   *string
	Category      *enums.AddonCategory
	Version       *string
	Images        *[]string
	DownloadLinks *[]DownloadLinkDTO
}

type counterRecorder interface {
	IncView()
	IncDownload()
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	counters counterRecorder
}

// NewService wires the addon service. counters may be nil.
func NewService(repo *Repository, dbClient *db.Client, counters counterRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("addon repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient, counters: counters}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	q := ListQuery{
		Search:       input.Search,
		FeaturedOnly: input.FeaturedOnly,
		Sort:         input.Sort,
		Page:         input.Page.Normalize(),
	}
	if cat := strings.TrimSpace(input.Category); cat != "" && cat != enums.AddonCategoryAll {
		parsed, err := enums.ParseAddonCategory(cat)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "category must be one of the known categories or all")
		}
		q.Category = parsed
	}
	return s.list(ctx, q)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) (*ListResult, error) {
	return s.list(ctx, ListQuery{
		UserID: &userID,
		Sort:   enums.AddonSortNewest,
		Page:   page.Normalize(),
	})
}

func (s *service) list(ctx context.Context, q ListQuery) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addons")
	}
	return &ListResult{
		Addons:     NewAddonDTOs(rows),
		Pagination: pagination.NewMeta(q.Page, total),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AddonDTO, error) {
	addon, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := NewAddonDTO(*addon)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*AddonDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	if err := checkLists(&input.Images, &input.DownloadLinks); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	addon := &models.Addon{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Category:    input.Category,
		Version:     strings.TrimSpace(input.Version),
		UserID:      userID,
	}
	if addon.Version == "" {
		addon.Version = models.DefaultAddonVersion
	}
	addon.SetImages(input.Images)
	addon.SetDownloadLinks(toModelLinks(input.DownloadLinks))

	var created *models.Addon
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, addon); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create addon")
		}
		var err error
		created, err = s.find(ctx, repo, addon.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := NewAddonDTO(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, addonID uuid.UUID, input UpdateInput) (*AddonDTO, error) {
	if err := checkLists(input.Images, input.DownloadLinks); err != nil {
		return nil, err
	}
	if err := checkPresentText(input.Title, input.Version); err != nil {
		return nil, err
	}

	var updated *models.Addon
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		addon, err := s.find(ctx, repo, addonID)
		if err != nil {
			return err
		}
		if addon.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, msgForbiddenEdit)
		}

		applyUpdate(addon, input)
		if err := repo.Save(ctx, addon); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update addon")
		}
		updated = addon
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewAddonDTO(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, addonID uuid.UUID) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		addon, err := s.find(ctx, repo, addonID)
		if err != nil {
			return err
		}
		if addon.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, msgForbiddenDelete)
		}
		deleted, err := repo.Delete(ctx, addonID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete addon")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil
	})
}

func (s *service) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	n, err := s.increment(ctx, id, CounterViews)
	if err == nil && s.counters != nil {
		s.counters.IncView()
	}
	return n, err
}

func (s *service) IncrementDownloads(ctx context.Context, id uuid.UUID) (int64, error) {
	n, err := s.increment(ctx, id, CounterDownloads)
	if err == nil && s.counters != nil {
		s.counters.IncDownload()
	}
	return n, err
}

func (s *service) increment(ctx context.Context, id uuid.UUID, counter Counter) (int64, error) {
	var value int64
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		value, err = s.repo.WithTx(tx).IncrementCounter(ctx, id, counter)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment "+string(counter))
	}
	return value, nil
}

func (s *service) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*AddonDTO, error) {
	found, err := s.repo.SetFeatured(ctx, id, featured)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set featured")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	return s.Get(ctx, id)
}

func (s *service) find(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Addon, error) {
	addon, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load addon")
	}
	return addon, nil
}

// checkLists enforces the one-item minimum on lists that are present.
func checkLists(images *[]string, links *[]DownloadLinkDTO) error {
	if images != nil && len(*images) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "images must contain at least 1 item(s)")
	}
	if links != nil && len(*links) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "downloadLinks must contain at least 1 item(s)")
	}
	return nil
}

// checkPresentText rejects title or version when sent blank.
func checkPresentText(title, version *string) error {
	if title != nil && strings.TrimSpace(*title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title must not be empty")
	}
	if version != nil && strings.TrimSpace(*version) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "version must not be empty")
	}
	return nil
}

func applyUpdate(addon *models.Addon, input UpdateInput) {
	if input.Title != nil {
		addon.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		addon.Description = *input.Description
	}
	if input.Category != nil {
		addon.Category = *input.Category
	}
	if input.Version != nil {
		addon.Version = strings.TrimSpace(*input.Version)
	}
	if input.Images != nil {
		addon.SetImages(*input.Images)
	}
	if input.DownloadLinks != nil {
		addon.SetDownloadLinks(toModelLinks(*input.DownloadLinks))
	}
}
