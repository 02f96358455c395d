package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/addonhub-backend/internal/addons"
	"github.com/angelmondragon/addonhub-backend/pkg/db"
	"github.com/angelmondragon/addonhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgUserNotFound     = "User not found"
	msgUsernameTaken    = "Username already taken"
	msgForbiddenProfile = "You can only update your own profile"
)

// Service exposes profile reads and self-service profile edits.
type Service interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, callerID, targetID uuid.UUID, input UpdateProfileInput) (*SelfUserDTO, error)
}

// UpdateProfileInput carries the fields present in the request. An empty
// AvatarURL or Bio clears the value.
type UpdateProfileInput struct {
	Username  *string
	AvatarURL *string
	Bio       *string
}

type addonLister interface {
	ListAllByUser(ctx context.Context, userID uuid.UUID) ([]models.Addon, error)
}

type service struct {
	repo     *Repository
	addons   addonLister
	dbClient *db.Client
}

func NewService(repo *Repository, addonRepo addonLister, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if addonRepo == nil {
		return nil, fmt.Errorf("addon repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, addons: addonRepo, dbClient: dbClient}, nil
}

func (s *service) GetProfile(ctx context.Context, id uuid.UUID) (*ProfileDTO, error) {
	user, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.addons.ListAllByUser(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list user addons")
	}
	return &ProfileDTO{
		User:   NewPublicUserDTO(user),
		Addons: addons.NewAddonDTOs(rows),
		Stats:  NewStats(rows),
	}, nil
}

func (s *service) UpdateProfile(ctx context.Context, callerID, targetID uuid.UUID, input UpdateProfileInput) (*SelfUserDTO, error) {
	if callerID != targetID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgForbiddenProfile)
	}

	var updated *models.User
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.find(ctx, repo, targetID)
		if err != nil {
			return err
		}

		columns := map[string]any{}
		if input.Username != nil && *input.Username != current.Username {
			taken, err := repo.UsernameTaken(ctx, *input.Username, targetID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, msgUsernameTaken)
			}
			columns["username"] = *input.Username
		}
		if input.AvatarURL != nil {
			columns["avatar_url"] = nullIfEmpty(*input.AvatarURL)
		}
		if input.Bio != nil {
			columns["bio"] = nullIfEmpty(*input.Bio)
		}

		found, err := repo.UpdateProfile(ctx, targetID, columns)
		if db.IsUniqueViolation(err, "") {
			// lost a race with another rename between check and write
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, msgUsernameTaken)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}

		updated, err = s.find(ctx, repo, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return NewSelfUserDTO(updated), nil
}

func (s *service) find(ctx context.Context, repo *Repository, id uuid.UUID) (*models.User, error) {
	user, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func nullIfEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
