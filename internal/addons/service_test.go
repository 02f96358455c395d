package addons

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/addonhub-backend/pkg/db"
	"github.com/angelmondragon/addonhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/addonhub-backend/pkg/db/models"
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/angelmondragon/addonhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	views, downloads atomic.Int64
}

func (c *countingRecorder) IncView()     { c.views.Add(1) }
func (c *countingRecorder) IncDownload() { c.downloads.Add(1) }

func newTestService(t *testing.T) (Service, *db.Client, *countingRecorder) {
	t.Helper()
	client := dbtest.Open(t)
	rec := &countingRecorder{}
	svc, err := NewService(NewRepository(client.DB()), client, rec)
	require.NoError(t, err)
	return svc, client, rec
}

func validCreateInput() CreateInput {
	return CreateInput{
		Title:       "Dragon Mounts",
		Description: "Ride dragons",
		Category:    enums.AddonCategoryMobs,
		Images:      []string{"https://cdn.example.com/1.png", "https://cdn.example.com/2.png"},
		DownloadLinks: []DownloadLinkDTO{
			{Name: "Main", URL: "https://dl.example.com/dragons.mcaddon", Platform: "bedrock"},
		},
	}
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, &db.Client{}, nil)
	require.Error(t, err)
	_, err = NewService(&Repository{}, nil, nil)
	require.Error(t, err)
}

func TestServiceCreateDefaultsAndDenormalizes(t *testing.T) {
	svc, client, _ := newTestService(t)
	owner := dbtest.CreateUser(t, client, "maker")

	dto, err := svc.Create(context.Background(), owner.ID, validCreateInput())
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, dto.ID)
	require.Equal(t, "1.0.0", dto.Version)
	require.Equal(t, "https://cdn.example.com/1.png", dto.CoverImage)
	require.Zero(t, dto.Views)
	require.Zero(t, dto.Downloads)
	require.False(t, dto.Featured)
	require.Equal(t, owner.ID, dto.Author.ID)
	require.Equal(t, owner.Username, dto.Author.Username)
	require.Equal(t, "bedrock", dto.DownloadLinks[0].Platform)
	require.False(t, dto.CreatedAt.IsZero())
}

func TestServiceCreateRejectsEmptyLists(t *testing.T) {
	svc, client, _ := newTestService(t)
	owner := dbtest.CreateUser(t, client, "maker")

	input := validCreateInput()
	input.Images = nil
	_, err := svc.Create(context.Background(), owner.ID, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, client.DB().Model(&models.Addon{}).Count(&count).Error)
	require.Zero(t, count, "nothing may be written on validation failure")
}

func TestServiceRejectsBlankText(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, client, "maker")

	input := validCreateInput()
	input.Title = "   "
	_, err := svc.Create(ctx, owner.ID, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "title is required", pkgerrors.As(err).Message())

	addon := dbtest.CreateAddon(t, client, owner.ID)
	blank := "  "
	_, err = svc.Update(ctx, owner.ID, addon.ID, UpdateInput{Title: &blank})
	require.Equal(t, "title must not be empty", pkgerrors.As(err).Message())
	_, err = svc.Update(ctx, owner.ID, addon.ID, UpdateInput{Version: &blank})
	require.Equal(t, "version must not be empty", pkgerrors.As(err).Message())

	stored, err := svc.Get(ctx, addon.ID)
	require.NoError(t, err)
	require.Equal(t, "Test Addon", stored.Title)
}

func TestServiceUpdateOwnershipAndCover(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, client, "owner")
	stranger := dbtest.CreateUser(t, client, "stranger")
	addon := dbtest.CreateAddon(t, client, owner.ID, dbtest.WithCreatedAt(time.Now().Add(-time.Hour)))

	title := "Hacked"
	_, err := svc.Update(ctx, stranger.ID, addon.ID, UpdateInput{Title: &title})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	require.Equal(t, "You can only edit your own addons", pkgerrors.As(err).Message())

	unchanged, err := svc.Get(ctx, addon.ID)
	require.NoError(t, err)
	require.Equal(t, "Test Addon", unchanged.Title)

	_, err = svc.Update(ctx, owner.ID, uuid.New(), UpdateInput{Title: &title})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	empty := []string{}
	_, err = svc.Update(ctx, owner.ID, addon.ID, UpdateInput{Images: &empty})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	images := []string{"data:image/png;base64,AAAA", "https://cdn.example.com/b.png"}
	newTitle := "Renamed"
	updated, err := svc.Update(ctx, owner.ID, addon.ID, UpdateInput{Title: &newTitle, Images: &images})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, "data:image/png;base64,AAAA", updated.CoverImage)
	require.Equal(t, images, updated.Images)
	require.Equal(t, "seeded for tests", updated.Description, "absent fields are kept")
	require.True(t, updated.UpdatedAt.After(addon.UpdatedAt))
}

func TestServiceDelete(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, client, "owner")
	stranger := dbtest.CreateUser(t, client, "stranger")
	addon := dbtest.CreateAddon(t, client, owner.ID)

	err := svc.Delete(ctx, stranger.ID, addon.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	require.Equal(t, "You can only delete your own addons", pkgerrors.As(err).Message())

	require.NoError(t, svc.Delete(ctx, owner.ID, addon.ID))

	_, err = svc.Get(ctx, addon.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(svc.Delete(ctx, owner.ID, addon.ID), pkgerrors.CodeNotFound))
}

func TestServiceListNormalizesInput(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, client, "lister")
	dbtest.CreateAddon(t, client, owner.ID, dbtest.WithCategory(enums.AddonCategoryMaps))
	dbtest.CreateAddon(t, client, owner.ID, dbtest.WithCategory(enums.AddonCategoryTools))

	res, err := svc.List(ctx, ListInput{Category: "all"})
	require.NoError(t, err)
	require.Len(t, res.Addons, 2)
	require.Equal(t, pagination.Meta{Page: 1, Limit: 20, Total: 2, Pages: 1}, res.Pagination)

	res, err = svc.List(ctx, ListInput{Category: "maps"})
	require.NoError(t, err)
	require.Len(t, res.Addons, 1)

	_, err = svc.List(ctx, ListInput{Category: "spaceships"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	res, err = svc.List(ctx, ListInput{Search: "no such thing"})
	require.NoError(t, err)
	require.NotNil(t, res.Addons)
	require.Empty(t, res.Addons)
	require.Zero(t, res.Pagination.Pages)
}

func TestServiceListByUser(t *testing.T) {
	svc, client, _ := newTestService(t)
	owner := dbtest.CreateUser(t, client, "owner")
	other := dbtest.CreateUser(t, client, "other")
	for i := 0; i < 3; i++ {
		dbtest.CreateAddon(t, client, owner.ID)
	}
	dbtest.CreateAddon(t, client, other.ID)

	res, err := svc.ListByUser(context.Background(), owner.ID, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Addons, 2)
	require.EqualValues(t, 3, res.Pagination.Total)
	require.Equal(t, 2, res.Pagination.Pages)
}

func TestServiceIncrementCountersConcurrently(t *testing.T) {
	svc, client, rec := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, client, "popular")
	addon := dbtest.CreateAddon(t, client, owner.ID)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.IncrementViews(ctx, addon.ID)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := svc.IncrementDownloads(ctx, addon.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx, addon.ID)
	require.NoError(t, err)
	require.EqualValues(t, workers, got.Views)
	require.EqualValues(t, workers, got.Downloads)
	require.EqualValues(t, workers, rec.views.Load())
	require.EqualValues(t, workers, rec.downloads.Load())

	_, err = svc.IncrementViews(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.EqualValues(t, workers, rec.views.Load(), "misses are not counted")
}

func TestServiceSetFeatured(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, client, "feat")
	addon := dbtest.CreateAddon(t, client, owner.ID)

	dto, err := svc.SetFeatured(ctx, addon.ID, true)
	require.NoError(t, err)
	require.True(t, dto.Featured)

	_, err = svc.SetFeatured(ctx, uuid.New(), true)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewAddonDTOWithoutAuthor(t *testing.T) {
	a := models.Addon{ID: uuid.New(), UserID: uuid.New(), Title: "x"}
	dto := NewAddonDTO(a)
	require.Equal(t, a.UserID, dto.Author.ID)
	require.NotNil(t, dto.Images)
	require.NotNil(t, dto.DownloadLinks)
	require.Empty(t, NewAddonDTOs(nil))
	require.NotNil(t, NewAddonDTOs(nil))
}
