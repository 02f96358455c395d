package controllers

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/addonhub-backend/api/middleware"
	"github.com/angelmondragon/addonhub-backend/api/responses"
	"github.com/angelmondragon/addonhub-backend/api/validators"
	"github.com/angelmondragon/addonhub-backend/internal/addons"
	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/angelmondragon/addonhub-backend/pkg/logger"
	"github.com/angelmondragon/addonhub-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const maxSearchLength = 100

type downloadLinkRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	URL      string `json:"url" validate:"required,url"`
	Platform string `json:"platform,omitempty" validate:"max=50"`
}

type createAddonRequest struct {
	Title         string                `json:"title" validate:"required,max=100"`
	Description   string                `json:"description"`
	Category      string                `json:"category" validate:"required,addoncategory"`
	Version       string                `json:"version,omitempty" validate:"max=20"`
	Images        []string              `json:"images" validate:"required,min=1,dive,addonimage"`
	DownloadLinks []downloadLinkRequest `json:"downloadLinks" validate:"required,min=1,dive"`
}

// updateAddonRequest validates only the fields present in the body.
type updateAddonRequest struct {
	Title         *string                `json:"title" validate:"omitnil,min=1,max=100"`
	Description   *string                `json:"description"`
	Category      *string                `json:"category" validate:"omitnil,addoncategory"`
	Version       *string                `json:"version" validate:"omitnil,min=1,max=20"`
	Images        *[]string              `json:"images" validate:"omitnil,min=1,dive,addonimage"`
	DownloadLinks *[]downloadLinkRequest `json:"downloadLinks" validate:"omitnil,min=1,dive"`
}

type featuredRequest struct {
	Featured *bool `json:"featured" validate:"required"`
}

type addonEnvelope struct {
	Message string           `json:"message"`
	Addon   *addons.AddonDTO `json:"addon"`
}

func (r *createAddonRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Version = strings.TrimSpace(r.Version)
	trimLinks(r.DownloadLinks)
}

func (r *updateAddonRequest) Normalize() {
	trimPtr(r.Title)
	trimPtr(r.Version)
	if r.DownloadLinks != nil {
		trimLinks(*r.DownloadLinks)
	}
}

func trimPtr(v *string) {
	if v != nil {
		*v = strings.TrimSpace(*v)
	}
}

func trimLinks(links []downloadLinkRequest) {
	for i := range links {
		links[i].Name = strings.TrimSpace(links[i].Name)
		links[i].URL = strings.TrimSpace(links[i].URL)
		links[i].Platform = strings.TrimSpace(links[i].Platform)
	}
}

func (r createAddonRequest) toInput() addons.CreateInput {
	return addons.CreateInput{
		Title:         r.Title,
		Description:   r.Description,
		Category:      enums.AddonCategory(r.Category),
		Version:       r.Version,
		Images:        r.Images,
		DownloadLinks: toLinkDTOs(r.DownloadLinks),
	}
}

func (r updateAddonRequest) toInput() addons.UpdateInput {
	input := addons.UpdateInput{
		Title:       r.Title,
		Description: r.Description,
		Version:     r.Version,
		Images:      r.Images,
	}
	if r.Category != nil {
		category := enums.AddonCategory(*r.Category)
		input.Category = &category
	}
	if r.DownloadLinks != nil {
		links := toLinkDTOs(*r.DownloadLinks)
		input.DownloadLinks = &links
	}
	return input
}

func toLinkDTOs(links []downloadLinkRequest) []addons.DownloadLinkDTO {
	return lo.Map(links, func(l downloadLinkRequest, _ int) addons.DownloadLinkDTO {
		return addons.DownloadLinkDTO{Name: l.Name, URL: l.URL, Platform: l.Platform}
	})
}

// parsePage reads page and limit; out of range values are rejected rather than clamped.
func parsePage(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, math.MaxInt32)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

// addonIDParam treats a malformed id like an unknown one.
func addonIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "Addon not found")
	}
	return id, nil
}

func tagAddon(r *http.Request, logg *logger.Logger, id uuid.UUID) *http.Request {
	if logg == nil {
		return r
	}
	return r.WithContext(logg.WithAddonID(r.Context(), id.String()))
}

func requireUser(r *http.Request) (uuid.UUID, error) {
	id := middleware.UserIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return id, nil
}

func addonServiceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "addon service unavailable")
}

// ListAddons serves the public catalogue with search, category, sort and featured filters.
func ListAddons(svc addons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, addonServiceUnavailable())
			return
		}

		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		search := strings.TrimSpace(q.Get("search"))
		if utf8.RuneCountInString(search) > maxSearchLength {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("search must be at most %d characters", maxSearchLength)))
			return
		}
		result, err := svc.List(r.Context(), addons.ListInput{
			Search:       search,
			Category:     strings.ToLower(strings.TrimSpace(q.Get("category"))),
			FeaturedOnly: validators.ParseQueryBool(r, "featured"),
			Sort:         enums.ParseAddonSort(q.Get("sortBy")),
			Page:         page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, result)
	}
}

func GetAddon(svc addons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, addonServiceUnavailable())
			return
		}
		id, err := addonIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = tagAddon(r, logg, id)
		addon, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, addon)
	}
}

// CreateAddon persists a new addon owned by the caller.
func CreateAddon(svc addons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, addonServiceUnavailable())
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createAddonRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addon, err := svc.Create(r.Context(), userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, addonEnvelope{Message: "Addon created successfully", Addon: addon})
	}
}

func UpdateAddon(svc addons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, addonServiceUnavailable())
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := addonIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = tagAddon(r, logg, id)

		var body updateAddonRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addon, err := svc.Update(r.Context(), userID, id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, addonEnvelope{Message: "Addon updated successfully", Addon: addon})
	}
}

func DeleteAddon(svc addons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, addonServiceUnavailable())
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := addonIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = tagAddon(r, logg, id)
		if err := svc.Delete(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Addon deleted successfully")
	}
}

// IncrementAddonViews bumps the view counter; anyone may call it.
func IncrementAddonViews(svc addons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, addonServiceUnavailable())
			return
		}
		id, err := addonIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = tagAddon(r, logg, id)
		views, err := svc.IncrementViews(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]int64{"views": views})
	}
}

func IncrementAddonDownloads(svc addons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, addonServiceUnavailable())
			return
		}
		id, err := addonIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = tagAddon(r, logg, id)
		downloads, err := svc.IncrementDownloads(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]int64{"downloads": downloads})
	}
}

// AdminSetAddonFeatured toggles the featured flag. Mounted behind RequireRole(admin).
func AdminSetAddonFeatured(svc addons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, addonServiceUnavailable())
			return
		}
		id, err := addonIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = tagAddon(r, logg, id)

		var body featuredRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addon, err := svc.SetFeatured(r.Context(), id, *body.Featured)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, addon)
	}
}
