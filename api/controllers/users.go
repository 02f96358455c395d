package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/addonhub-backend/api/responses"
	"github.com/angelmondragon/addonhub-backend/api/validators"
	"github.com/angelmondragon/addonhub-backend/internal/addons"
	"github.com/angelmondragon/addonhub-backend/internal/users"
	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/angelmondragon/addonhub-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type updateProfileRequest struct {
	Username  *string `json:"username" validate:"omitnil,alphanum,min=3,max=20"`
	AvatarURL *string `json:"avatarUrl" validate:"omitnil,urlorempty"`
	Bio       *string `json:"bio" validate:"omitnil,max=500"`
}

type userEnvelope struct {
	Message string             `json:"message,omitempty"`
	User    *users.SelfUserDTO `json:"user"`
}

func userIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
	}
	return id, nil
}

func (r *updateProfileRequest) Normalize() {
	trimPtr(r.Username)
	trimPtr(r.AvatarURL)
	trimPtr(r.Bio)
}

// GetUserProfile returns the public profile with every addon and aggregate stats.
func GetUserProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		id, err := userIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.GetProfile(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, profile)
	}
}

// ListUserAddons pages through one user's addons, newest first.
func ListUserAddons(svc addons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, addonServiceUnavailable())
			return
		}
		id, err := userIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListByUser(r.Context(), id, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, result)
	}
}

func UpdateUserProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		callerID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := userIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := users.UpdateProfileInput{
			Username:  body.Username,
			AvatarURL: body.AvatarURL,
			Bio:       body.Bio,
		}

		user, err := svc.UpdateProfile(r.Context(), callerID, targetID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, userEnvelope{Message: "Profile updated successfully", User: user})
	}
}
