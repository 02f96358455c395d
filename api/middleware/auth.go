package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/addonhub-backend/api/responses"
	"github.com/angelmondragon/addonhub-backend/api/validators"
	pkgAuth "github.com/angelmondragon/addonhub-backend/pkg/auth"
	"github.com/angelmondragon/addonhub-backend/pkg/auth/session"
	"github.com/angelmondragon/addonhub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/angelmondragon/addonhub-backend/pkg/logger"
)

// Auth rejects the request with 401 unless it carries a valid bearer token
// backed by a live session.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, cfg, verifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(attachIdentity(r.Context(), logg, id)))
		})
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous or badly authenticated requests through unchanged.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := authenticate(r, cfg, verifier)
			if err != nil {
				if logg != nil && pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
					logg.Warn(r.Context(), "auth.optional.session_check_failed")
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(attachIdentity(r.Context(), logg, id)))
		})
	}
}

func authenticate(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker) (Identity, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	token, err := validators.ParseBearerToken(raw)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid authorization header")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier != nil {
		ok, err := verifier.HasSession(r.Context(), claims.ID)
		if err != nil {
			return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
	}

	return Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		AccessID: claims.ID,
	}, nil
}

func attachIdentity(ctx context.Context, logg *logger.Logger, id Identity) context.Context {
	ctx = WithIdentity(ctx, id)
	if logg != nil {
		ctx = logg.WithUserID(ctx, id.UserID.String())
		ctx = logg.WithField(ctx, "actor_role", string(id.Role))
	}
	return ctx
}
