package middleware

import (
	"context"

	"github.com/angelmondragon/addonhub-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// Identity is the authenticated caller attached by Auth and OptionalAuth.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     enums.UserRole
	// AccessID is the access token jti, which also keys the Redis session.
	AccessID string
}

// IdentityFromContext returns the caller, if the request was authenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(ctxIdentity).(Identity)
	return id, ok && id.UserID != uuid.Nil
}

// UserIDFromContext returns the caller id or uuid.Nil for anonymous requests.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	id, _ := IdentityFromContext(ctx)
	return id.Role
}

// WithIdentity injects the caller into the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, id)
}
