package enums

import (
	"fmt"

	"github.com/samber/lo"
)

// UserRole is the platform-wide role carried in access tokens.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

var validUserRoles = []UserRole{UserRoleUser, UserRoleAdmin}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	return lo.Contains(validUserRoles, r)
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	if role := UserRole(value); role.IsValid() {
		return role, nil
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
