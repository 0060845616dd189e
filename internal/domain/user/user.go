package user

import (
	"context"

	"github.com/go-faster/errors"
)

// Role is the access level of a user account.
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrUnauthenticated is returned when no caller identity is present.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the caller's role does not satisfy the
	// required role.
	ErrForbidden = errors.New("forbidden")
)

// Satisfies reports whether a caller holding role r passes a check for
// required. Admin satisfies every check.
func (r Role) Satisfies(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// User is an account that can authenticate against the API.
type User struct {
	ID         string
	Email      string
	Name       string
	Role       Role
	APIKeyHash string
	Active     bool
}

// Repository provides user lookups.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*User, error)
}
