package user

import (
	"context"

	"github.com/go-faster/errors"
)

// Guard performs role checks for privileged operations. The role is always
// re-fetched from storage rather than trusted from a cached credential, so a
// demotion or deactivation takes effect on the next request.
type Guard struct {
	users Repository
}

// NewGuard creates a Guard backed by the given user repository.
func NewGuard(users Repository) *Guard {
	return &Guard{users: users}
}

// Require verifies that the user identified by userID exists, is active, and
// holds a role satisfying required. It returns the fresh user record on
// success, ErrUnauthenticated when the identity cannot be resolved, and
// ErrForbidden when the role is insufficient.
func (g *Guard) Require(ctx context.Context, userID string, required Role) (*User, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "resolve user")
	}
	if !u.Active {
		return nil, ErrUnauthenticated
	}

	if !u.Role.Satisfies(required) {
		return nil, ErrForbidden
	}

	return u, nil
}
