package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/user"
)

const (
	userColumns = `id, email, name, role, api_key_hash, active`

	getUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	getUserByAPIKeyHashSQL = `SELECT ` + userColumns + ` FROM users WHERE api_key_hash = $1`

	upsertUserSQL = `INSERT INTO users (id, email, name, role, api_key_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			api_key_hash = EXCLUDED.api_key_hash,
			active = EXCLUDED.active`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByAPIKeyHash returns the user owning the given API key digest.
func (r *UserRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*user.User, error) {
	return r.getOne(ctx, getUserByAPIKeyHashSQL, hash)
}

func (r *UserRepository) getOne(ctx context.Context, sql, arg string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// Upsert inserts or replaces a user account. Used by seeding tools.
func (r *UserRepository) Upsert(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, upsertUserSQL,
		u.ID, u.Email, u.Name, u.Role, u.APIKeyHash, u.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.ID, err)
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.APIKeyHash, &u.Active)
	return u, err
}
