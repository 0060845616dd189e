package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/address"
)

const (
	addressColumns = `id, user_id, recipient, line1, line2, city, state,
		postal_code, country, phone, is_default`

	insertAddressSQL = `INSERT INTO addresses
		(id, user_id, recipient, line1, line2, city, state, postal_code, country, phone, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	listAddressesSQL = `SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = $1 ORDER BY is_default DESC, created_at`

	getAddressSQL = `SELECT ` + addressColumns + ` FROM addresses
		WHERE id = $1 AND user_id = $2`

	unsetDefaultAddressSQL = `UPDATE addresses SET is_default = FALSE
		WHERE user_id = $1 AND is_default`

	setDefaultAddressSQL = `UPDATE addresses SET is_default = TRUE
		WHERE id = $1 AND user_id = $2`

	countAddressesSQL = `SELECT count(*) FROM addresses WHERE user_id = $1`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL. The
// partial unique index on (user_id) WHERE is_default backs up the
// one-default invariant that SetDefault maintains transactionally.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create stores a new address. The user's first address becomes the default.
func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning address tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	rows, err := tx.Query(ctx, countAddressesSQL, a.UserID)
	if err != nil {
		return fmt.Errorf("counting addresses: %w", err)
	}
	count, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return fmt.Errorf("counting addresses: %w", err)
	}

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if count == 0 {
		a.IsDefault = true
	} else if a.IsDefault {
		if _, err := tx.Exec(ctx, unsetDefaultAddressSQL, a.UserID); err != nil {
			return fmt.Errorf("unsetting default address: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, insertAddressSQL,
		a.ID, a.UserID, a.Recipient, a.Line1, a.Line2, a.City, a.State,
		a.PostalCode, a.Country, a.Phone, a.IsDefault,
	); err != nil {
		return fmt.Errorf("inserting address: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing address tx: %w", err)
	}
	return nil
}

// ListByUser returns the user's addresses, default first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

// GetByID returns an address owned by the user.
func (r *AddressRepository) GetByID(ctx context.Context, userID, id string) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressSQL, id, userID)
	if err != nil {
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}
	return &a, nil
}

// SetDefault makes the given address the user's default, unsetting the
// previous one in the same transaction.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning default tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, unsetDefaultAddressSQL, userID); err != nil {
		return fmt.Errorf("unsetting default address: %w", err)
	}

	tag, err := tx.Exec(ctx, setDefaultAddressSQL, id, userID)
	if err != nil {
		return fmt.Errorf("setting default address %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing default tx: %w", err)
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var a address.Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.Recipient, &a.Line1, &a.Line2, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.Phone, &a.IsDefault,
	)
	return a, err
}
