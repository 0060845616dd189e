package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/cart"
)

const (
	upsertCartLineSQL = `INSERT INTO cart_lines (id, user_id, product_id, qty)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET qty = cart_lines.qty + EXCLUDED.qty, updated_at = now()
		RETURNING id, user_id, product_id, qty`

	listCartLinesSQL = `SELECT id, user_id, product_id, qty
		FROM cart_lines WHERE user_id = $1 ORDER BY created_at`

	getCartLineSQL = `SELECT id, user_id, product_id, qty
		FROM cart_lines WHERE id = $1 AND user_id = $2`

	updateCartQtySQL = `UPDATE cart_lines SET qty = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, product_id, qty`

	deleteCartLineSQL = `DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`

	clearCartSQL = `DELETE FROM cart_lines WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Upsert inserts a new cart line or adds qty to the existing line for the
// same (user, product) pair in a single statement, so concurrent adds from
// the same user cannot lose increments.
func (r *CartRepository) Upsert(ctx context.Context, userID, productID string, qty int) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, upsertCartLineSQL, uuid.New().String(), userID, productID, qty)
	if err != nil {
		return nil, fmt.Errorf("upserting cart line: %w", err)
	}

	line, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		return nil, fmt.Errorf("upserting cart line: %w", err)
	}
	return &line, nil
}

// ListByUser returns all cart lines for a user, oldest first.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// GetLine returns a single cart line owned by the user.
func (r *CartRepository) GetLine(ctx context.Context, userID, lineID string) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, getCartLineSQL, lineID, userID)
	if err != nil {
		return nil, fmt.Errorf("getting cart line %q: %w", lineID, err)
	}

	line, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, fmt.Errorf("getting cart line %q: %w", lineID, err)
	}
	return &line, nil
}

// UpdateQty replaces the quantity of a cart line owned by the user.
func (r *CartRepository) UpdateQty(ctx context.Context, userID, lineID string, qty int) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, updateCartQtySQL, lineID, userID, qty)
	if err != nil {
		return nil, fmt.Errorf("updating cart line %q: %w", lineID, err)
	}

	line, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, fmt.Errorf("updating cart line %q: %w", lineID, err)
	}
	return &line, nil
}

// Delete removes a cart line owned by the user. Deleting an absent line
// returns cart.ErrLineNotFound; the service layer treats that as a no-op.
func (r *CartRepository) Delete(ctx context.Context, userID, lineID string) error {
	tag, err := r.pool.Exec(ctx, deleteCartLineSQL, lineID, userID)
	if err != nil {
		return fmt.Errorf("deleting cart line %q: %w", lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// Clear removes every cart line for a user. Clearing an empty cart succeeds.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Qty)
	return l, err
}
