package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/product"
)

const (
	orderColumns = `id, user_id, subtotal, shipping, tax, discount, total, status,
		payment_method, coupon_code,
		ship_recipient, ship_line1, ship_line2, ship_city, ship_state,
		ship_postal, ship_country, ship_phone, created_at`

	insertOrderSQL = `INSERT INTO orders
		(id, user_id, subtotal, shipping, tax, discount, total, status,
		 payment_method, coupon_code,
		 ship_recipient, ship_line1, ship_line2, ship_city, ship_state,
		 ship_postal, ship_country, ship_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at`

	insertOrderItemSQL = `INSERT INTO order_items
		(id, order_id, product_id, qty, price, name, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	// Conditional decrement: zero rows affected means the stock cannot cover
	// the requested quantity, not that the product is missing.
	decrementStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	selectStockSQL = `SELECT stock FROM products WHERE id = $1`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	listOrderItemsSQL = `SELECT product_id, qty, price, name, image
		FROM order_items WHERE order_id = $1 ORDER BY id`

	listOrderItemsBatchSQL = `SELECT order_id, product_id, qty, price, name, image
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`

	transitionStatusSQL = `UPDATE orders SET status = $2
		WHERE id = $1 AND status = ANY($3)`

	selectStatusSQL = `SELECT status FROM orders WHERE id = $1`

	restockOrderSQL = `UPDATE products p SET stock = p.stock + oi.qty
		FROM order_items oi
		WHERE oi.order_id = $1 AND p.id = oi.product_id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Placement
// and cancellation run as transactions so stock, coupon usage, and the
// buyer's cart always agree with the order rows.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, decrements stock per item, redeems the coupon if
// present, and clears the buyer's cart in a single transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	row := tx.QueryRow(ctx, insertOrderSQL,
		o.ID, o.UserID, o.Subtotal, o.Shipping, o.Tax, o.Discount, o.Total, o.Status,
		o.PaymentMethod, o.CouponCode,
		o.ShipTo.Recipient, o.ShipTo.Line1, o.ShipTo.Line2, o.ShipTo.City, o.ShipTo.State,
		o.ShipTo.PostalCode, o.ShipTo.Country, o.ShipTo.Phone,
	)
	if err := row.Scan(&o.CreatedAt); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, insertOrderItemSQL,
			uuid.New().String(), o.ID, it.ProductID, it.Qty, it.Price, it.Name, it.Image,
		); err != nil {
			return fmt.Errorf("inserting order item %q: %w", it.ProductID, err)
		}

		tag, err := tx.Exec(ctx, decrementStockSQL, it.ProductID, it.Qty)
		if err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", it.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return stockShortfall(ctx, tx, it.ProductID, it.Qty)
		}
	}

	if o.CouponCode != "" {
		if err := redeemCoupon(ctx, tx, o.CouponCode); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, clearCartSQL, o.UserID); err != nil {
		return fmt.Errorf("clearing cart after order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order tx: %w", err)
	}
	return nil
}

// stockShortfall reads the current stock so the error can say what was
// available when the decrement was refused.
func stockShortfall(ctx context.Context, q querier, productID string, requested int) error {
	rows, err := q.Query(ctx, selectStockSQL, productID)
	if err != nil {
		return fmt.Errorf("checking stock for %q: %w", productID, err)
	}
	available, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &order.ProductNotFoundError{ProductID: productID}
		}
		return fmt.Errorf("checking stock for %q: %w", productID, err)
	}
	return &product.InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

// GetByID returns an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first, each with its items.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = &orders[i]
	}

	itemRows, err := r.pool.Query(ctx, listOrderItemsBatchSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var it order.Item
		if err := itemRows.Scan(&orderID, &it.ProductID, &it.Qty, &it.Price, &it.Name, &it.Image); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		if o := index[orderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	return orders, nil
}

// TransitionStatus moves the order to a new status only when its current
// status is one of the allowed origins. On a refused update it re-reads the
// order to distinguish a missing order from an illegal transition.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, to order.Status, from []order.Status) error {
	origins := make([]string, len(from))
	for i, s := range from {
		origins[i] = string(s)
	}

	tag, err := r.pool.Exec(ctx, transitionStatusSQL, id, to, origins)
	if err != nil {
		return fmt.Errorf("transitioning order %q: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return transitionRefused(ctx, r.pool, id, to)
}

// Cancel marks the order cancelled and, when restock is set, returns its item
// quantities to product stock in the same transaction.
func (r *OrderRepository) Cancel(ctx context.Context, id string, restock bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning cancel tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	origins := []string{string(order.StatusPending), string(order.StatusProcessing)}
	tag, err := tx.Exec(ctx, transitionStatusSQL, id, order.StatusCancelled, origins)
	if err != nil {
		return fmt.Errorf("cancelling order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return transitionRefused(ctx, tx, id, order.StatusCancelled)
	}

	if restock {
		if _, err := tx.Exec(ctx, restockOrderSQL, id); err != nil {
			return fmt.Errorf("restocking order %q: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing cancel tx: %w", err)
	}
	return nil
}

func transitionRefused(ctx context.Context, q querier, id string, to order.Status) error {
	rows, err := q.Query(ctx, selectStatusSQL, id)
	if err != nil {
		return fmt.Errorf("reading status of order %q: %w", id, err)
	}
	current, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[order.Status])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return fmt.Errorf("reading status of order %q: %w", id, err)
	}
	return &order.InvalidTransitionError{From: current, To: to}
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Subtotal, &o.Shipping, &o.Tax, &o.Discount, &o.Total, &o.Status,
		&o.PaymentMethod, &o.CouponCode,
		&o.ShipTo.Recipient, &o.ShipTo.Line1, &o.ShipTo.Line2, &o.ShipTo.City, &o.ShipTo.State,
		&o.ShipTo.PostalCode, &o.ShipTo.Country, &o.ShipTo.Phone, &o.CreatedAt,
	)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ProductID, &it.Qty, &it.Price, &it.Name, &it.Image)
	return it, err
}
