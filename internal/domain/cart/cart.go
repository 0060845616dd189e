package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/product"
)

// ErrLineNotFound is returned when a cart line does not exist or belongs to a
// different user.
var ErrLineNotFound = errors.New("cart line not found")

// Line is a (product, quantity) pairing in a user's cart.
type Line struct {
	ID        string
	UserID    string
	ProductID string
	Qty       int
}

// DetailedLine is a cart line with the current product attached for display.
// Prices here are live catalog prices; snapshots happen only at order time.
type DetailedLine struct {
	Line
	Product product.Product
}

// Summary aggregates a user's cart for display and coupon validation.
type Summary struct {
	Lines     []DetailedLine
	ItemCount int
	Total     decimal.Decimal
}

// Repository provides cart line persistence. Upsert inserts a new line or
// adds qty to an existing (user, product) line in a single statement, and
// returns the resulting line.
type Repository interface {
	Upsert(ctx context.Context, userID, productID string, qty int) (*Line, error)
	ListByUser(ctx context.Context, userID string) ([]Line, error)
	GetLine(ctx context.Context, userID, lineID string) (*Line, error)
	UpdateQty(ctx context.Context, userID, lineID string, qty int) (*Line, error)
	Delete(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}
