package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InsufficientStockError indicates a requested quantity exceeds the product's
// available stock.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	Stock         int
	SellerID      string
	Category      string
	Image         Image
}

// Image holds responsive image URLs for a product.
type Image struct {
	Thumbnail string
	Mobile    string
	Tablet    string
	Desktop   string
}

// Repository defines read operations for the product catalog. Stock mutations
// happen only inside order placement and cancellation transactions, which the
// order repository owns.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
