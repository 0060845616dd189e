package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/product"
)

// ErrInvalidQty is returned when a requested quantity is not a positive integer.
var ErrInvalidQty = errors.New("quantity must be greater than 0")

// Service implements the stock-aware cart operations. Stock checks here are
// advisory (they catch obvious oversell early); the authoritative check is the
// conditional stock decrement inside the order placement transaction.
type Service struct {
	lines    Repository
	products product.Repository
}

// NewService creates a cart Service with the required dependencies.
func NewService(lines Repository, products product.Repository) *Service {
	return &Service{lines: lines, products: products}
}

// Add puts qty units of a product into the user's cart, incrementing an
// existing line for the same product. The combined quantity must not exceed
// the product's current stock.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int) (*DetailedLine, error) {
	if qty <= 0 {
		return nil, ErrInvalidQty
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	lines, err := s.lines.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}
	existing := 0
	for _, l := range lines {
		if l.ProductID == productID {
			existing = l.Qty
			break
		}
	}
	if existing+qty > p.Stock {
		return nil, &product.InsufficientStockError{
			ProductID: productID,
			Requested: existing + qty,
			Available: p.Stock,
		}
	}

	line, err := s.lines.Upsert(ctx, userID, productID, qty)
	if err != nil {
		return nil, errors.Wrap(err, "upsert cart line")
	}

	return &DetailedLine{Line: *line, Product: *p}, nil
}

// UpdateQty replaces the quantity of an existing cart line owned by the user.
func (s *Service) UpdateQty(ctx context.Context, userID, lineID string, qty int) (*DetailedLine, error) {
	if qty <= 0 {
		return nil, ErrInvalidQty
	}

	line, err := s.lines.GetLine(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if qty > p.Stock {
		return nil, &product.InsufficientStockError{
			ProductID: line.ProductID,
			Requested: qty,
			Available: p.Stock,
		}
	}

	updated, err := s.lines.UpdateQty(ctx, userID, lineID, qty)
	if err != nil {
		return nil, errors.Wrap(err, "update cart line")
	}

	return &DetailedLine{Line: *updated, Product: *p}, nil
}

// Remove deletes a cart line. Removing a line that is already gone is a no-op.
func (s *Service) Remove(ctx context.Context, userID, lineID string) error {
	err := s.lines.Delete(ctx, userID, lineID)
	if errors.Is(err, ErrLineNotFound) {
		return nil
	}
	return err
}

// Clear removes every line from the user's cart. Clearing an empty cart is a
// no-op.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.lines.Clear(ctx, userID)
}

// Summary returns the user's cart lines with current product detail, the total
// item count, and the total price at current catalog prices.
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	lines, err := s.lines.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "fetch cart products")
	}
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	sum := &Summary{Total: decimal.Zero}
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			// Product was removed from the catalog after being carted;
			// skip it rather than failing the whole summary.
			continue
		}
		sum.Lines = append(sum.Lines, DetailedLine{Line: l, Product: p})
		sum.ItemCount += l.Qty
		sum.Total = sum.Total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Qty))))
	}

	return sum, nil
}
