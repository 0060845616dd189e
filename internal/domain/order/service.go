package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/address"
	"github.com/xenking/storefront-api/internal/domain/coupon"
	"github.com/xenking/storefront-api/internal/domain/product"
)

// Pricing is the server-side shipping and tax policy. Client-supplied
// subtotal, shipping, and tax values are never trusted.
type Pricing struct {
	// ShippingFlat is charged per order unless the subtotal reaches
	// FreeShippingOver.
	ShippingFlat decimal.Decimal
	// FreeShippingOver waives shipping at or above this subtotal. Zero
	// disables free shipping.
	FreeShippingOver decimal.Decimal
	// TaxRate is a fraction applied to the subtotal, e.g. 0.08 for 8%.
	TaxRate decimal.Decimal
}

// Shipping returns the shipping charge for a subtotal.
func (p Pricing) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeShippingOver.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingOver) {
		return decimal.Zero
	}
	return p.ShippingFlat
}

// Tax returns the tax charge for a subtotal, rounded to 2 decimal places.
func (p Pricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate).Round(2)
}

// Notifier receives order lifecycle events. Implementations must not block:
// a slow or failing notifier can never delay or fail order placement.
type Notifier interface {
	OrderPlaced(o *Order, email string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) OrderPlaced(*Order, string) {}

// LineInput is one requested order line. Any client-supplied price
// accompanying it has already been dropped at the HTTP boundary.
type LineInput struct {
	ProductID string
	Qty       int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID        string
	CustomerEmail string
	Items         []LineInput
	// AddressID references a saved address owned by the user. When empty,
	// Address must carry an inline shipping address.
	AddressID     string
	Address       *address.Address
	PaymentMethod string
	CouponCode    string
}

// Service encapsulates the order workflow: placement, status transitions, and
// cancellation.
type Service struct {
	products  product.Repository
	coupons   coupon.Validator
	orders    Repository
	addresses address.Repository
	notifier  Notifier

	pricing         Pricing
	restockOnCancel bool
}

// NewService creates an order Service. Pass a NopNotifier when confirmation
// emails are disabled.
func NewService(
	products product.Repository,
	coupons coupon.Validator,
	orders Repository,
	addresses address.Repository,
	notifier Notifier,
	pricing Pricing,
	restockOnCancel bool,
) *Service {
	return &Service{
		products:        products,
		coupons:         coupons,
		orders:          orders,
		addresses:       addresses,
		notifier:        notifier,
		pricing:         pricing,
		restockOnCancel: restockOnCancel,
	}
}

// PlaceOrder validates the request, prices every line from the live catalog,
// applies the coupon, and persists the order atomically with its items, the
// stock decrements, the coupon redemption, and the cart clearing. The
// confirmation notification is fired after the commit and never affects the
// result.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if req.PaymentMethod == "" {
		return nil, ErrNoPayment
	}

	shipTo, err := s.resolveAddress(ctx, req)
	if err != nil {
		return nil, err
	}

	// Validate quantities and collect product IDs.
	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Qty <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	// Batch fetch all products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	// Snapshot price, name, and image per line; re-check stock early. The
	// conditional decrement inside Create is the authoritative stock check.
	items := make([]Item, len(req.Items))
	subtotal := decimal.Zero
	for i, line := range req.Items {
		p, ok := productMap[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		if line.Qty > p.Stock {
			return nil, &product.InsufficientStockError{
				ProductID: p.ID,
				Requested: line.Qty,
				Available: p.Stock,
			}
		}
		items[i] = Item{
			ProductID: p.ID,
			Qty:       line.Qty,
			Price:     p.Price,
			Name:      p.Name,
			Image:     p.Image.Thumbnail,
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	subtotal = subtotal.Round(2)

	discount := decimal.Zero
	if req.CouponCode != "" {
		d, err := s.coupons.Validate(ctx, req.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = d.Amount
	}

	shipping := s.pricing.Shipping(subtotal)
	tax := s.pricing.Tax(subtotal)

	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	total = total.Round(2)

	o := &Order{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		Items:         items,
		Subtotal:      subtotal,
		Shipping:      shipping,
		Tax:           tax,
		Discount:      discount,
		Total:         total,
		Status:        StatusPending,
		PaymentMethod: req.PaymentMethod,
		CouponCode:    req.CouponCode,
		ShipTo:        *shipTo,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.notifier.OrderPlaced(o, req.CustomerEmail)

	return o, nil
}

// resolveAddress returns the shipping snapshot from either the referenced
// saved address (which must belong to the caller) or the inline address.
func (s *Service) resolveAddress(ctx context.Context, req PlaceOrderRequest) (*address.Address, error) {
	if req.AddressID != "" {
		a, err := s.addresses.GetByID(ctx, req.UserID, req.AddressID)
		if err != nil {
			if errors.Is(err, address.ErrNotFound) {
				return nil, ErrNoAddress
			}
			return nil, errors.Wrap(err, "resolve address")
		}
		return a, nil
	}
	if req.Address == nil {
		return nil, ErrNoAddress
	}
	if err := req.Address.Validate(); err != nil {
		return nil, err
	}
	return req.Address, nil
}

// Get returns an order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListByUser returns a user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// UpdateStatus applies a privileged status change, enforcing the state
// machine. The repository performs the change as a conditional update, so a
// concurrent conflicting transition loses with InvalidTransitionError instead
// of corrupting state.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) error {
	if !to.Valid() {
		return errors.Errorf("unknown order status: %q", to)
	}
	from := AllowedFrom(to)
	if len(from) == 0 {
		return errors.Wrapf(ErrUnreachableStatus, "status %q", to)
	}
	return s.orders.TransitionStatus(ctx, id, to, from)
}

// Cancel cancels an order on behalf of its owner. Only pending and processing
// orders may be cancelled; whether cancelled items return to stock is a
// configured policy.
func (s *Service) Cancel(ctx context.Context, userID, id string) error {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o.UserID != userID {
		// Do not leak existence of other users' orders.
		return ErrNotFound
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return &InvalidTransitionError{From: o.Status, To: StatusCancelled}
	}
	return s.orders.Cancel(ctx, id, s.restockOnCancel)
}
