package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/address"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// allowedFrom maps each target status to the statuses it may be reached from.
// Delivered and cancelled are terminal.
var allowedFrom = map[Status][]Status{
	StatusProcessing: {StatusPending},
	StatusShipped:    {StatusProcessing},
	StatusDelivered:  {StatusShipped},
	StatusCancelled:  {StatusPending, StatusProcessing},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// AllowedFrom returns the statuses from which `to` is reachable. The result
// must not be mutated.
func AllowedFrom(to Status) []Status {
	return allowedFrom[to]
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range allowedFrom[to] {
		if s == from {
			return true
		}
	}
	return false
}

// Sentinel errors for order validation and lookup.
var (
	ErrNotFound   = errors.New("order not found")
	ErrEmptyItems = errors.New("items required")
	ErrNoAddress  = errors.New("shipping address required")
	ErrNoPayment  = errors.New("payment method required")

	// ErrUnreachableStatus is returned when a requested status, such as
	// pending, cannot be entered by any transition.
	ErrUnreachableStatus = errors.New("status cannot be reached by a transition")
)

// ProductNotFoundError indicates a referenced product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidTransitionError indicates an illegal order-status change.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Item is a line item inside an order. Price, name, and image are snapshots
// taken from the product at order-creation time; later catalog changes never
// alter them.
type Item struct {
	ProductID string
	Qty       int
	Price     decimal.Decimal
	Name      string
	Image     string
}

// Order is a persisted customer order. Money fields are fixed at creation;
// only Status changes afterwards.
type Order struct {
	ID            string
	UserID        string
	Items         []Item
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	Status        Status
	PaymentMethod string
	CouponCode    string
	ShipTo        address.Address
	CreatedAt     time.Time
}

// Repository defines persistence for orders.
//
// Create is the atomic unit of order placement: it must persist the order
// header and every item, decrement each product's stock with a conditional
// update (failing with product.InsufficientStockError when any line cannot be
// covered), redeem the coupon when CouponCode is set (failing with
// coupon.ErrUsageLimitReached when exhausted), and clear the user's cart,
// all committing or rolling back together.
//
// TransitionStatus applies the status change only when the current status is
// in allowedFrom, as a single conditional update; it returns
// *InvalidTransitionError when the precondition fails, so concurrent
// transitions resolve deterministically.
//
// Cancel flips an order to cancelled from pending or processing and, when
// restock is true, returns each item's quantity to product stock in the same
// transaction.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	TransitionStatus(ctx context.Context, id string, to Status, from []Status) error
	Cancel(ctx context.Context, id string, restock bool) error
}
