package address

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when an address does not exist or is not owned by
// the caller.
var ErrNotFound = errors.New("address not found")

// FieldError reports a required address field that is missing.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return e.Field + " is required"
}

// Address is a saved shipping destination belonging to a user. At most one
// address per user is marked as the default.
type Address struct {
	ID         string
	UserID     string
	Recipient  string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	IsDefault  bool
}

// Validate checks the fields required for shipping.
func (a *Address) Validate() error {
	switch {
	case a.Recipient == "":
		return &FieldError{Field: "recipient"}
	case a.Line1 == "":
		return &FieldError{Field: "address line"}
	case a.City == "":
		return &FieldError{Field: "city"}
	}
	return nil
}

// Repository provides address persistence. SetDefault must atomically unset
// the previous default and set the new one, keeping the one-default invariant
// under concurrent calls.
type Repository interface {
	Create(ctx context.Context, a *Address) error
	ListByUser(ctx context.Context, userID string) ([]Address, error)
	GetByID(ctx context.Context, userID, id string) (*Address, error)
	SetDefault(ctx context.Context, userID, id string) error
}
