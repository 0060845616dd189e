package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/address"
	"github.com/xenking/storefront-api/internal/domain/cart"
	"github.com/xenking/storefront-api/internal/domain/coupon"
	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/product"
	"github.com/xenking/storefront-api/internal/domain/user"
)

// errorResponse is the uniform error envelope for every non-2xx response.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps a domain error to its HTTP status. Unrecognized
// errors become opaque 500s; their detail goes to the log, not the client.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr      *product.InsufficientStockError
		qtyErr        *order.InvalidQuantityError
		prodErr       *order.ProductNotFoundError
		transitionErr *order.InvalidTransitionError
		fieldErr      *address.FieldError
	)

	switch {
	case errors.Is(err, user.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, user.ErrForbidden):
		respondError(w, http.StatusForbidden, "insufficient permissions")

	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, address.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, cart.ErrInvalidQty),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrNoAddress),
		errors.Is(err, order.ErrNoPayment):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &qtyErr), errors.As(err, &prodErr), errors.As(err, &fieldErr):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.As(err, &transitionErr),
		errors.Is(err, order.ErrUnreachableStatus):
		respondError(w, http.StatusConflict, err.Error())

	case errors.As(err, &stockErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, coupon.ErrBelowMinimum):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody parses the JSON request body into v. Unknown fields are ignored:
// clients may send prices and totals, but only the fields bound here are ever
// read.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
