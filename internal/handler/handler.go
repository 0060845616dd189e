// Package handler exposes the storefront REST surface over net/http.
package handler

import (
	"net/http"

	"github.com/xenking/storefront-api/internal/domain/address"
	"github.com/xenking/storefront-api/internal/domain/cart"
	"github.com/xenking/storefront-api/internal/domain/coupon"
	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/product"
	"github.com/xenking/storefront-api/internal/domain/user"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler serves the API routes, delegating business logic to the domain
// services and repositories.
type Handler struct {
	products  product.Repository
	carts     *cart.Service
	orders    *order.Service
	coupons   coupon.Validator
	addresses address.Repository
	guard     *user.Guard

	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	carts *cart.Service,
	orders *order.Service,
	coupons coupon.Validator,
	addresses address.Repository,
	guard *user.Guard,
) *Handler {
	return &Handler{
		products:     products,
		carts:        carts,
		orders:       orders,
		coupons:      coupons,
		addresses:    addresses,
		guard:        guard,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes registers every API route on mux. The auth middleware must already
// have resolved the caller identity into the request context; handlers that
// need it call requireUser themselves so public routes stay public.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)

	mux.HandleFunc("POST /api/cart", h.AddToCart)
	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("DELETE /api/cart/clear", h.ClearCart)
	mux.HandleFunc("PUT /api/cart/{lineId}", h.UpdateCartLine)
	mux.HandleFunc("DELETE /api/cart/{lineId}", h.RemoveCartLine)

	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("POST /api/orders/coupon/validate", h.ValidateCoupon)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.UpdateOrderStatus)
	mux.HandleFunc("PUT /api/orders/{id}/cancel", h.CancelOrder)

	mux.HandleFunc("POST /api/addresses", h.CreateAddress)
	mux.HandleFunc("GET /api/addresses", h.ListAddresses)
	mux.HandleFunc("PUT /api/addresses/{id}/default", h.SetDefaultAddress)
}
