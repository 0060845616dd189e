package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/address"
	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/user"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type placeOrderRequest struct {
	Items         []orderItemRequest `json:"items"`
	AddressID     string             `json:"addressId"`
	Address       *addressRequest    `json:"address"`
	PaymentMethod string             `json:"paymentMethod"`
	CouponCode    string             `json:"couponCode"`
}

type orderItemResponse struct {
	ProductID string          `json:"productId"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	Items         []orderItemResponse `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Shipping      decimal.Decimal     `json:"shipping"`
	Tax           decimal.Decimal     `json:"tax"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	Status        order.Status        `json:"status"`
	PaymentMethod string              `json:"paymentMethod"`
	CouponCode    string              `json:"couponCode,omitempty"`
	ShipTo        addressResponse     `json:"shipTo"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Qty:       it.Qty,
			Price:     it.Price,
			Name:      it.Name,
			Image:     it.Image,
		}
	}
	return orderResponse{
		ID:            o.ID,
		Items:         items,
		Subtotal:      o.Subtotal,
		Shipping:      o.Shipping,
		Tax:           o.Tax,
		Discount:      o.Discount,
		Total:         o.Total,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		CouponCode:    o.CouponCode,
		ShipTo:        toAddressResponse(o.ShipTo),
		CreatedAt:     o.CreatedAt,
	}
}

// PlaceOrder creates an order from the caller's requested items. All prices
// come from the live catalog; any amounts in the request body are ignored.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items := make([]order.LineInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.LineInput{ProductID: it.ProductID, Qty: it.Qty}
	}

	var inline *address.Address
	if req.Address != nil {
		a := req.Address.toDomain(u.ID)
		inline = &a
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID:        u.ID,
		CustomerEmail: u.Email,
		Items:         items,
		AddressID:     req.AddressID,
		Address:       inline,
		PaymentMethod: req.PaymentMethod,
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListOrders returns the caller's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), u.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// GetOrder returns a single order. Only the owner or an admin may see it; a
// non-owner gets 404 rather than confirmation that the order exists.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if o.UserID != u.ID && !u.Role.Satisfies(user.RoleAdmin) {
		respondDomainError(w, r, order.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

type validateCouponRequest struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

type validateCouponResponse struct {
	Discount decimal.Decimal `json:"discount"`
	NewTotal decimal.Decimal `json:"newTotal"`
}

// ValidateCoupon previews a coupon's discount against an amount without
// consuming a use.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req validateCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "coupon code is required")
		return
	}

	d, err := h.coupons.Validate(r.Context(), req.Code, req.Amount)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, validateCouponResponse{
		Discount: d.Amount,
		NewTotal: d.Final,
	})
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
}

// UpdateOrderStatus applies an admin status transition.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}
	if _, err := h.guard.Require(r.Context(), u.ID, user.RoleAdmin); err != nil {
		respondDomainError(w, r, err)
		return
	}

	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		respondError(w, http.StatusBadRequest, "unknown order status")
		return
	}

	id := r.PathValue("id")
	if err := h.orders.UpdateStatus(r.Context(), id, req.Status); err != nil {
		respondDomainError(w, r, err)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

// CancelOrder cancels the caller's own pending or processing order.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.orders.Cancel(r.Context(), u.ID, id); err != nil {
		respondDomainError(w, r, err)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}
