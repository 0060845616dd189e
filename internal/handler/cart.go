package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/cart"
)

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type updateCartLineRequest struct {
	Qty int `json:"qty"`
}

type cartLineResponse struct {
	ID      string          `json:"id"`
	Qty     int             `json:"qty"`
	Product productResponse `json:"product"`
}

type cartResponse struct {
	Lines     []cartLineResponse `json:"lines"`
	ItemCount int                `json:"itemCount"`
	Total     decimal.Decimal    `json:"total"`
}

func (h *Handler) toCartLineResponse(l cart.DetailedLine) cartLineResponse {
	return cartLineResponse{
		ID:      l.Line.ID,
		Qty:     l.Line.Qty,
		Product: h.toProductResponse(l.Product),
	}
}

// AddToCart adds qty units of a product to the caller's cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addToCartRequest
	if !decodeBody(w, r, &req) {
		return
	}

	line, err := h.carts.Add(r.Context(), u.ID, req.ProductID, req.Qty)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.toCartLineResponse(*line))
}

// GetCart returns the caller's cart with item count and total.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	sum, err := h.carts.Summary(r.Context(), u.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := cartResponse{
		Lines:     make([]cartLineResponse, len(sum.Lines)),
		ItemCount: sum.ItemCount,
		Total:     sum.Total,
	}
	for i, l := range sum.Lines {
		resp.Lines[i] = h.toCartLineResponse(l)
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateCartLine replaces the quantity of a cart line.
func (h *Handler) UpdateCartLine(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req updateCartLineRequest
	if !decodeBody(w, r, &req) {
		return
	}

	line, err := h.carts.UpdateQty(r.Context(), u.ID, r.PathValue("lineId"), req.Qty)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toCartLineResponse(*line))
}

// RemoveCartLine deletes a cart line. Removing an absent line succeeds.
func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.carts.Remove(r.Context(), u.ID, r.PathValue("lineId")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCart empties the caller's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.carts.Clear(r.Context(), u.ID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
