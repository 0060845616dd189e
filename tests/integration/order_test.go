//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func shipTo() *addressRequest {
	return &addressRequest{Recipient: "Test Customer", Line1: "1 Main St", City: "Springfield"}
}

func getStock(t *testing.T, productID string) int {
	t.Helper()
	resp := doGet(t, "/api/products/"+productID)
	defer resp.Body.Close()
	mustStatus(t, resp, http.StatusOK)
	return decodeJSON[productResponse](t, resp).Stock
}

func TestPlaceOrder_EndToEnd(t *testing.T) {
	before := getStock(t, "tiramisu")

	// Add to cart first so the placement also proves cart clearing.
	resp := doReq(t, http.MethodPost, "/api/cart", customerKey, map[string]any{
		"productId": "tiramisu", "qty": 2,
	})
	mustStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = doReq(t, http.MethodPost, "/api/orders", customerKey, orderRequest{
		Items:         []orderItemRequest{{ProductID: "tiramisu", Qty: 2}},
		Address:       shipTo(),
		PaymentMethod: "card",
	})
	defer resp.Body.Close()
	mustStatus(t, resp, http.StatusCreated)

	o := decodeJSON[orderResponse](t, resp)
	if o.Status != "pending" {
		t.Fatalf("expected pending order, got %q", o.Status)
	}
	// Seeded price 5.50 x 2.
	if o.Subtotal != "11" {
		t.Fatalf("expected subtotal 11, got %q", o.Subtotal)
	}

	// Stock is decremented.
	if after := getStock(t, "tiramisu"); after != before-2 {
		t.Fatalf("expected stock %d, got %d", before-2, after)
	}

	// Cart is cleared.
	cartResp := doReq(t, http.MethodGet, "/api/cart", customerKey, nil)
	defer cartResp.Body.Close()
	mustStatus(t, cartResp, http.StatusOK)
	if c := decodeJSON[cartResponse](t, cartResp); c.ItemCount != 0 {
		t.Fatalf("expected empty cart after order, got %d items", c.ItemCount)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/orders", customerKey, orderRequest{
		Items:         []orderItemRequest{{ProductID: "creme-brulee", Qty: 100000}},
		Address:       shipTo(),
		PaymentMethod: "card",
	})
	defer resp.Body.Close()

	mustStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestPlaceOrder_CouponApplied(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/orders", customerKey, orderRequest{
		Items:         []orderItemRequest{{ProductID: "macaron-mix", Qty: 1}},
		Address:       shipTo(),
		PaymentMethod: "card",
		CouponCode:    "WELCOME10",
	})
	defer resp.Body.Close()

	mustStatus(t, resp, http.StatusCreated)
	o := decodeJSON[orderResponse](t, resp)
	// Seeded price 8.00, 10% off.
	if o.Discount != "0.8" {
		t.Fatalf("expected discount 0.8, got %q", o.Discount)
	}
}

func TestPlaceOrder_UnknownCoupon(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/orders", customerKey, orderRequest{
		Items:         []orderItemRequest{{ProductID: "macaron-mix", Qty: 1}},
		Address:       shipTo(),
		PaymentMethod: "card",
		CouponCode:    "TOTALLYFAKE",
	})
	defer resp.Body.Close()

	mustStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestPlaceOrder_Unauthenticated(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/orders", "", orderRequest{
		Items:         []orderItemRequest{{ProductID: "macaron-mix", Qty: 1}},
		Address:       shipTo(),
		PaymentMethod: "card",
	})
	defer resp.Body.Close()

	mustStatus(t, resp, http.StatusUnauthorized)
}

func TestCancelOrder_Restocks(t *testing.T) {
	before := getStock(t, "waffle-berries")

	resp := doReq(t, http.MethodPost, "/api/orders", customerKey, orderRequest{
		Items:         []orderItemRequest{{ProductID: "waffle-berries", Qty: 3}},
		Address:       shipTo(),
		PaymentMethod: "card",
	})
	mustStatus(t, resp, http.StatusCreated)
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if after := getStock(t, "waffle-berries"); after != before-3 {
		t.Fatalf("expected stock %d after order, got %d", before-3, after)
	}

	cancelResp := doReq(t, http.MethodPut, "/api/orders/"+o.ID+"/cancel", customerKey, nil)
	defer cancelResp.Body.Close()
	mustStatus(t, cancelResp, http.StatusOK)
	if cancelled := decodeJSON[orderResponse](t, cancelResp); cancelled.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %q", cancelled.Status)
	}

	if after := getStock(t, "waffle-berries"); after != before {
		t.Fatalf("expected stock restored to %d, got %d", before, after)
	}
}

func TestOrderStatus_AdminFlow(t *testing.T) {
	resp := doReq(t, http.MethodPost, "/api/orders", customerKey, orderRequest{
		Items:         []orderItemRequest{{ProductID: "baklava", Qty: 1}},
		Address:       shipTo(),
		PaymentMethod: "card",
	})
	mustStatus(t, resp, http.StatusCreated)
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	// Customers cannot change status.
	forbidden := doReq(t, http.MethodPut, "/api/orders/"+o.ID+"/status", customerKey, map[string]string{"status": "processing"})
	mustStatus(t, forbidden, http.StatusForbidden)
	forbidden.Body.Close()

	// Admin advances pending -> processing -> shipped.
	for _, status := range []string{"processing", "shipped"} {
		r := doReq(t, http.MethodPut, "/api/orders/"+o.ID+"/status", adminKey, map[string]string{"status": status})
		mustStatus(t, r, http.StatusOK)
		r.Body.Close()
	}

	// Shipped orders cannot be cancelled.
	cancelResp := doReq(t, http.MethodPut, "/api/orders/"+o.ID+"/cancel", customerKey, nil)
	defer cancelResp.Body.Close()
	mustStatus(t, cancelResp, http.StatusConflict)
}
