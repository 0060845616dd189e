//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	mustStatus(t, resp, http.StatusOK)
	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 5 {
		t.Fatalf("expected 5 products, got %d", len(products))
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/baklava")
	defer resp.Body.Close()

	mustStatus(t, resp, http.StatusOK)
	p := decodeJSON[productResponse](t, resp)
	if p.Name != "Pistachio Baklava" {
		t.Fatalf("unexpected product name %q", p.Name)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/does-not-exist")
	defer resp.Body.Close()

	mustStatus(t, resp, http.StatusNotFound)
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusNotFound {
		t.Fatalf("expected error code 404, got %d", body.Code)
	}
}
