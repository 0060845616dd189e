package handler

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/product"
)

// productResponse is the JSON shape of a catalog product.
type productResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice,omitempty"`
	Stock         int             `json:"stock"`
	Category      string          `json:"category,omitempty"`
	Image         imageResponse   `json:"image"`
}

type imageResponse struct {
	Thumbnail string `json:"thumbnail,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
	Tablet    string `json:"tablet,omitempty"`
	Desktop   string `json:"desktop,omitempty"`
}

// toProductResponse converts a domain product, prefixing image paths with the
// configured image base URL.
func (h *Handler) toProductResponse(p product.Product) productResponse {
	base := h.imageBaseURL
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Stock:         p.Stock,
		Category:      p.Category,
		Image: imageResponse{
			Thumbnail: joinImageURL(base, p.Image.Thumbnail),
			Mobile:    joinImageURL(base, p.Image.Mobile),
			Tablet:    joinImageURL(base, p.Image.Tablet),
			Desktop:   joinImageURL(base, p.Image.Desktop),
		},
	}
}

// joinImageURL prefixes relative paths with base; absolute URLs and empty
// paths pass through unchanged.
func joinImageURL(base, path string) string {
	if path == "" || base == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return base + path
}

// ListProducts returns the full catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, out)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toProductResponse(*p))
}
