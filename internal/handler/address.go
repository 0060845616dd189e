package handler

import (
	"net/http"

	"github.com/xenking/storefront-api/internal/domain/address"
)

type addressRequest struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"isDefault"`
}

func (a *addressRequest) toDomain(userID string) address.Address {
	return address.Address{
		UserID:     userID,
		Recipient:  a.Recipient,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
	}
}

type addressResponse struct {
	ID         string `json:"id,omitempty"`
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
	IsDefault  bool   `json:"isDefault"`
}

func toAddressResponse(a address.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		Recipient:  a.Recipient,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
	}
}

// CreateAddress saves a new shipping address for the caller.
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if !decodeBody(w, r, &req) {
		return
	}

	a := req.toDomain(u.ID)
	if err := a.Validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}

	if err := h.addresses.Create(r.Context(), &a); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAddressResponse(a))
}

// ListAddresses returns the caller's saved addresses, default first.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	addrs, err := h.addresses.ListByUser(r.Context(), u.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]addressResponse, len(addrs))
	for i, a := range addrs {
		out[i] = toAddressResponse(a)
	}
	respondJSON(w, http.StatusOK, out)
}

// SetDefaultAddress makes the given address the caller's default.
func (h *Handler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	u, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.addresses.SetDefault(r.Context(), u.ID, r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}

	addrs, err := h.addresses.ListByUser(r.Context(), u.ID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]addressResponse, len(addrs))
	for i, a := range addrs {
		out[i] = toAddressResponse(a)
	}
	respondJSON(w, http.StatusOK, out)
}
