package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/fjod/cart-engine/internal/pricing"
	"github.com/go-chi/chi/v5"
)

const maxQuantity = 99

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartLineDTO struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
	Subtotal  string  `json:"subtotal"`
	InStock   bool    `json:"in_stock"`
}

type CartResponseDTO struct {
	Owner         string            `json:"owner"`
	Authenticated bool              `json:"authenticated"`
	Lines         []CartLineDTO     `json:"lines"`
	ItemCount     int               `json:"item_count"`
	Totals        pricing.Presented `json:"totals"`
}

// GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := h.cartResponse()
	h.mu.Unlock()

	respondJSON(w, http.StatusOK, resp)
}

// POST /cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.FetchProduct(ctx, req.ProductID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.mu.Lock()
	err = h.cart.AddItem(ctx, product, req.Quantity)
	resp := h.cartResponse()
	h.mu.Unlock()

	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// PUT /cart/items/{productID}
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "productID")
	var req UpdateQuantityRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	h.mu.Lock()
	if _, ok := h.cart.Line(productID); !ok && req.Quantity > 0 {
		h.mu.Unlock()
		respondError(w, http.StatusNotFound, "line_not_found", "product is not in the cart")
		return
	}
	err := h.cart.SetQuantity(ctx, productID, req.Quantity)
	resp := h.cartResponse()
	h.mu.Unlock()

	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// DELETE /cart/items/{productID}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.mu.Lock()
	err := h.cart.RemoveItem(ctx, chi.URLParam(r, "productID"))
	resp := h.cartResponse()
	h.mu.Unlock()

	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// DELETE /cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.mu.Lock()
	err := h.cart.Clear(ctx)
	resp := h.cartResponse()
	h.mu.Unlock()

	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /cart/totals
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := h.cartResponse()
	h.mu.Unlock()

	respondJSON(w, http.StatusOK, resp.Totals)
}

// POST /cart/refresh
func (h *Handler) RefreshCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.mu.Lock()
	err := h.cart.RefreshSnapshots(ctx, h.catalog)
	resp := h.cartResponse()
	h.mu.Unlock()

	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// cartResponse must be called with mu held.
func (h *Handler) cartResponse() CartResponseDTO {
	snapshot := h.cart.Snapshot()
	authenticated := !snapshot.OwnerKey.IsGuest()

	lines := make([]CartLineDTO, 0, len(snapshot.Lines))
	for _, l := range snapshot.Lines {
		lines = append(lines, CartLineDTO{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Stock:     l.Product.Stock,
			Quantity:  l.Quantity,
			Subtotal:  pricing.FormatAmount(l.Subtotal()),
			InStock:   l.Quantity <= l.Product.Stock,
		})
	}

	return CartResponseDTO{
		Owner:         snapshot.OwnerKey.String(),
		Authenticated: authenticated,
		Lines:         lines,
		ItemCount:     h.cart.TotalItems(),
		Totals:        pricing.Present(pricing.ComputeTotals(snapshot.Lines, authenticated, h.rates)),
	}
}
