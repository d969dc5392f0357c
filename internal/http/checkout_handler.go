package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/cart-engine/internal/domain"
)

type PaymentRequestDTO struct {
	Method string            `json:"method"`
	Fields map[string]string `json:"fields"`
}

type CheckoutStatusDTO struct {
	Status string `json:"status"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type CheckoutResponseDTO struct {
	Status       string               `json:"status"`
	Confirmation *domain.Confirmation `json:"confirmation,omitempty"`
}

// GET /checkout
func (h *Handler) GetCheckoutStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	status := h.checkout.Status()
	lastErr := h.checkout.LastError()
	h.mu.Unlock()

	resp := CheckoutStatusDTO{Status: status.String()}
	var ve *domain.ValidationError
	if status == domain.CheckoutStatusRejected && errors.As(lastErr, &ve) {
		resp.Field = ve.Field
		resp.Reason = ve.Reason
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /checkout/open
func (h *Handler) OpenCheckout(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	err := h.checkout.Open()
	status := h.checkout.Status()
	h.mu.Unlock()

	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutStatusDTO{Status: status.String()})
}

// POST /checkout/cancel
func (h *Handler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.checkout.Cancel()
	status := h.checkout.Status()
	h.mu.Unlock()

	respondJSON(w, http.StatusOK, CheckoutStatusDTO{Status: status.String()})
}

// POST /checkout/submit
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	h.runCheckout(w, r, h.checkout.Submit)
}

// POST /checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.runCheckout(w, r, h.checkout.Checkout)
}

func (h *Handler) runCheckout(
	w http.ResponseWriter,
	r *http.Request,
	step func(context.Context, domain.PaymentAttempt) (*domain.Confirmation, error),
) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaymentRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}
	method := domain.PaymentMethod(req.Method)
	if !method.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid_method", "method must be credit_card, debit_card or mobile_transfer")
		return
	}

	h.mu.Lock()
	confirmation, err := step(ctx, domain.PaymentAttempt{Method: method, Fields: req.Fields})
	status := h.checkout.Status()
	h.mu.Unlock()

	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Status:       status.String(),
		Confirmation: confirmation,
	})
}
