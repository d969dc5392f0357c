package http

import (
	"net/http"

	"github.com/fjod/cart-engine/internal/identity"
)

type SessionResponseDTO struct {
	Owner         string `json:"owner"`
	Authenticated bool   `json:"authenticated"`
}

// POST /session with "Authorization: Bearer <jwt>" signs the token's subject in.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if len(h.jwtSecret) == 0 {
		respondError(w, http.StatusServiceUnavailable, "auth_disabled", "authentication is not configured")
		return
	}

	id, err := identity.ParseToken(h.jwtSecret, r.Header.Get("Authorization"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.mu.Lock()
	h.sessions.Login(id.Identifier)
	resp := h.sessionResponse()
	h.mu.Unlock()

	respondJSON(w, http.StatusOK, resp)
}

// DELETE /session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.sessions.Logout()
	resp := h.sessionResponse()
	h.mu.Unlock()

	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) sessionResponse() SessionResponseDTO {
	owner := h.cart.Snapshot().OwnerKey
	return SessionResponseDTO{Owner: owner.String(), Authenticated: !owner.IsGuest()}
}
