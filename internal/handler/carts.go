package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kedai-qr/api/internal/cart"
	"github.com/kedai-qr/api/internal/database"
)

// CartStore defines the cart operations needed by cart handlers.
// Satisfied by *cart.Store.
type CartStore interface {
	Get(ctx context.Context, tableNumber, token string) (cart.Cart, error)
	Put(ctx context.Context, tableNumber, token string, items []cart.Item) (cart.Cart, error)
	Clear(ctx context.Context, tableNumber, token string) error
}

// SessionValidator checks a customer's table token.
// Satisfied by *service.SessionService.
type SessionValidator interface {
	ValidateToken(ctx context.Context, tableNumber, token string) (database.Table, error)
}

// CartHandler serves the shared per-table cart.
type CartHandler struct {
	carts    CartStore
	sessions SessionValidator
}

// NewCartHandler creates a new CartHandler. A nil carts store disables the
// endpoints with 503.
func NewCartHandler(carts CartStore, sessions SessionValidator) *CartHandler {
	return &CartHandler{carts: carts, sessions: sessions}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/carts/{table_number}/{token}", func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/", h.Get)
		r.Put("/", h.Put)
		r.Delete("/", h.Delete)
	})
}

// --- Request types ---

type putCartRequest struct {
	Items []cart.Item `json:"items"`
}

// --- Middleware ---

func (h *CartHandler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.carts == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "cart storage is not configured"})
			return
		}
		if _, err := h.sessions.ValidateToken(r.Context(), chi.URLParam(r, "table_number"), chi.URLParam(r, "token")); err != nil {
			writeServiceError(w, "validate cart session", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Handlers ---

// Get returns the session's cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "table_number"), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, "get cart", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Put replaces the session's cart.
func (h *CartHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req putCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.carts.Put(r.Context(), chi.URLParam(r, "table_number"), chi.URLParam(r, "token"), req.Items)
	if err != nil {
		if errors.Is(err, cart.ErrInvalidItem) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeServiceError(w, "put cart", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete empties the session's cart.
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), chi.URLParam(r, "table_number"), chi.URLParam(r, "token")); err != nil {
		writeServiceError(w, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
