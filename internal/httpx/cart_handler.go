package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-storefront-orders/internal/apperr"
	"github.com/ariefcatur/go-storefront-orders/internal/auth"
	"github.com/ariefcatur/go-storefront-orders/internal/cart"
)

// CartStore is satisfied by *cart.Store.
type CartStore interface {
	Get(ctx context.Context, userID string) (cart.Cart, error)
	Replace(ctx context.Context, userID string, items []cart.Item) (cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type CartHandler struct {
	Carts CartStore
}

func (h *CartHandler) Mount(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/", h.get)
		r.Put("/", h.replace)
		r.Delete("/", h.clear)
	})
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.Get(r.Context(), auth.FromContext(r.Context()).UserID)
	if err != nil {
		writeError(w, r, apperr.Internal("get cart", err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) replace(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []cart.Item `json:"items"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Carts.Replace(r.Context(), auth.FromContext(r.Context()).UserID, body.Items)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindValidation {
			err = apperr.Internal("replace cart", err)
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Carts.Clear(r.Context(), auth.FromContext(r.Context()).UserID); err != nil {
		writeError(w, r, apperr.Internal("clear cart", err))
		return
	}
	writeMessage(w, http.StatusOK, "Cart cleared")
}
