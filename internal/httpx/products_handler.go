package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-storefront-orders/internal/apperr"
	"github.com/ariefcatur/go-storefront-orders/internal/auth"
	"github.com/ariefcatur/go-storefront-orders/internal/catalog"
)

const featuredLimit = 8

// ProductStore is satisfied by *catalog.Repo.
type ProductStore interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
	List(ctx context.Context, q catalog.ProductQuery) ([]catalog.Product, int, error)
	Featured(ctx context.Context, limit int) ([]catalog.Product, error)
	Create(ctx context.Context, p *catalog.Product) error
	Patch(ctx context.Context, id string, pt catalog.Patch) (catalog.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	Products ProductStore
}

type productPage struct {
	Products []catalog.Product `json:"products"`
	Page     int               `json:"page"`
	Pages    int               `json:"pages"`
	Total    int               `json:"total"`
}

func (h *ProductsHandler) Mount(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/featured", h.featured)
		r.Get("/{id}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/", h.create)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
		})
	})
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.NewProductQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, apperr.Validation(err.Error(), nil))
		return
	}
	ps, total, err := h.Products.List(r.Context(), q)
	if err != nil {
		writeError(w, r, apperr.Internal("list products", err))
		return
	}
	pages := (total + q.Limit() - 1) / q.Limit()
	writeJSON(w, http.StatusOK, productPage{Products: ps, Page: q.Page(), Pages: pages, Total: total})
}

func (h *ProductsHandler) featured(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Products.Featured(r.Context(), featuredLimit)
	if err != nil {
		writeError(w, r, apperr.Internal("featured products", err))
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, productErr(err, "get product"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	p.ID = ""
	if err := p.Validate(); err != nil {
		writeError(w, r, apperr.Validation(err.Error(), nil))
		return
	}
	if err := h.Products.Create(r.Context(), &p); err != nil {
		writeError(w, r, apperr.Internal("create product", err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch catalog.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Products.Patch(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, productErr(err, "update product"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, productErr(err, "delete product"))
		return
	}
	writeMessage(w, http.StatusOK, "Product removed")
}

func productErr(err error, op string) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return apperr.NotFound("Product not found")
	}
	var inv *catalog.InvalidError
	if errors.As(err, &inv) {
		return apperr.Validation(inv.Error(), nil)
	}
	return apperr.Internal(op, err)
}
