package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront-orders/internal/apperr"
	"github.com/ariefcatur/go-storefront-orders/internal/auth"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// OrderService is the part of *orders.Service the handler drives.
type OrderService interface {
	Create(ctx context.Context, req orders.CreateRequest) (orders.Order, error)
	UpdateStatus(ctx context.Context, id string, next orders.Status) (orders.Order, error)
	MarkPaid(ctx context.Context, id string, pr orders.PaymentResult) (orders.Order, error)
	Get(ctx context.Context, id string, p auth.Principal) (orders.Order, error)
	GetGuest(ctx context.Context, id string) (orders.Order, error)
	ListMine(ctx context.Context, userID string) ([]orders.Order, error)
	ListAll(ctx context.Context, q orders.ListQuery) (orders.Page, error)
	Stats(ctx context.Context) (orders.Stats, error)
	Delete(ctx context.Context, id string) error
}

// Idempotency is satisfied by *redisx.Idempotency.
type Idempotency interface {
	Claim(ctx context.Context, scope, key string) (orderID string, claimed bool, err error)
	Complete(ctx context.Context, scope, key, orderID string) error
	Abandon(ctx context.Context, scope, key string) error
}

type OrdersHandler struct {
	Orders OrderService
	Idem   Idempotency // optional
}

type createOrderReq struct {
	Items           []orders.LineItem `json:"items"`
	ShippingAddress orders.Address    `json:"shippingAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	ItemsTotal      decimal.Decimal   `json:"itemsTotal"`
	ShippingPrice   decimal.Decimal   `json:"shippingPrice"`
	TaxPrice        decimal.Decimal   `json:"taxPrice"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	GuestEmail      string            `json:"guestEmail"`
}

func (req createOrderReq) toCreate() orders.CreateRequest {
	return orders.CreateRequest{
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   orders.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
		ItemsTotal:      req.ItemsTotal,
		ShippingPrice:   req.ShippingPrice,
		TaxPrice:        req.TaxPrice,
		TotalAmount:     req.TotalAmount,
		GuestEmail:      req.GuestEmail,
	}
}

func (h *OrdersHandler) Mount(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/guest", h.createGuest)
		r.Get("/guest/{id}", h.getGuest)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Post("/", h.create)
			r.Get("/", h.listMine)
			r.Get("/{id}", h.get)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/all", h.listAll)
			r.Get("/stats", h.stats)
			r.Put("/{id}/status", h.updateStatus)
			r.Put("/{id}/pay", h.markPaid)
			r.Delete("/{id}", h.delete)
		})
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p := auth.FromContext(r.Context())
	cr := req.toCreate()
	cr.Customer = &orders.Customer{ID: p.UserID, Email: p.Email, Name: p.Name}
	cr.GuestEmail = ""
	h.createOrder(w, r, "user:"+p.UserID, cr)
}

func (h *OrdersHandler) createGuest(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cr := req.toCreate()
	h.createOrder(w, r, "guest:"+strings.ToLower(strings.TrimSpace(cr.GuestEmail)), cr)
}

// createOrder claims the Idempotency-Key within scope before placing the
// order. A key that already produced an order replays it; a key whose first
// request is still running is rejected with 409.
func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request, scope string, cr orders.CreateRequest) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	claimed := false
	if key != "" && h.Idem != nil {
		id, ok, err := h.Idem.Claim(ctx, scope, key)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("scope", scope).Msg("idempotency_claim_failed")
		case ok:
			claimed = true
		case id == "":
			writeError(w, r, apperr.Conflict("A request with this Idempotency-Key is already in progress", nil))
			return
		default:
			o, err := h.replay(ctx, id, cr)
			if err != nil {
				writeError(w, r, apperr.Conflict("Idempotency-Key was already used", err))
				return
			}
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, http.StatusOK, o)
			return
		}
	}

	o, err := h.Orders.Create(ctx, cr)
	if err != nil {
		if claimed {
			if aerr := h.Idem.Abandon(context.WithoutCancel(ctx), scope, key); aerr != nil {
				log.Warn().Err(aerr).Str("scope", scope).Msg("idempotency_abandon_failed")
			}
		}
		writeError(w, r, err)
		return
	}
	if claimed {
		if err := h.Idem.Complete(context.WithoutCancel(ctx), scope, key, o.ID); err != nil {
			log.Warn().Err(err).Str("order_id", o.ID).Msg("idempotency_complete_failed")
		}
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) replay(ctx context.Context, id string, cr orders.CreateRequest) (orders.Order, error) {
	if cr.Customer == nil {
		return h.Orders.GetGuest(ctx, id)
	}
	return h.Orders.Get(ctx, id, auth.Principal{UserID: cr.Customer.ID, Role: auth.RoleUser})
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	out, err := h.Orders.ListMine(r.Context(), auth.FromContext(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getGuest(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.GetGuest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q, err := orders.NewListQuery(v.Get("status"), v.Get("page"), v.Get("limit"))
	if err != nil {
		writeError(w, r, apperr.Validation(err.Error(), nil))
		return
	}
	page, err := h.Orders.ListAll(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Orders.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), orders.Status(strings.ToLower(body.Status)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) markPaid(w http.ResponseWriter, r *http.Request) {
	var pr orders.PaymentResult
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &pr); err != nil {
			writeError(w, r, err)
			return
		}
	}
	o, err := h.Orders.MarkPaid(r.Context(), chi.URLParam(r, "id"), pr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Order deleted successfully")
}
