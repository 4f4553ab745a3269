package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront-orders/internal/apperr"
	"github.com/ariefcatur/go-storefront-orders/internal/auth"
	"github.com/ariefcatur/go-storefront-orders/internal/metrics"
	"github.com/ariefcatur/go-storefront-orders/internal/notify"
)

// Service owns order state. Carts, Notifier, Events and Cache are optional.
type Service struct {
	Repo      Repository
	Inventory Inventory
	Carts     CartClearer
	Notifier  Notifier
	Events    Events
	Cache     Cache

	// AdminEmail receives a copy of every new order when set.
	AdminEmail string
	Now        func() time.Time
}

type CreateRequest struct {
	Items           []LineItem
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	ItemsTotal      decimal.Decimal
	ShippingPrice   decimal.Decimal
	TaxPrice        decimal.Decimal
	TotalAmount     decimal.Decimal

	// Customer is nil for guest checkout, which requires GuestEmail.
	Customer   *Customer
	GuestEmail string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (r CreateRequest) validate() error {
	if len(r.Items) == 0 {
		return apperr.Validation("No order items", nil)
	}
	if r.Customer == nil && strings.TrimSpace(r.GuestEmail) == "" {
		return apperr.Validation("Email is required for guest checkout", nil)
	}
	if !r.PaymentMethod.Valid() {
		return apperr.Validation(fmt.Sprintf("Invalid payment method %q", r.PaymentMethod), nil)
	}
	for _, it := range r.Items {
		if it.ProductID == "" {
			return apperr.Validation("Every item needs a product", nil)
		}
		if it.Quantity <= 0 {
			return apperr.Validation(fmt.Sprintf("Invalid quantity for %q", it.Name), nil)
		}
	}
	return nil
}

// Create reserves stock and records a confirmed order. Non-cash orders are
// marked paid with a mock payment result.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Order, error) {
	if err := req.validate(); err != nil {
		return Order{}, err
	}

	items := stockItems(req.Items)
	rejected, err := s.Inventory.Reserve(ctx, items)
	if err != nil {
		return Order{}, apperr.Internal("reserve stock", err)
	}
	if len(rejected) > 0 {
		return Order{}, apperr.Validation("Some items are no longer available in requested quantity", rejected)
	}

	now := s.now()
	o := Order{
		ID:              uuid.NewString(),
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsTotal:      req.ItemsTotal,
		ShippingPrice:   req.ShippingPrice,
		TaxPrice:        req.TaxPrice,
		TotalAmount:     req.TotalAmount,
		Status:          StatusConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Customer != nil {
		c := *req.Customer
		o.Owner = &c
	} else {
		o.IsGuest = true
		o.GuestEmail = strings.TrimSpace(req.GuestEmail)
	}
	if o.PaymentMethod != PaymentCOD {
		o.IsPaid = true
		o.PaidAt = &now
		o.PaymentResult = &PaymentResult{
			ID:         fmt.Sprintf("MOCK_%d", now.UnixMilli()),
			Status:     "completed",
			UpdateTime: now.Format(time.RFC3339),
		}
	}

	if err := s.Repo.Insert(ctx, o); err != nil {
		if rerr := s.Inventory.Restore(ctx, items); rerr != nil {
			log.Error().Err(rerr).Str("order_id", o.ID).Msg("stock_compensation_failed")
		}
		return Order{}, apperr.Internal("save order", err)
	}
	metrics.OrderCreated(o.IsGuest, string(o.PaymentMethod))

	if !o.IsGuest && s.Carts != nil {
		if err := s.Carts.Clear(ctx, o.Owner.ID); err != nil {
			log.Warn().Err(err).Str("user_id", o.Owner.ID).Msg("cart_clear_failed")
		}
	}

	s.notify(o, notify.OrderConfirmation)
	if s.AdminEmail != "" {
		s.enqueue(notify.Message{To: s.AdminEmail, Name: "Admin", Template: notify.AdminOrderNotification, Order: summary(o)})
	}
	s.emit(ctx, TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:       o.ID,
		UserID:        ownerID(o),
		Guest:         o.IsGuest,
		PaymentMethod: o.PaymentMethod,
		Items:         itemQtys(o.Items),
		TotalAmount:   o.TotalAmount,
	})
	return o, nil
}

// UpdateStatus moves an order to next. Entering cancelled from any other
// status restores the order's stock exactly once.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (Order, error) {
	if !next.IsTarget() {
		return Order{}, apperr.Validation(fmt.Sprintf("Invalid status %q", next), nil)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return Order{}, err
	}

	before := o
	prev := o.Status
	now := s.now()
	o.Status = next
	o.UpdatedAt = now
	if next == StatusDelivered {
		o.DeliveredAt = &now
		if o.PaymentMethod == PaymentCOD {
			o.IsPaid = true
			o.PaidAt = &now
		}
	}
	restore := next == StatusCancelled && prev != StatusCancelled

	if err := s.save(ctx, o, prev); err != nil {
		return Order{}, err
	}
	if restore {
		if err := s.Inventory.Restore(ctx, o.StockItems()); err != nil {
			if rerr := s.Repo.Save(ctx, before, next); rerr != nil {
				log.Error().Err(rerr).Str("order_id", id).Msg("status_revert_failed")
			}
			s.invalidate(ctx, id)
			return Order{}, apperr.Internal("restore stock", err)
		}
	}
	metrics.StatusTransition(string(prev), string(next))

	if prev != next {
		switch next {
		case StatusShipped:
			s.notify(o, notify.OrderShipped)
		case StatusDelivered:
			s.notify(o, notify.OrderDelivered)
		}
	}
	s.emit(ctx, TopicOrderStatusChanged, EventOrderStatusChanged, o.ID, OrderStatusChangedPayload{
		OrderID: o.ID, From: prev, To: next, StockRestored: restore,
	})
	return o, nil
}

// MarkPaid records a confirmed payment. Paying an already paid order is a no-op.
func (s *Service) MarkPaid(ctx context.Context, id string, pr PaymentResult) (Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.IsPaid {
		return o, nil
	}
	if o.Status == StatusCancelled {
		return Order{}, apperr.Validation("Cancelled orders cannot be paid", nil)
	}
	now := s.now()
	if pr.ID == "" {
		pr.ID = fmt.Sprintf("MANUAL_%d", now.UnixMilli())
	}
	if pr.Status == "" {
		pr.Status = "completed"
	}
	if pr.UpdateTime == "" {
		pr.UpdateTime = now.Format(time.RFC3339)
	}
	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = &pr
	o.UpdatedAt = now
	if err := s.save(ctx, o, o.Status); err != nil {
		return Order{}, err
	}
	s.emit(ctx, TopicOrderPaid, EventOrderPaid, o.ID, OrderPaidPayload{OrderID: o.ID, PaymentRef: pr.ID})
	return o, nil
}

// Get returns a registered order to its owner or an admin. Guest orders
// reached this way are admin only.
func (s *Service) Get(ctx context.Context, id string, p auth.Principal) (Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !p.IsAdmin() && !o.OwnedBy(p.UserID) {
		return Order{}, apperr.Forbidden("Not authorized to view this order")
	}
	return o, nil
}

// GetGuest returns guest orders only; any other order reads as absent.
func (s *Service) GetGuest(ctx context.Context, id string) (Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !o.IsGuest {
		return Order{}, apperr.NotFound("Order not found")
	}
	return o, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]Order, error) {
	out, err := s.Repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list orders", err)
	}
	return out, nil
}

func (s *Service) ListAll(ctx context.Context, q ListQuery) (Page, error) {
	out, total, err := s.Repo.List(ctx, q)
	if err != nil {
		return Page{}, apperr.Internal("list orders", err)
	}
	return Page{Orders: out, Page: q.Page(), Pages: q.Pages(total), Total: total}, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.Repo.Stats(ctx)
	if err != nil {
		return Stats{}, apperr.Internal("order stats", err)
	}
	return st, nil
}

// Delete removes the order record. Stock is left untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Order not found")
		}
		return apperr.Internal("delete order", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (Order, error) {
	if s.Cache != nil {
		o, ok, err := s.Cache.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("order_id", id).Msg("order_cache_get_failed")
		} else if ok {
			return o, nil
		}
	}
	o, err := s.Repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Order{}, apperr.NotFound("Order not found")
	}
	if err != nil {
		return Order{}, apperr.Internal("load order", err)
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, id, o); err != nil {
			log.Warn().Err(err).Str("order_id", id).Msg("order_cache_set_failed")
		}
	}
	return o, nil
}

func (s *Service) save(ctx context.Context, o Order, expected Status) error {
	err := s.Repo.Save(ctx, o, expected)
	s.invalidate(ctx, o.ID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("Order not found")
	case errors.Is(err, ErrConflict):
		return apperr.Conflict("Order was updated by another request, retry", err)
	default:
		return apperr.Internal("save order", err)
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, id); err != nil {
		log.Warn().Err(err).Str("order_id", id).Msg("order_cache_delete_failed")
	}
}

// notify queues tmpl for the order's customer when an address is known.
func (s *Service) notify(o Order, tmpl notify.Template) {
	to, name := recipient(o)
	if to == "" {
		return
	}
	s.enqueue(notify.Message{To: to, Name: name, Template: tmpl, Order: summary(o)})
}

func (s *Service) enqueue(m notify.Message) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Enqueue(m); err != nil {
		log.Warn().Err(err).Str("to", m.To).Str("template", string(m.Template)).Msg("notify_enqueue_failed")
	}
}

func (s *Service) emit(ctx context.Context, topic, eventType, orderID string, payload any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Emit(ctx, topic, eventType, orderID, payload); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Str("event", eventType).Msg("event_publish_failed")
	}
}

func recipient(o Order) (email, name string) {
	if o.IsGuest {
		email, name = o.GuestEmail, o.ShippingAddress.FullName
	} else if o.Owner != nil {
		email, name = o.Owner.Email, o.Owner.Name
	}
	if name == "" {
		name = "Customer"
	}
	return email, name
}

func ownerID(o Order) string {
	if o.Owner == nil {
		return ""
	}
	return o.Owner.ID
}

func summary(o Order) notify.OrderSummary {
	lines := make([]notify.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, notify.Line{Name: it.Name, Image: it.Image, Size: it.Size, Quantity: it.Quantity, Price: it.Price})
	}
	return notify.OrderSummary{
		ID:              o.ID,
		Number:          o.Number(),
		PlacedAt:        o.CreatedAt,
		Items:           lines,
		ItemsTotal:      o.ItemsTotal,
		ShippingPrice:   o.ShippingPrice,
		TaxPrice:        o.TaxPrice,
		TotalAmount:     o.TotalAmount,
		PaymentMethod:   string(o.PaymentMethod),
		IsPaid:          o.IsPaid,
		ShippingAddress: notify.Address(o.ShippingAddress),
	}
}
