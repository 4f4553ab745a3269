package orders

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ariefcatur/go-storefront-orders/internal/catalog"
	"github.com/ariefcatur/go-storefront-orders/internal/notify"
)

type memRepo struct {
	mu        sync.Mutex
	orders    map[string]Order
	insertErr error
}

func newMemRepo() *memRepo { return &memRepo{orders: map[string]Order{}} }

func (r *memRepo) Insert(_ context.Context, o Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.orders[o.ID] = o
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *memRepo) Save(_ context.Context, o Order, expected Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != expected {
		return ErrConflict
	}
	r.orders[o.ID] = o
	return nil
}

func (r *memRepo) ListByOwner(_ context.Context, userID string) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Order
	for _, o := range r.orders {
		if o.Owner != nil && o.Owner.ID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) List(_ context.Context, q ListQuery) ([]Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []Order
	for _, o := range r.orders {
		if q.Status() == "" || o.Status == q.Status() {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := q.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (r *memRepo) Stats(_ context.Context) (Stats, error) {
	return Stats{}, errors.New("not used")
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// memStock is an in-memory inventory store.
type memStock struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	failNext int
}

func newMemStock(ps ...catalog.Product) *memStock {
	m := &memStock{products: map[string]catalog.Product{}}
	for _, p := range ps {
		m.products[p.ID] = copyProduct(p)
	}
	return m
}

func copyProduct(p catalog.Product) catalog.Product {
	if p.StockBySize != nil {
		sizes := make(map[string]int, len(p.StockBySize))
		for k, v := range p.StockBySize {
			sizes[k] = v
		}
		p.StockBySize = sizes
	}
	return p
}

func (m *memStock) get(id string) catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyProduct(m.products[id])
}

func (m *memStock) Load(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = copyProduct(p)
		}
	}
	return out, nil
}

func (m *memStock) Mutate(_ context.Context, ids []string, fn func(map[string]*catalog.Product) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps := map[string]*catalog.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			c := copyProduct(p)
			ps[id] = &c
		}
	}
	if err := fn(ps); err != nil {
		return err
	}
	if m.failNext > 0 {
		m.failNext--
		return errors.New("stock write failed")
	}
	for id, p := range ps {
		m.products[id] = *p
	}
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (n *recordingNotifier) Enqueue(m notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, m)
	return nil
}

func (n *recordingNotifier) templates() []notify.Template {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Template
	for _, m := range n.msgs {
		out = append(out, m.Template)
	}
	return out
}

type recordingEvents struct {
	mu    sync.Mutex
	types []string
}

func (e *recordingEvents) Emit(_ context.Context, _, eventType, _ string, _ any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types = append(e.types, eventType)
	return nil
}

type fakeCarts struct {
	cleared []string
	err     error
}

func (c *fakeCarts) Clear(_ context.Context, userID string) error {
	c.cleared = append(c.cleared, userID)
	return c.err
}
