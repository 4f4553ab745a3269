package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront-orders/internal/catalog"
	"github.com/ariefcatur/go-storefront-orders/internal/metrics"
)

// Item is the part of an order line that stock cares about.
type Item struct {
	ProductID string
	Name      string
	Size      string
	Quantity  int
}

type StockError struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Size      string `json:"size,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Error     string `json:"error"`
}

// Store loads products and applies stock changes. Mutate must hold the
// products exclusively while fn runs and persist every product in the map
// atomically once fn returns nil; a non-nil error from fn discards all changes.
type Store interface {
	Load(ctx context.Context, ids []string) (map[string]catalog.Product, error)
	Mutate(ctx context.Context, ids []string, fn func(products map[string]*catalog.Product) error) error
}

type Service struct {
	Store Store
}

var errRejected = errors.New("stock rejected")

// Validate reports every line that cannot be fulfilled from current stock.
// The check is cumulative: lines are taken in order from what earlier lines
// would leave behind, so two lines of 3 against a stock of 5 report the second
// with 2 available even though each alone would pass.
//
// Validate takes no lock and writes nothing. Its answer can be stale by the
// time Decrease runs; Reserve performs both under the row lock.
func (s *Service) Validate(ctx context.Context, items []Item) ([]StockError, error) {
	loaded, err := s.Store.Load(ctx, productIDs(items))
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	working := make(map[string]*catalog.Product, len(loaded))
	for id, p := range loaded {
		c := clone(p)
		working[id] = &c
	}
	return evaluate(items, working), nil
}

// Decrease takes stock for every line, clamping counters at zero.
// Lines whose product no longer exists are skipped. It does not check
// availability; pair it with Validate only where oversell is acceptable and
// use Reserve otherwise.
func (s *Service) Decrease(ctx context.Context, items []Item) error {
	return s.Store.Mutate(ctx, productIDs(items), func(ps map[string]*catalog.Product) error {
		for _, it := range items {
			if p, ok := ps[it.ProductID]; ok {
				p.TakeStock(it.Size, it.Quantity)
			}
		}
		return nil
	})
}

// Restore puts stock back for every line. It has no memory of prior calls;
// callers guard against restoring the same order twice.
func (s *Service) Restore(ctx context.Context, items []Item) error {
	return s.Store.Mutate(ctx, productIDs(items), func(ps map[string]*catalog.Product) error {
		for _, it := range items {
			if p, ok := ps[it.ProductID]; ok {
				p.ReturnStock(it.Size, it.Quantity)
			}
		}
		return nil
	})
}

// Reserve validates and decreases in one exclusive step. Either every line is
// taken or nothing changes and the shortfalls are returned.
func (s *Service) Reserve(ctx context.Context, items []Item) ([]StockError, error) {
	var rejected []StockError
	err := s.Store.Mutate(ctx, productIDs(items), func(ps map[string]*catalog.Product) error {
		if rejected = evaluate(items, ps); len(rejected) > 0 {
			return errRejected
		}
		return nil
	})
	if errors.Is(err, errRejected) {
		metrics.StockRejected()
		return rejected, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// evaluate checks each line and takes its quantity from ps as it goes.
func evaluate(items []Item, ps map[string]*catalog.Product) []StockError {
	var out []StockError
	for _, it := range items {
		p, ok := ps[it.ProductID]
		if !ok {
			name := it.Name
			if name == "" {
				name = "Unknown Product"
			}
			out = append(out, StockError{
				ProductID: it.ProductID, Name: name, Size: it.Size,
				Requested: it.Quantity, Error: "Product not found",
			})
			continue
		}
		available := p.Policy().Available(it.Size)
		if available < it.Quantity {
			out = append(out, StockError{
				ProductID: it.ProductID,
				Name:      p.Name,
				Size:      it.Size,
				Requested: it.Quantity,
				Available: available,
				Error:     shortfallMessage(p.Name, it.Size, available),
			})
			continue
		}
		p.TakeStock(it.Size, it.Quantity)
	}
	return out
}

func shortfallMessage(name, size string, available int) string {
	label := `"` + name + `"`
	if size != "" {
		label += " (Size: " + size + ")"
	}
	if available == 0 {
		return label + " is out of stock"
	}
	return fmt.Sprintf("Only %d unit(s) of %s available", available, label)
}

func productIDs(items []Item) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			out = append(out, it.ProductID)
		}
	}
	return out
}

func clone(p catalog.Product) catalog.Product {
	if p.StockBySize != nil {
		sizes := make(map[string]int, len(p.StockBySize))
		for k, v := range p.StockBySize {
			sizes[k] = v
		}
		p.StockBySize = sizes
	}
	return p
}
