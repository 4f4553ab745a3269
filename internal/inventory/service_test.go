package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ariefcatur/go-storefront-orders/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store; a single mutex gives Mutate its exclusivity.
type memStore struct {
	mu        sync.Mutex
	products  map[string]catalog.Product
	mutateErr error
}

func newMemStore(ps ...catalog.Product) *memStore {
	m := &memStore{products: map[string]catalog.Product{}}
	for _, p := range ps {
		m.products[p.ID] = clone(p)
	}
	return m
}

func (m *memStore) Load(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = clone(p)
		}
	}
	return out, nil
}

func (m *memStore) Mutate(_ context.Context, ids []string, fn func(map[string]*catalog.Product) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mutateErr != nil {
		return m.mutateErr
	}
	ps := map[string]*catalog.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			c := clone(p)
			ps[id] = &c
		}
	}
	if err := fn(ps); err != nil {
		return err
	}
	for id, p := range ps {
		m.products[id] = *p
	}
	return nil
}

func (m *memStore) get(id string) catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.products[id])
}

func polo() catalog.Product {
	return catalog.Product{ID: "p-polo", Name: "Classic Polo", Stock: 10, StockBySize: map[string]int{"M": 4, "L": 0, "XL": 6}}
}

func tee() catalog.Product {
	return catalog.Product{ID: "p-tee", Name: "Plain Tee", Stock: 5}
}

func TestValidate_Shortfalls(t *testing.T) {
	svc := &Service{Store: newMemStore(polo(), tee())}

	errs, err := svc.Validate(context.Background(), []Item{
		{ProductID: "p-polo", Size: "M", Quantity: 6},
		{ProductID: "p-polo", Size: "L", Quantity: 1},
		{ProductID: "p-tee", Quantity: 5},
		{ProductID: "p-gone", Name: "Old Stock", Quantity: 1},
		{ProductID: "p-nameless", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, errs, 4)

	assert.Equal(t, StockError{
		ProductID: "p-polo", Name: "Classic Polo", Size: "M", Requested: 6, Available: 4,
		Error: `Only 4 unit(s) of "Classic Polo" (Size: M) available`,
	}, errs[0])
	assert.Equal(t, 0, errs[1].Available)
	assert.Equal(t, `"Classic Polo" (Size: L) is out of stock`, errs[1].Error)
	assert.Equal(t, "Product not found", errs[2].Error)
	assert.Equal(t, "Old Stock", errs[2].Name)
	assert.Equal(t, "Unknown Product", errs[3].Name)
}

func TestValidate_WithinStock(t *testing.T) {
	store := newMemStore(polo(), tee())
	svc := &Service{Store: store}

	errs, err := svc.Validate(context.Background(), []Item{
		{ProductID: "p-polo", Size: "XL", Quantity: 6},
		{ProductID: "p-polo", Size: "S", Quantity: 4}, // untracked size checks the aggregate
		{ProductID: "p-tee", Quantity: 5},
	})
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, 10, store.get("p-polo").Stock, "validate never writes")
}

func TestValidate_RepeatedLinesShareStock(t *testing.T) {
	store := newMemStore(tee())
	svc := &Service{Store: store}

	errs, err := svc.Validate(context.Background(), []Item{
		{ProductID: "p-tee", Quantity: 3},
		{ProductID: "p-tee", Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Available)
	assert.Equal(t, `Only 2 unit(s) of "Plain Tee" available`, errs[0].Error)
	assert.Equal(t, 5, store.get("p-tee").Stock, "validate does not write")
}

func TestDecrease_ClampsAtZero(t *testing.T) {
	store := newMemStore(polo(), tee())
	svc := &Service{Store: store}

	require.NoError(t, svc.Decrease(context.Background(), []Item{
		{ProductID: "p-polo", Size: "M", Quantity: 9},
		{ProductID: "p-tee", Quantity: 50},
		{ProductID: "p-gone", Quantity: 1},
	}))

	p := store.get("p-polo")
	assert.Equal(t, 0, p.StockBySize["M"])
	assert.Equal(t, 1, p.Stock)
	assert.Equal(t, 0, store.get("p-tee").Stock)
}

func TestDecreaseRestore_RoundTrip(t *testing.T) {
	store := newMemStore(polo(), tee())
	svc := &Service{Store: store}
	items := []Item{
		{ProductID: "p-polo", Size: "XL", Quantity: 2},
		{ProductID: "p-polo", Size: "M", Quantity: 1},
		{ProductID: "p-tee", Quantity: 3},
	}
	ctx := context.Background()

	require.NoError(t, svc.Decrease(ctx, items))
	assert.Equal(t, 7, store.get("p-polo").Stock)
	require.NoError(t, svc.Restore(ctx, items))

	assert.Equal(t, polo(), store.get("p-polo"))
	assert.Equal(t, tee(), store.get("p-tee"))
}

func TestRestore_NotIdempotent(t *testing.T) {
	store := newMemStore(tee())
	svc := &Service{Store: store}
	items := []Item{{ProductID: "p-tee", Quantity: 2}}

	require.NoError(t, svc.Restore(context.Background(), items))
	require.NoError(t, svc.Restore(context.Background(), items))
	assert.Equal(t, 9, store.get("p-tee").Stock)
}

func TestReserve_AllOrNothing(t *testing.T) {
	store := newMemStore(polo(), tee())
	svc := &Service{Store: store}

	errs, err := svc.Reserve(context.Background(), []Item{
		{ProductID: "p-tee", Quantity: 2},
		{ProductID: "p-polo", Size: "L", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, 5, store.get("p-tee").Stock, "first line must not be taken")

	errs, err = svc.Reserve(context.Background(), []Item{
		{ProductID: "p-tee", Quantity: 2},
		{ProductID: "p-polo", Size: "XL", Quantity: 6},
	})
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, 3, store.get("p-tee").Stock)
	assert.Equal(t, 0, store.get("p-polo").StockBySize["XL"])
	assert.Equal(t, 4, store.get("p-polo").Stock)
}

func TestReserve_StoreError(t *testing.T) {
	store := newMemStore(tee())
	store.mutateErr = errors.New("connection refused")
	svc := &Service{Store: store}

	errs, err := svc.Reserve(context.Background(), []Item{{ProductID: "p-tee", Quantity: 1}})
	assert.Nil(t, errs)
	assert.EqualError(t, err, "connection refused")
}

func TestReserve_NoOversellUnderConcurrency(t *testing.T) {
	store := newMemStore(catalog.Product{ID: "p-last", Name: "Last One", Stock: 3})
	svc := &Service{Store: store}

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs, err := svc.Reserve(context.Background(), []Item{{ProductID: "p-last", Quantity: 1}})
			if err == nil && len(errs) == 0 {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, accepted)
	assert.Equal(t, 0, store.get("p-last").Stock)
}
