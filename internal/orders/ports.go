package orders

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-storefront-orders/internal/inventory"
	"github.com/ariefcatur/go-storefront-orders/internal/notify"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict means the stored status no longer matches the expected one.
	ErrConflict = errors.New("order status changed concurrently")
)

type Repository interface {
	Insert(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	// Save overwrites o only while the stored status still equals expected.
	Save(ctx context.Context, o Order, expected Status) error
	ListByOwner(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context, q ListQuery) ([]Order, int, error)
	Stats(ctx context.Context) (Stats, error)
	Delete(ctx context.Context, id string) error
}

type Inventory interface {
	Reserve(ctx context.Context, items []inventory.Item) ([]inventory.StockError, error)
	Restore(ctx context.Context, items []inventory.Item) error
}

type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type Notifier interface {
	Enqueue(m notify.Message) error
}

type Events interface {
	Emit(ctx context.Context, topic, eventType, orderID string, payload any) error
}

// Cache holds order snapshots by id.
type Cache interface {
	Get(ctx context.Context, id string) (Order, bool, error)
	Set(ctx context.Context, id string, o Order) error
	Delete(ctx context.Context, id string) error
}
