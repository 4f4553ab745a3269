package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// idemPending marks a key whose order is still being placed.
const idemPending = "pending"

// Idempotency maps a client supplied key to the order it created. A key is
// claimed before the order is placed so concurrent retries cannot both create.
type Idempotency struct {
	rdb *redis.Client
}

func NewIdempotency(rdb *redis.Client) *Idempotency {
	return &Idempotency{rdb: rdb}
}

// Claim reserves key within scope. When the key is already held, claimed is
// false and orderID is the recorded order, or empty while the first request
// is still in flight.
func (i *Idempotency) Claim(ctx context.Context, scope, key string) (orderID string, claimed bool, err error) {
	k := fmt.Sprintf(KeyIdemOrderCreate, scope, key)
	ok, err := i.rdb.SetNX(ctx, k, idemPending, TTLIdempotencyPending).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return "", true, nil
	}
	v, err := i.rdb.Get(ctx, k).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// released between SETNX and GET; the holder failed, caller may retry
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("idempotency claim: %w", err)
	case v == idemPending:
		return "", false, nil
	}
	return v, false, nil
}

// Complete records orderID against a claimed key.
func (i *Idempotency) Complete(ctx context.Context, scope, key, orderID string) error {
	if err := i.rdb.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, scope, key), orderID, TTLIdempotency).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Abandon drops a claim whose order was not created so the client can retry.
func (i *Idempotency) Abandon(ctx context.Context, scope, key string) error {
	if err := i.rdb.Del(ctx, fmt.Sprintf(KeyIdemOrderCreate, scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency abandon: %w", err)
	}
	return nil
}
