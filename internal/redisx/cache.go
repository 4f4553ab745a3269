package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores values of T as JSON under a formatted key.
type JSONCache[T any] struct {
	rdb    *redis.Client
	keyFmt string
	ttl    time.Duration
}

func NewJSONCache[T any](rdb *redis.Client, keyFmt string, ttl time.Duration) *JSONCache[T] {
	return &JSONCache[T]{rdb: rdb, keyFmt: keyFmt, ttl: ttl}
}

// Get reports false on a miss.
func (c *JSONCache[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var v T
	b, err := c.rdb.Get(ctx, fmt.Sprintf(c.keyFmt, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, false, fmt.Errorf("unmarshal cached value: %w", err)
	}
	return v, true, nil
}

func (c *JSONCache[T]) Set(ctx context.Context, id string, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cached value: %w", err)
	}
	if err := c.rdb.Set(ctx, fmt.Sprintf(c.keyFmt, id), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *JSONCache[T]) Delete(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, fmt.Sprintf(c.keyFmt, id)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}
