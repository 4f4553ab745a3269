package redisx

import "time"

const (
	// Idempotent order create: idem:order:create:{scope}:{key} -> "pending" | order_id
	KeyIdemOrderCreate = "idem:order:create:%s:%s"

	// Order snapshot cache: order:{order_id} -> order JSON
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency        = 24 * time.Hour
	TTLIdempotencyPending = time.Minute
	TTLOrderCache         = 5 * time.Minute
	TTLDedup              = 48 * time.Hour
)
