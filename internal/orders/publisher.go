package orders

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-storefront-orders/internal/kafka"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafkago.Header) error
}

// KafkaEvents publishes lifecycle events as v1 envelopes keyed by order id.
type KafkaEvents struct {
	Producer    Publisher
	ServiceName string
}

func (k *KafkaEvents) Emit(ctx context.Context, topic, eventType, orderID string, payload any) error {
	env := kafkax.NewEnvelope(eventType, k.ServiceName, orderID, middleware.GetReqID(ctx), payload)
	return k.Producer.Publish(ctx, topic, PartitionKey(orderID), kafkax.MustMarshal(env), kafkax.Headers(env)...)
}
