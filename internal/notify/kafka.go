package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-storefront-orders/internal/kafka"
	"github.com/ariefcatur/go-storefront-orders/internal/redisx"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafkago.Header) error
}

// KafkaSender hands messages to the notifier service through the email topic.
type KafkaSender struct {
	Producer    Publisher
	ServiceName string
}

func (s *KafkaSender) Send(ctx context.Context, m Message) error {
	env := kafkax.NewEnvelope(EventEmailRequested, s.ServiceName, m.Order.ID, "", m)
	return s.Producer.Publish(ctx, TopicEmail, []byte(m.Order.ID), kafkax.MustMarshal(env), kafkax.Headers(env)...)
}

// Relay consumes email requests and delivers each event at most once per
// dedup window.
type Relay struct {
	Sender      Sender
	Redis       *redis.Client
	ServiceName string
}

func (r *Relay) Handle(ctx context.Context, km kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(km.Value)
	if err != nil {
		log.Warn().Err(err).Int64("offset", km.Offset).Msg("notify_bad_envelope")
		return nil
	}
	if env.EventType != EventEmailRequested {
		return nil
	}

	key := fmt.Sprintf(redisx.KeyDedup, r.ServiceName, env.EventID)
	first, err := redisx.Claim(ctx, r.Redis, key, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("dedup claim: %w", err)
	}
	if !first {
		return nil
	}

	m, err := kafkax.UnwrapPayload[Message](env.Payload)
	if err != nil {
		log.Warn().Err(err).Str("event_id", env.EventID).Msg("notify_bad_payload")
		return nil
	}
	if err := r.Sender.Send(ctx, m); err != nil {
		if rerr := redisx.Release(ctx, r.Redis, key); rerr != nil {
			log.Warn().Err(rerr).Str("key", key).Msg("dedup_release_failed")
		}
		return err
	}
	return nil
}
