package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront-orders/internal/config"
	kafkax "github.com/ariefcatur/go-storefront-orders/internal/kafka"
	"github.com/ariefcatur/go-storefront-orders/internal/logging"
	"github.com/ariefcatur/go-storefront-orders/internal/metrics"
	"github.com/ariefcatur/go-storefront-orders/internal/notify"
	"github.com/ariefcatur/go-storefront-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-notifier"
	logging.Init(name, cfg.LogLevel)
	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	var sender notify.Sender = notify.LogSender{}
	if cfg.Email.Configured() {
		s, err := notify.NewSMTPSender(cfg.Email)
		if err != nil {
			log.Fatal().Err(err).Msg("smtp client")
		}
		sender = s
	} else {
		log.Warn().Msg("email credentials missing, notifications will only be logged")
	}

	// Retries happen inline so a failed message is not committed.
	dispatcher := notify.NewDispatcher(sender, notify.Options{
		MaxAttempts: cfg.Notify.MaxAttempts,
		BaseDelay:   cfg.Notify.BaseDelay,
	})
	relay := &notify.Relay{Sender: dispatcher, Redis: rdb, ServiceName: name}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.Notify.ConsumerGroup, notify.TopicEmail, cfg.Notify.ConsumerWorkers)
	go func() {
		log.Info().Str("group", cfg.Notify.ConsumerGroup).Str("topic", notify.TopicEmail).
			Int("workers", cfg.Notify.ConsumerWorkers).Msg("notifier_consumer_started")
		if err := cons.Start(ctx, relay.Handle); err != nil {
			log.Error().Err(err).Msg("consumer_exit")
			cancel()
		}
	}()

	go func() {
		for de := range dispatcher.Errors() {
			log.Error().Err(de.Err).Str("template", string(de.Message.Template)).
				Str("order_id", de.Message.Order.ID).Int("attempts", de.Attempts).Msg("notification_undelivered")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info().Msg("shutting_down")
	cancel()
	dispatcher.Close()
}
