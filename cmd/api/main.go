package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront-orders/internal/auth"
	"github.com/ariefcatur/go-storefront-orders/internal/cart"
	"github.com/ariefcatur/go-storefront-orders/internal/catalog"
	"github.com/ariefcatur/go-storefront-orders/internal/config"
	"github.com/ariefcatur/go-storefront-orders/internal/httpx"
	"github.com/ariefcatur/go-storefront-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-storefront-orders/internal/kafka"
	"github.com/ariefcatur/go-storefront-orders/internal/logging"
	"github.com/ariefcatur/go-storefront-orders/internal/metrics"
	"github.com/ariefcatur/go-storefront-orders/internal/notify"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/ariefcatur/go-storefront-orders/internal/postgres"
	"github.com/ariefcatur/go-storefront-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Init(cfg.ServiceName, cfg.LogLevel)
	metrics.Register()
	if cfg.GatewayToken == "" && !cfg.GatewayInsecure {
		log.Fatal().Msg("GATEWAY_TOKEN is required; set GATEWAY_INSECURE=true to trust identity headers in development")
	}
	if cfg.GatewayInsecure {
		log.Warn().Msg("gateway_insecure: identity headers are trusted without a gateway token")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolOptions{MaxConns: int32(cfg.PGMaxConns), MinConns: 2, PingAttempts: 10})
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(cfg.PostgresDSN, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	// Mongo
	mdb, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	defer func() { _ = mdb.Client().Disconnect(context.Background()) }()
	carts := cart.NewStore(mdb)
	if err := carts.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("cart indexes")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// Notifications
	dispatcher := notify.NewDispatcher(newSender(cfg, prod), notify.Options{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		MaxAttempts: cfg.Notify.MaxAttempts,
		BaseDelay:   cfg.Notify.BaseDelay,
	})
	dispatcher.Start(ctx)
	go func() {
		for de := range dispatcher.Errors() {
			log.Error().Err(de.Err).Str("template", string(de.Message.Template)).
				Str("order_id", de.Message.Order.ID).Int("attempts", de.Attempts).Msg("notification_undelivered")
		}
	}()

	svc := &orders.Service{
		Repo:       &orders.Repo{DB: db},
		Inventory:  &inventory.Service{Store: &inventory.PGStore{DB: db}},
		Carts:      carts,
		Notifier:   dispatcher,
		Events:     &orders.KafkaEvents{Producer: prod, ServiceName: cfg.ServiceName},
		Cache:      redisx.NewJSONCache[orders.Order](rdb, redisx.KeyOrder, redisx.TTLOrderCache),
		AdminEmail: cfg.Notify.AdminEmail,
	}

	router := httpx.NewRouter(auth.StaticToken{Token: cfg.GatewayToken, Insecure: cfg.GatewayInsecure},
		&httpx.OrdersHandler{Orders: svc, Idem: redisx.NewIdempotency(rdb)},
		&httpx.ProductsHandler{Products: &catalog.Repo{DB: db}},
		&httpx.CartHandler{Carts: carts},
	)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http_listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting_down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	dispatcher.Close() // drain queued mail before the producer goes away
	prod.Close()
	cancel()
	prod.WaitClosed()
}

// newSender picks the delivery path. Without SMTP credentials mail is only logged.
func newSender(cfg config.Config, prod *kafkax.Producer) notify.Sender {
	switch cfg.Notify.Mode {
	case "kafka":
		return &notify.KafkaSender{Producer: prod, ServiceName: cfg.ServiceName}
	case "log":
		return notify.LogSender{}
	}
	if !cfg.Email.Configured() {
		log.Warn().Msg("email credentials missing, notifications will only be logged")
		return notify.LogSender{}
	}
	s, err := notify.NewSMTPSender(cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("smtp client")
	}
	return s
}
