package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-storefront-checkout/internal/backend"
	"github.com/ariefcatur/go-storefront-checkout/internal/catalog"
	"github.com/ariefcatur/go-storefront-checkout/internal/checkout"
	"github.com/ariefcatur/go-storefront-checkout/internal/config"
	"github.com/ariefcatur/go-storefront-checkout/internal/customer"
	"github.com/ariefcatur/go-storefront-checkout/internal/events"
	"github.com/ariefcatur/go-storefront-checkout/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront-checkout/internal/kafka"
	"github.com/ariefcatur/go-storefront-checkout/internal/pricing"
	"github.com/ariefcatur/go-storefront-checkout/internal/redisx"
	"github.com/ariefcatur/go-storefront-checkout/internal/session"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", cfg.ServiceName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := backend.New(cfg.BackendBaseURL, nil, logger.Named("backend"))

	// Redis catalog cache
	var cache catalog.Cache
	if rdb := redisx.New(cfg.RedisAddr); rdb != nil {
		defer rdb.Close()
		cache = catalog.NewRedisCache(rdb, cfg.CatalogCacheTTL)
	}
	loader := catalog.NewLoader(api.Catalog(), cache, logger.Named("catalog"))
	if _, err := loader.Products(ctx); err != nil {
		logger.Warn("initial catalog load failed", zap.Error(err))
	}

	// Kafka outcome events
	notifiers := checkout.Notifiers{checkout.LogNotifier{Log: logger.Named("checkout")}}
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, cfg.CheckoutTopic, 1024, logger.Named("producer"))
		prod.Start(ctx)
		notifiers = append(notifiers, events.NewPublisher(prod, cfg.ServiceName))
	}

	resolver := customer.NewResolver(api.Customers(), logger.Named("customer"))
	policy := pricing.NewPolicy(cfg.BaseFee, cfg.DeliveryFee)
	newSession := func(id string) *checkout.Orchestrator {
		return checkout.New(checkout.Deps{
			SessionID:    id,
			Resolver:     resolver,
			Transactions: api.Transactions(),
			Catalog:      loader,
			Pricing:      policy,
			Notifier:     notifiers,
			Log:          logger.Named("checkout"),
		})
	}
	sessions := session.NewRegistry(newSession,
		session.WithIdleTimeout(cfg.SessionIdleTTL),
		session.WithMaxSessions(cfg.MaxSessions),
		session.WithLogger(logger.Named("session")),
	)
	go sessions.Run(ctx, time.Minute)

	router := httpx.NewRouter(logger.Named("http"))
	sh := &httpx.StorefrontHandler{
		Sessions: sessions,
		Catalog:  loader,
		Log:      logger,
	}
	sh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreName))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
	cancel()
}
