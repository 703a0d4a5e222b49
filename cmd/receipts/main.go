package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-storefront-checkout/internal/config"
	kafkax "github.com/ariefcatur/go-storefront-checkout/internal/kafka"
	"github.com/ariefcatur/go-storefront-checkout/internal/receipts"
	"github.com/ariefcatur/go-storefront-checkout/internal/redisx"
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
	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	if rdb != nil {
		defer rdb.Close()
	}

	svc := &receipts.Service{
		Redis:       rdb,
		Log:         logger.Named("receipts"),
		ServiceName: cfg.ServiceName + "-receipts",
		StoreName:   cfg.StoreName,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ReceiptsGroup, cfg.CheckoutTopic, cfg.ReceiptsWorkers, logger.Named("consumer"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("receipts consumer started",
			zap.String("group", cfg.ReceiptsGroup),
			zap.String("topic", cfg.CheckoutTopic),
			zap.Int("workers", cfg.ReceiptsWorkers),
		)
		if err := cons.Start(ctx, svc.HandleOutcome); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer")
	cancel()
	<-done
}
