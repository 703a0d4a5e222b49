// Package receipts consumes checkout outcome events and records a receipt
// for every approved sale.
package receipts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-storefront-checkout/internal/events"
	kafkax "github.com/ariefcatur/go-storefront-checkout/internal/kafka"
	"github.com/ariefcatur/go-storefront-checkout/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Receipt struct {
	Store         string
	SessionID     string
	TransactionID string
	DeliveryID    string
	Total         float64
}

type Service struct {
	Redis       *redis.Client // optional, dedups redelivered events
	Log         *zap.Logger
	ServiceName string
	StoreName   string
	// OnReceipt is called for each approved checkout after it is logged.
	OnReceipt func(Receipt)
}

// HandleOutcome is installed as the consumer handler.
func (s *Service) HandleOutcome(ctx context.Context, m kafkago.Message) (err error) {
	var env events.Envelope
	if err = json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
		if seen, _ := redisx.Exists(ctx, s.Redis, key); seen {
			return nil
		}
		defer func() {
			if err == nil {
				_ = s.Redis.Set(ctx, key, "1", redisx.TTLDedup).Err()
			}
		}()
	}

	p, err := kafkax.UnwrapPayload[events.CheckoutOutcomePayload](env.Payload)
	if err != nil {
		return err
	}

	switch env.EventType {
	case events.EventCheckoutApproved:
		r := Receipt{
			Store:         s.StoreName,
			SessionID:     p.SessionID,
			TransactionID: p.TransactionID.String(),
			DeliveryID:    p.DeliveryID.String(),
			Total:         p.Total,
		}
		s.Log.Info("receipt",
			zap.String("store", r.Store),
			zap.String("session_id", r.SessionID),
			zap.String("transaction_id", r.TransactionID),
			zap.String("delivery_id", r.DeliveryID),
			zap.Float64("total", r.Total),
		)
		if s.OnReceipt != nil {
			s.OnReceipt(r)
		}
	case events.EventCheckoutDeclined, events.EventCheckoutFailed:
		s.Log.Info("checkout not completed",
			zap.String("session_id", p.SessionID),
			zap.String("event_type", env.EventType),
			zap.String("message", p.Message),
		)
	}
	return nil
}
