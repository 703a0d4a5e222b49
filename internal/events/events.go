// Package events publishes checkout outcomes as versioned envelopes on
// Kafka so downstream services (receipts, analytics) can follow sales.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ariefcatur/go-storefront-checkout/internal/checkout"
	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	kafkax "github.com/ariefcatur/go-storefront-checkout/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	EventCheckoutApproved = "CheckoutApproved"
	EventCheckoutDeclined = "CheckoutDeclined"
	EventCheckoutFailed   = "CheckoutFailed"

	TopicCheckoutOutcome = "checkout.outcome"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // session id
	Payload       json.RawMessage `json:"payload"`
}

// CheckoutOutcomePayload never carries card or contact data.
type CheckoutOutcomePayload struct {
	SessionID     string   `json:"session_id"`
	Kind          string   `json:"kind"`
	TransactionID ident.ID `json:"transaction_id"`
	DeliveryID    ident.ID `json:"delivery_id"`
	Total         float64  `json:"total"`
	Message       string   `json:"message,omitempty"`
}

// PartitionKey keeps every event of one session in order.
func PartitionKey(sessionID string) []byte { return []byte(sessionID) }

func EventType(kind checkout.OutcomeKind) string {
	switch kind {
	case checkout.OutcomeApproved:
		return EventCheckoutApproved
	case checkout.OutcomeDeclined:
		return EventCheckoutDeclined
	}
	return EventCheckoutFailed
}

type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

// Publisher is a checkout.Notifier writing to Kafka.
type Publisher struct {
	producer publisher
	service  string
	now      func() time.Time
}

func NewPublisher(p *kafkax.Producer, service string) *Publisher {
	return &Publisher{producer: p, service: service, now: time.Now}
}

func (p *Publisher) Notify(_ context.Context, o checkout.Outcome) {
	eventType := EventType(o.Kind)
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    p.now().UTC(),
		Producer:      p.service,
		CorrelationID: o.SessionID,
		Payload: kafkax.MustMarshal(CheckoutOutcomePayload{
			SessionID:     o.SessionID,
			Kind:          string(o.Kind),
			TransactionID: o.TransactionID,
			DeliveryID:    o.DeliveryID,
			Total:         o.Total,
			Message:       o.Message,
		}),
	}
	p.producer.Publish(PartitionKey(o.SessionID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
