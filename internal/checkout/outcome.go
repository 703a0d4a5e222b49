package checkout

import (
	"context"

	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	"go.uber.org/zap"
)

type OutcomeKind string

const (
	OutcomeApproved OutcomeKind = "approved"
	OutcomeDeclined OutcomeKind = "declined"
	OutcomeError    OutcomeKind = "error"
)

// Outcome is what a finished checkout tells the presentation layer.
type Outcome struct {
	Kind          OutcomeKind `json:"kind"`
	SessionID     string      `json:"sessionId,omitempty"`
	Message       string      `json:"message,omitempty"`
	TransactionID ident.ID    `json:"transactionId"`
	DeliveryID    ident.ID    `json:"deliveryId"`
	Total         float64     `json:"total"`
}

type Notifier interface {
	Notify(ctx context.Context, o Outcome)
}

// Notifiers fans an outcome out to every notifier in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, o Outcome) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, o)
		}
	}
}

type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, o Outcome) {
	fields := []zap.Field{
		zap.String("session_id", o.SessionID),
		zap.String("kind", string(o.Kind)),
		zap.Stringer("transaction_id", o.TransactionID),
		zap.Float64("total", o.Total),
	}
	if o.Kind == OutcomeApproved {
		n.Log.Info("checkout approved", append(fields, zap.Stringer("delivery_id", o.DeliveryID))...)
		return
	}
	n.Log.Warn("checkout not approved", append(fields, zap.String("message", o.Message))...)
}
