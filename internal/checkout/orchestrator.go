// Package checkout owns a shopper's cart and runs the checkout protocol:
// resolve the customer, submit the card transaction, then clear the cart
// and refresh the catalog once the backend approves.
package checkout

import (
	"context"
	"sync"

	"github.com/ariefcatur/go-storefront-checkout/internal/cart"
	"github.com/ariefcatur/go-storefront-checkout/internal/catalog"
	"github.com/ariefcatur/go-storefront-checkout/internal/customer"
	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	"github.com/ariefcatur/go-storefront-checkout/internal/pricing"
	"go.uber.org/zap"
)

type Resolver interface {
	Resolve(ctx context.Context, d customer.Data) (ident.ID, error)
}

type Transactions interface {
	Checkout(ctx context.Context, req TransactionRequest) (TransactionResponse, error)
}

type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

// Result is the checkout state the presentation layer displays.
type Result struct {
	Status        Status   `json:"status"`
	TransactionID ident.ID `json:"transactionId"`
	DeliveryID    ident.ID `json:"deliveryId"`
	TotalCharged  *float64 `json:"totalCharged"`
	ErrorMessage  string   `json:"errorMessage,omitempty"`
}

func (r Result) Loading() bool { return r.Status == StatusLoading }

type Deps struct {
	SessionID    string
	Resolver     Resolver
	Transactions Transactions
	Catalog      CatalogRefresher
	Pricing      pricing.Policy
	Notifier     Notifier
	Log          *zap.Logger
}

// Orchestrator holds the single authoritative cart of one shopper. The
// mutex is held for state transitions only, never across backend calls.
type Orchestrator struct {
	sessionID string
	resolver  Resolver
	tx        Transactions
	catalog   CatalogRefresher
	pricing   pricing.Policy
	notify    Notifier
	log       *zap.Logger

	mu     sync.Mutex
	cart   cart.Cart
	result Result
}

func New(d Deps) *Orchestrator {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	notify := d.Notifier
	if notify == nil {
		notify = Notifiers(nil)
	}
	return &Orchestrator{
		sessionID: d.SessionID,
		resolver:  d.Resolver,
		tx:        d.Transactions,
		catalog:   d.Catalog,
		pricing:   d.Pricing,
		notify:    notify,
		log:       log.With(zap.String("session_id", d.SessionID)),
		result:    Result{Status: StatusIdle},
	}
}

func (o *Orchestrator) SessionID() string { return o.sessionID }

func (o *Orchestrator) Cart() cart.Cart {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cart
}

// Totals recomputes pricing from the current cart on every call.
func (o *Orchestrator) Totals() pricing.Snapshot {
	return o.pricing.ComputeTotals(o.Cart())
}

func (o *Orchestrator) Result() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

func (o *Orchestrator) Add(p catalog.Product) cart.Cart {
	return o.apply(func(c cart.Cart) cart.Cart { return c.Add(p) })
}

func (o *Orchestrator) Remove(id ident.ID) cart.Cart {
	return o.apply(func(c cart.Cart) cart.Cart { return c.Remove(id) })
}

func (o *Orchestrator) Increment(id ident.ID) cart.Cart {
	return o.apply(func(c cart.Cart) cart.Cart { return c.Increment(id) })
}

func (o *Orchestrator) Decrement(id ident.ID) cart.Cart {
	return o.apply(func(c cart.Cart) cart.Cart { return c.Decrement(id) })
}

func (o *Orchestrator) Clear() cart.Cart {
	return o.apply(cart.Cart.Clear)
}

func (o *Orchestrator) apply(op func(cart.Cart) cart.Cart) cart.Cart {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cart = op(o.cart)
	return o.cart
}

// Submit runs one checkout attempt. The returned error is non-nil for every
// attempt that did not end approved; the Outcome carries the message to
// display. An empty cart is rejected before any backend call.
func (o *Orchestrator) Submit(ctx context.Context, d customer.Data, card CardData) (Outcome, error) {
	o.mu.Lock()
	switch {
	case o.cart.Empty():
		o.mu.Unlock()
		return Outcome{}, ErrEmptyCart
	case o.result.Status == StatusLoading:
		o.mu.Unlock()
		return Outcome{}, ErrCheckoutInProgress
	case !CanTransition(o.result.Status, StatusLoading):
		o.mu.Unlock()
		return Outcome{}, ErrResultNotReset
	}
	snapshot := o.cart
	total := o.pricing.ComputeTotals(snapshot).Total
	o.result = Result{Status: StatusLoading}
	o.mu.Unlock()

	// no exit path may leave the session loading
	defer o.leaveLoading()

	customerID, err := o.resolver.Resolve(ctx, d)
	if err != nil {
		o.log.Warn("customer resolution failed", zap.Error(err))
		return o.finish(ctx, StatusError, messageOf(err, msgGeneric), TransactionResponse{}, total), err
	}

	resp, err := o.tx.Checkout(ctx, BuildPayload(snapshot, customerID, card))
	if err != nil {
		msg := messageOf(err, msgGeneric)
		o.log.Warn("transaction submission failed", zap.Error(err))
		return o.finish(ctx, StatusError, msg, TransactionResponse{}, total), &TransportError{Message: msg, Err: err}
	}

	if !resp.Approved() {
		msg := resp.Reason()
		if msg == "" {
			msg = msgNotApproved
		}
		status := declineStatus(string(resp.Status))
		return o.finish(ctx, status, msg, resp, total), &DeclinedError{Status: string(resp.Status), Message: msg}
	}

	o.mu.Lock()
	o.cart = o.cart.Clear()
	o.mu.Unlock()
	if o.catalog != nil {
		if err := o.catalog.Refresh(ctx); err != nil {
			o.log.Warn("catalog refresh after checkout", zap.Error(err))
		}
	}
	return o.finish(ctx, StatusApproved, "", resp, total), nil
}

func (o *Orchestrator) finish(ctx context.Context, status Status, msg string, resp TransactionResponse, total float64) Outcome {
	out := Outcome{
		SessionID: o.sessionID,
		Message:   msg,
		Total:     total,
	}

	o.mu.Lock()
	switch status {
	case StatusApproved:
		out.Kind = OutcomeApproved
		out.TransactionID = resp.Identifier()
		out.DeliveryID = resp.DeliveryID
		o.result = Result{
			Status:        StatusApproved,
			TransactionID: out.TransactionID,
			DeliveryID:    out.DeliveryID,
			TotalCharged:  &total,
		}
	case StatusDeclined:
		out.Kind = OutcomeDeclined
		out.TransactionID = resp.Identifier()
		o.result = Result{Status: StatusDeclined, TransactionID: out.TransactionID, ErrorMessage: msg}
	default:
		out.Kind = OutcomeError
		out.TransactionID = resp.Identifier()
		o.result = Result{Status: StatusError, TransactionID: out.TransactionID, ErrorMessage: msg}
	}
	o.mu.Unlock()

	o.notify.Notify(ctx, out)
	return out
}

func (o *Orchestrator) leaveLoading() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result.Status == StatusLoading {
		o.result = Result{Status: StatusError, ErrorMessage: msgGeneric}
	}
}

// Reset clears the displayed result back to idle. The cart is untouched.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result.Status == StatusLoading {
		return
	}
	o.result = Result{Status: StatusIdle}
}

func declineStatus(s string) Status {
	switch s {
	case "DECLINED", "VOIDED", "REJECTED":
		return StatusDeclined
	}
	return StatusError
}
