package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ariefcatur/go-storefront-checkout/internal/catalog"
	"github.com/ariefcatur/go-storefront-checkout/internal/customer"
	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	"github.com/ariefcatur/go-storefront-checkout/internal/money"
	"github.com/ariefcatur/go-storefront-checkout/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	id    ident.ID
	err   error
	calls int
}

func (s *stubResolver) Resolve(context.Context, customer.Data) (ident.ID, error) {
	s.calls++
	return s.id, s.err
}

type stubTransactions struct {
	resp     TransactionResponse
	err      error
	requests []TransactionRequest
	// when set, Checkout signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (s *stubTransactions) Checkout(_ context.Context, req TransactionRequest) (TransactionResponse, error) {
	s.requests = append(s.requests, req)
	if s.entered != nil {
		close(s.entered)
		<-s.release
	}
	return s.resp, s.err
}

type stubCatalog struct{ refreshes int }

func (s *stubCatalog) Refresh(context.Context) error {
	s.refreshes++
	return nil
}

type recorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *recorder) Notify(_ context.Context, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

type serverErr struct{ msg string }

func (e serverErr) Error() string         { return "backend: 502 Bad Gateway" }
func (e serverErr) ServerMessage() string { return e.msg }

var (
	jersey = catalog.Product{ID: ident.Int(1), Name: "Camiseta", Price: money.FromInt(50000), Stock: 10}
	ana    = customer.Data{Email: "ana@example.com", FullName: "Ana Gomez", Address: "Cra 7", City: "Bogota"}
	card   = CardData{Number: "4242 4242 4242 4242", ExpMonth: "1", ExpYear: "29", CVC: "123", CardHolder: "ANA GOMEZ"}
)

type fixture struct {
	o        *Orchestrator
	resolver *stubResolver
	tx       *stubTransactions
	catalog  *stubCatalog
	notes    *recorder
}

func newFixture(resp TransactionResponse, txErr error) *fixture {
	f := &fixture{
		resolver: &stubResolver{id: ident.Int(77)},
		tx:       &stubTransactions{resp: resp, err: txErr},
		catalog:  &stubCatalog{},
		notes:    &recorder{},
	}
	f.o = New(Deps{
		SessionID:    "sess-1",
		Resolver:     f.resolver,
		Transactions: f.tx,
		Catalog:      f.catalog,
		Pricing:      pricing.NewPolicy(2000, 5000),
		Notifier:     f.notes,
	})
	return f
}

func approved() TransactionResponse {
	return TransactionResponse{Status: "APPROVED", ID: ident.String("tx-1"), DeliveryID: ident.Int(9)}
}

func TestSubmit_EmptyCartNeverCallsBackend(t *testing.T) {
	f := newFixture(approved(), nil)

	_, err := f.o.Submit(context.Background(), ana, card)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, f.resolver.calls)
	assert.Empty(t, f.tx.requests)
	assert.Equal(t, StatusIdle, f.o.Result().Status)
	assert.Empty(t, f.notes.outcomes)
}

func TestSubmit_Approved(t *testing.T) {
	f := newFixture(approved(), nil)
	f.o.Add(jersey)
	f.o.Add(jersey)

	out, err := f.o.Submit(context.Background(), ana, card)
	require.NoError(t, err)

	assert.Equal(t, OutcomeApproved, out.Kind)
	assert.Equal(t, 107000.0, out.Total)
	assert.True(t, f.o.Cart().Empty())
	assert.Equal(t, 1, f.catalog.refreshes)

	res := f.o.Result()
	assert.Equal(t, StatusApproved, res.Status)
	assert.Equal(t, ident.String("tx-1"), res.TransactionID)
	assert.Equal(t, ident.Int(9), res.DeliveryID)
	require.NotNil(t, res.TotalCharged)
	assert.Equal(t, 107000.0, *res.TotalCharged)
	assert.False(t, res.Loading())

	require.Len(t, f.tx.requests, 1)
	req := f.tx.requests[0]
	assert.Equal(t, "4242424242424242", req.Checkout.CreditCard.Number)
	assert.Equal(t, "01", req.Checkout.CreditCard.ExpMonth)
	assert.Equal(t, "29", req.Checkout.CreditCard.ExpYear)
	assert.Equal(t, 1, req.Checkout.Installments)
	assert.Equal(t, ident.Int(77), req.Transaction.CustomerID)
	assert.Equal(t, []TransactionProduct{{ProductID: ident.Int(1), Quantity: 2}}, req.Transaction.TransactionProducts)

	require.Len(t, f.notes.outcomes, 1)
	assert.Equal(t, "sess-1", f.notes.outcomes[0].SessionID)
}

func TestSubmit_TransactionIDFallsBackToTransactionId(t *testing.T) {
	f := newFixture(TransactionResponse{Status: "APPROVED", TransactionID: ident.Int(555)}, nil)
	f.o.Add(jersey)

	_, err := f.o.Submit(context.Background(), ana, card)
	require.NoError(t, err)
	res := f.o.Result()
	assert.Equal(t, ident.Int(555), res.TransactionID)
	assert.True(t, res.DeliveryID.IsZero())
}

func TestSubmit_DeclinedKeepsCart(t *testing.T) {
	f := newFixture(TransactionResponse{Status: "DECLINED", ID: ident.String("tx-2"), Message: "Fondos insuficientes"}, nil)
	f.o.Add(jersey)
	before := f.o.Cart().Lines()

	out, err := f.o.Submit(context.Background(), ana, card)

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "DECLINED", declined.Status)
	assert.Equal(t, "Fondos insuficientes", declined.Message)
	assert.Equal(t, OutcomeDeclined, out.Kind)
	assert.Equal(t, before, f.o.Cart().Lines())
	assert.Equal(t, 0, f.catalog.refreshes)

	res := f.o.Result()
	assert.Equal(t, StatusDeclined, res.Status)
	assert.Equal(t, "Fondos insuficientes", res.ErrorMessage)
	assert.Nil(t, res.TotalCharged)
}

func TestSubmit_UnknownStatusIsErrorWithFallbackMessage(t *testing.T) {
	f := newFixture(TransactionResponse{Status: "PENDING"}, nil)
	f.o.Add(jersey)

	out, err := f.o.Submit(context.Background(), ana, card)

	assert.Error(t, err)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Equal(t, msgNotApproved, out.Message)
	assert.Equal(t, StatusError, f.o.Result().Status)
	assert.False(t, f.o.Cart().Empty())
}

func TestSubmit_ErrorFieldUsedWhenNoMessage(t *testing.T) {
	f := newFixture(TransactionResponse{Status: "ERROR", Error: "card expired"}, nil)
	f.o.Add(jersey)

	out, _ := f.o.Submit(context.Background(), ana, card)
	assert.Equal(t, "card expired", out.Message)
}

func TestSubmit_TransportErrorPrefersServerMessage(t *testing.T) {
	f := newFixture(TransactionResponse{}, serverErr{msg: "gateway timeout talking to acquirer"})
	f.o.Add(jersey)

	out, err := f.o.Submit(context.Background(), ana, card)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "gateway timeout talking to acquirer", te.Message)
	assert.Equal(t, "gateway timeout talking to acquirer", out.Message)
	assert.Equal(t, StatusError, f.o.Result().Status)
	assert.False(t, f.o.Cart().Empty())
}

func TestSubmit_TransportErrorWithoutServerMessage(t *testing.T) {
	f := newFixture(TransactionResponse{}, errors.New("connection refused"))
	f.o.Add(jersey)

	_, err := f.o.Submit(context.Background(), ana, card)
	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, "connection refused", f.o.Result().ErrorMessage)
}

func TestSubmit_ResolutionFailureStopsBeforeTransaction(t *testing.T) {
	f := newFixture(approved(), nil)
	f.resolver.err = customer.ErrResolution
	f.o.Add(jersey)

	out, err := f.o.Submit(context.Background(), ana, card)

	assert.ErrorIs(t, err, customer.ErrResolution)
	assert.Empty(t, f.tx.requests)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Equal(t, "customer id not obtained", f.o.Result().ErrorMessage)
	assert.Equal(t, StatusError, f.o.Result().Status)
}

func TestSubmit_RejectsWhileLoading(t *testing.T) {
	f := newFixture(approved(), nil)
	f.tx.entered = make(chan struct{})
	f.tx.release = make(chan struct{})
	f.o.Add(jersey)

	done := make(chan error, 1)
	go func() {
		_, err := f.o.Submit(context.Background(), ana, card)
		done <- err
	}()
	<-f.tx.entered

	assert.True(t, f.o.Result().Loading())
	_, err := f.o.Submit(context.Background(), ana, card)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	f.o.Reset()
	assert.True(t, f.o.Result().Loading(), "reset does not interrupt a running checkout")

	close(f.tx.release)
	require.NoError(t, <-done)
	assert.Equal(t, StatusApproved, f.o.Result().Status)
	assert.Equal(t, 1, f.resolver.calls)
}

func TestSubmit_RetryAfterDecline(t *testing.T) {
	f := newFixture(TransactionResponse{Status: "DECLINED"}, nil)
	f.o.Add(jersey)

	_, err := f.o.Submit(context.Background(), ana, card)
	require.Error(t, err)

	f.tx.resp = approved()
	_, err = f.o.Submit(context.Background(), ana, card)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, f.o.Result().Status)
	assert.Len(t, f.tx.requests, 2)
}

func TestReset(t *testing.T) {
	f := newFixture(approved(), nil)
	f.o.Add(jersey)
	_, err := f.o.Submit(context.Background(), ana, card)
	require.NoError(t, err)

	f.o.Add(jersey)
	_, err = f.o.Submit(context.Background(), ana, card)
	assert.ErrorIs(t, err, ErrResultNotReset)

	f.o.Reset()
	res := f.o.Result()
	assert.Equal(t, Result{Status: StatusIdle}, res)
	assert.Equal(t, 1, f.o.Cart().Len(), "reset leaves the cart alone")
}

func TestTotalsFollowCart(t *testing.T) {
	f := newFixture(approved(), nil)
	assert.Equal(t, 7000.0, f.o.Totals().Total)

	f.o.Add(jersey)
	f.o.Increment(jersey.ID)
	assert.Equal(t, 107000.0, f.o.Totals().Total)

	f.o.Decrement(jersey.ID)
	assert.Equal(t, 57000.0, f.o.Totals().Total)

	f.o.Remove(jersey.ID)
	assert.Equal(t, 7000.0, f.o.Totals().Total)

	f.o.Add(jersey)
	f.o.Clear()
	assert.True(t, f.o.Cart().Empty())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusIdle, StatusLoading))
	assert.True(t, CanTransition(StatusLoading, StatusApproved))
	assert.True(t, CanTransition(StatusDeclined, StatusLoading))
	assert.False(t, CanTransition(StatusApproved, StatusLoading))
	assert.False(t, CanTransition(StatusLoading, StatusIdle))
	assert.False(t, CanTransition(StatusIdle, StatusApproved))
}
