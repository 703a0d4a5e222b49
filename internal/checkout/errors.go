package checkout

import (
	"errors"
	"fmt"
)

const (
	msgGeneric     = "error processing payment"
	msgNotApproved = "the transaction was not approved, please try again"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrResultNotReset     = errors.New("previous checkout result must be reset first")
)

// DeclinedError is a transaction the backend answered without approving.
// The cart is kept so the shopper can retry.
type DeclinedError struct {
	Status  string
	Message string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("transaction %s: %s", e.Status, e.Message)
}

// TransportError is a transaction submission that never produced a usable
// answer.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string { return e.Message }

func (e *TransportError) Unwrap() error { return e.Err }

// messageOf picks the best message to show for err: one supplied by the
// server, then the error text, then fallback.
func messageOf(err error, fallback string) string {
	var sm interface{ ServerMessage() string }
	if errors.As(err, &sm) {
		if m := sm.ServerMessage(); m != "" {
			return m
		}
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
