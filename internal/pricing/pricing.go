// Package pricing derives order totals from a cart.
package pricing

import (
	"github.com/ariefcatur/go-storefront-checkout/internal/cart"
	"github.com/shopspring/decimal"
)

// Policy carries the flat fees added to every order regardless of its
// contents or destination.
type Policy struct {
	BaseFee     decimal.Decimal
	DeliveryFee decimal.Decimal
}

func NewPolicy(baseFee, deliveryFee float64) Policy {
	return Policy{
		BaseFee:     decimal.NewFromFloat(baseFee),
		DeliveryFee: decimal.NewFromFloat(deliveryFee),
	}
}

type Snapshot struct {
	Subtotal    float64 `json:"subtotal"`
	BaseFee     float64 `json:"baseFee"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

// ComputeTotals is a pure function of the cart contents.
func (p Policy) ComputeTotals(c cart.Cart) Snapshot {
	subtotal := decimal.Zero
	for _, l := range c.Lines() {
		subtotal = subtotal.Add(l.Price.Amount.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	total := subtotal.Add(p.BaseFee).Add(p.DeliveryFee)
	return Snapshot{
		Subtotal:    subtotal.InexactFloat64(),
		BaseFee:     p.BaseFee.InexactFloat64(),
		DeliveryFee: p.DeliveryFee.InexactFloat64(),
		Total:       total.InexactFloat64(),
	}
}
