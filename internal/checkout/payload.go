package checkout

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/ariefcatur/go-storefront-checkout/internal/cart"
	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
)

const StatusTextApproved = "APPROVED"

// CardData is what the shopper typed into the payment form. It is only ever
// copied into the outgoing request.
type CardData struct {
	Number       string `json:"number"`
	ExpMonth     Text   `json:"exp_month"`
	ExpYear      Text   `json:"exp_year"`
	CVC          Text   `json:"cvc"`
	CardHolder   string `json:"card_holder"`
	Installments Text   `json:"installments"`
}

func (CardData) String() string { return "CardData{redacted}" }

func (c CardData) GoString() string { return c.String() }

type CreditCard struct {
	Number     string `json:"number"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CVC        string `json:"cvc"`
	CardHolder string `json:"card_holder"`
}

type CheckoutInfo struct {
	CreditCard   CreditCard `json:"credit_card"`
	Installments int        `json:"installments"`
}

type TransactionProduct struct {
	ProductID ident.ID `json:"productId"`
	Quantity  int      `json:"quantity"`
}

type TransactionInfo struct {
	CustomerID          ident.ID             `json:"customerId"`
	TransactionProducts []TransactionProduct `json:"transactionProducts"`
}

// TransactionRequest is the body of POST /transactions/checkout.
type TransactionRequest struct {
	Checkout    CheckoutInfo    `json:"checkout"`
	Transaction TransactionInfo `json:"transaction"`
}

func (TransactionRequest) String() string { return "TransactionRequest{redacted}" }

// TransactionResponse is the unwrapped answer of the transaction API.
type TransactionResponse struct {
	Status        Text     `json:"status"`
	ID            ident.ID `json:"id"`
	TransactionID ident.ID `json:"transactionId"`
	DeliveryID    ident.ID `json:"deliveryId"`
	Message       Text     `json:"message"`
	Error         Text     `json:"error"`
}

func (r TransactionResponse) Approved() bool { return r.Status == StatusTextApproved }

// Identifier prefers id over transactionId.
func (r TransactionResponse) Identifier() ident.ID {
	if r.ID != (ident.ID{}) {
		return r.ID
	}
	return r.TransactionID
}

// Reason is the server-provided explanation, if any.
func (r TransactionResponse) Reason() string {
	if r.Message != "" {
		return string(r.Message)
	}
	return string(r.Error)
}

// BuildPayload shapes the transaction request for the lines of c.
func BuildPayload(c cart.Cart, customerID ident.ID, card CardData) TransactionRequest {
	lines := c.Lines()
	products := make([]TransactionProduct, 0, len(lines))
	for _, l := range lines {
		products = append(products, TransactionProduct{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return TransactionRequest{
		Checkout: CheckoutInfo{
			CreditCard: CreditCard{
				Number:     StripSpaces(card.Number),
				ExpMonth:   PadTwo(string(card.ExpMonth)),
				ExpYear:    PadTwo(string(card.ExpYear)),
				CVC:        string(card.CVC),
				CardHolder: card.CardHolder,
			},
			Installments: Installments(string(card.Installments)),
		},
		Transaction: TransactionInfo{
			CustomerID:          customerID,
			TransactionProducts: products,
		},
	}
}

func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// PadTwo left-pads s with zeros to two characters; longer values are kept.
func PadTwo(s string) string {
	if n := len([]rune(s)); n < 2 {
		return strings.Repeat("0", 2-n) + s
	}
	return s
}

// Installments reads a positive installment count, defaulting to 1.
func Installments(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || f < 1 {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
