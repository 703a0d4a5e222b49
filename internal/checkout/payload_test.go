package checkout

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ariefcatur/go-storefront-checkout/internal/cart"
	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayload_WireShape(t *testing.T) {
	c := cart.New(
		cart.Line{ProductID: ident.Int(1), Quantity: 2},
		cart.Line{ProductID: ident.String("sku-7"), Quantity: 1},
	)
	req := BuildPayload(c, ident.String("cus_1"), CardData{
		Number:       " 4242 4242\t4242 4242 ",
		ExpMonth:     "1",
		ExpYear:      "9",
		CVC:          "123",
		CardHolder:   "ANA GOMEZ",
		Installments: "3",
	})

	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"checkout": {
			"credit_card": {"number": "4242424242424242", "exp_month": "01", "exp_year": "09", "cvc": "123", "card_holder": "ANA GOMEZ"},
			"installments": 3
		},
		"transaction": {
			"customerId": "cus_1",
			"transactionProducts": [{"productId": 1, "quantity": 2}, {"productId": "sku-7", "quantity": 1}]
		}
	}`, string(out))
}

func TestCardData_AcceptsNumbersFromForms(t *testing.T) {
	var cd CardData
	require.NoError(t, json.Unmarshal([]byte(`{"number": "4242", "exp_month": 3, "exp_year": "27", "cvc": 123, "card_holder": "X", "installments": null}`), &cd))
	assert.Equal(t, Text("3"), cd.ExpMonth)
	assert.Equal(t, Text("123"), cd.CVC)
	assert.Equal(t, Text(""), cd.Installments)
}

func TestCardData_NeverPrinted(t *testing.T) {
	s := fmt.Sprintf("%v %+v %#v", card, card, card)
	assert.NotContains(t, s, "4242")
	assert.NotContains(t, s, "123")
}

func TestPadTwo(t *testing.T) {
	assert.Equal(t, "01", PadTwo("1"))
	assert.Equal(t, "00", PadTwo(""))
	assert.Equal(t, "12", PadTwo("12"))
	assert.Equal(t, "2029", PadTwo("2029"))
}

func TestInstallments(t *testing.T) {
	tests := map[string]int{
		"":    1,
		"0":   1,
		"-2":  1,
		"abc": 1,
		"1":   1,
		"6":   6,
		" 12": 12,
		"2.7": 2,
	}
	for in, want := range tests {
		assert.Equal(t, want, Installments(in), "installments %q", in)
	}
}

func TestTransactionResponse(t *testing.T) {
	var r TransactionResponse
	require.NoError(t, json.Unmarshal([]byte(`{"status": "DECLINED", "transactionId": 12, "error": {"code": "E1"}}`), &r))
	assert.False(t, r.Approved())
	assert.Equal(t, ident.Int(12), r.Identifier())
	assert.Equal(t, `{"code": "E1"}`, r.Reason())
}
