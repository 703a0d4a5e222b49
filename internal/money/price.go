// Package money turns the loosely typed prices served by the catalog into
// exact amounts.
package money

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a catalog price in any of the shapes the backend sends: a bare
// number, a numeric string, or an {amount, currency} object.
type Price struct {
	Amount     decimal.Decimal
	Currency   string
	Structured bool
}

func FromInt(n int64) Price { return Price{Amount: decimal.NewFromInt(n)} }

func FromFloat(f float64) Price { return Price{Amount: Decimal(f)} }

// AmountOf extracts the numeric amount of a price. nil yields 0, a value
// exposing an "amount" field yields that field, anything else is coerced
// itself. Values that do not coerce to a finite number yield 0.
func AmountOf(price any) float64 {
	return Decimal(price).InexactFloat64()
}

// Decimal is AmountOf without the float conversion.
func Decimal(price any) decimal.Decimal {
	switch p := price.(type) {
	case nil:
		return decimal.Zero
	case Price:
		return p.Amount
	case *Price:
		if p == nil {
			return decimal.Zero
		}
		return p.Amount
	case map[string]any:
		amount, ok := p["amount"]
		if !ok {
			return decimal.Zero
		}
		return scalar(amount)
	}
	if amount, ok := amountField(reflect.ValueOf(price)); ok {
		return scalar(amount)
	}
	return scalar(price)
}

// amountField finds "amount" in string-keyed maps of any element type and
// the Amount field of structs, through pointers.
func amountField(v reflect.Value) (any, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, true
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		e := v.MapIndex(reflect.ValueOf("amount").Convert(v.Type().Key()))
		if !e.IsValid() {
			return nil, true
		}
		return e.Interface(), true
	case reflect.Struct:
		f := v.FieldByName("Amount")
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

func scalar(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case bool:
		if x {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	case decimal.Decimal:
		return x
	case json.Number:
		return parse(string(x))
	case string:
		return parse(x)
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	}

	// remaining integer and float kinds, named types included
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return parse(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float())
	case reflect.String:
		return parse(rv.String())
	case reflect.Bool:
		return scalar(rv.Bool())
	}
	return decimal.Zero
}

func parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(strings.TrimPrefix(s, "+")); err == nil {
		return d
	}
	return decimal.NewFromFloat(f)
}

func finite(f float64) decimal.Decimal {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func (p *Price) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*p = Price{Amount: Decimal(raw)}
	if m, ok := raw.(map[string]any); ok {
		p.Structured = true
		if c, ok := m["currency"].(string); ok {
			p.Currency = c
		}
	}
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	amount := json.Number(p.Amount.String())
	if !p.Structured {
		return json.Marshal(amount)
	}
	return json.Marshal(struct {
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency,omitempty"`
	}{amount, p.Currency})
}
