// Package ident normalizes identifiers handed out by the storefront backend,
// which may be JSON numbers or JSON strings depending on the resource.
package ident

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID keeps the identifier text together with the JSON kind it arrived as, so
// it can be echoed back to the backend in the same form. The zero value is
// the absent id.
type ID struct {
	value   string
	numeric bool
}

func String(s string) ID { return ID{value: s} }

func Int(n int64) ID { return ID{value: strconv.FormatInt(n, 10), numeric: true} }

// Parse reads an id from free text (URL params, form values). Anything that
// reads as a number is numeric, mirroring how the catalog serializes ids.
func Parse(s string) ID {
	s = strings.TrimSpace(s)
	if c, ok := canonicalNumber(s); ok {
		return ID{value: c, numeric: true}
	}
	return ID{value: s}
}

func (id ID) String() string { return id.value }

func (id ID) Numeric() bool { return id.numeric }

// Equal compares ids by canonical text regardless of JSON kind, so "42" and
// 42 name the same product.
func (id ID) Equal(other ID) bool { return id.key() == other.key() }

func (id ID) key() string {
	if c, ok := canonicalNumber(strings.TrimSpace(id.value)); ok {
		return c
	}
	return id.value
}

// IsZero reports ids that do not identify anything: missing, "" or 0.
func (id ID) IsZero() bool {
	if id.value == "" {
		return true
	}
	if id.numeric {
		f, err := strconv.ParseFloat(id.value, 64)
		return err == nil && f == 0
	}
	return false
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.value == "" && !id.numeric {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ID{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID{value: s}
		return nil
	}
	c, ok := canonicalNumber(string(b))
	if !ok {
		return fmt.Errorf("ident: unsupported id %s", b)
	}
	*id = ID{value: c, numeric: true}
	return nil
}

func canonicalNumber(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || strings.ContainsAny(s, "xXpP_") || strings.EqualFold(strings.TrimLeft(s, "+-"), "inf") ||
		strings.EqualFold(strings.TrimLeft(s, "+-"), "infinity") || strings.EqualFold(s, "nan") {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
