package checkout

import (
	"bytes"
	"encoding/json"
)

// Text accepts a JSON string, number or null. Anything else keeps its raw
// JSON text, so free-form server fields never fail a decode.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return string(t) }
