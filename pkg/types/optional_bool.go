package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// OptionalBool tracks whether a boolean field was present in a request and
// coerces it leniently: only JSON true or the string "true" read as true.
// Anything else that is present (false, "false", "yes", 1, "") reads as false.
type OptionalBool struct {
	Valid bool
	Value bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	o.Valid = true
	o.Value = false

	if bytes.Equal(trimmed, []byte("true")) {
		o.Value = true
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		o.Value = s == "true"
	}
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler for form values.
func (o *OptionalBool) UnmarshalText(text []byte) error {
	o.Valid = true
	o.Value = strings.TrimSpace(string(text)) == "true"
	return nil
}

// Ptr returns nil when the field was absent, otherwise a pointer to its value.
func (o OptionalBool) Ptr() *bool {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}
