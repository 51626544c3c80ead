package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Unavailable is the display text for attributes no provider could supply
const Unavailable = "Unavailable"

// State records where a reconciled value came from
type State int

const (
	// Missing means neither provider defined the key
	Missing State = iota
	// Null means a provider defined the key with an explicit null
	Null
	// Present means a provider supplied a value
	Present
)

func (s State) String() string {
	switch s {
	case Null:
		return "null"
	case Present:
		return "present"
	default:
		return "missing"
	}
}

// Value is an optional scalar attribute. Non-present values keep the
// field's default text so they can be rendered, but State still tells
// an unknown source apart from an unknown value.
type Value struct {
	text  string
	state State
}

// PresentValue returns a value supplied by a provider
func PresentValue(text string) Value {
	return Value{text: text, state: Present}
}

// NullValue returns a value a provider explicitly left null
func NullValue(def string) Value {
	return Value{text: def, state: Null}
}

// MissingValue returns a value neither provider defined
func MissingValue(def string) Value {
	return Value{text: def, state: Missing}
}

// State returns the provenance of the value
func (v Value) State() State {
	return v.state
}

// Get returns the provider-supplied text and whether there was one
func (v Value) Get() (string, bool) {
	if v.state != Present {
		return "", false
	}
	return v.text, true
}

// String returns the supplied text, or the field default when absent
func (v Value) String() string {
	return v.text
}

// Or returns the supplied text, or def when the value is not present
func (v Value) Or(def string) string {
	if v.state != Present || v.text == "" {
		return def
	}
	return v.text
}

// Int parses the value as an integer
func (v Value) Int() (int, bool) {
	text, ok := v.Get()
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Date parses the value as a YYYY-MM-DD date
func (v Value) Date() (time.Time, bool) {
	text, ok := v.Get()
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MarshalJSON encodes present values as strings and everything else as null
func (v Value) MarshalJSON() ([]byte, error) {
	if v.state != Present {
		return []byte("null"), nil
	}
	return json.Marshal(v.text)
}
