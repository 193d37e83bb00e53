package agents

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strings"

	"marketplace/pkg/errors"
)

// Fields is a decoded reply object keyed by field name
type Fields map[string]json.RawMessage

// DecodeFields extracts and decodes the JSON object carried by a model reply
func DecodeFields(raw string) (Fields, error) {
	var fields Fields
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &fields); err != nil {
		return nil, &errors.ParseError{Message: "invalid JSON response", Err: err}
	}
	if fields == nil {
		return nil, errors.NewParseError("", "response is not a JSON object")
	}
	return fields, nil
}

// Require fails on the first name absent from the object
func (f Fields) Require(names ...string) error {
	for _, name := range names {
		if _, ok := f[name]; !ok {
			return errors.NewParseError(name, "missing required field in response")
		}
	}
	return nil
}

// Text returns a field that must be a JSON string
func (f Fields) Text(name string) (string, error) {
	var s string
	if err := json.Unmarshal(f[name], &s); err != nil {
		return "", &errors.ParseError{Field: name, Message: "must be a string", Err: err}
	}
	return s, nil
}

// Number returns a field that must be a finite JSON number
func (f Fields) Number(name string) (float64, error) {
	return number(name, f[name])
}

// Probability returns a numeric field constrained to [0, 1]
func (f Fields) Probability(name string) (float64, error) {
	v, err := f.Number(name)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 1 {
		return 0, errors.NewParseError(name, "must be between 0 and 1")
	}
	return v, nil
}

// Enum returns a string field that must be one of allowed
func (f Fields) Enum(name string, allowed ...string) (string, error) {
	s, err := f.Text(name)
	if err != nil {
		return "", err
	}
	if !slices.Contains(allowed, s) {
		return "", errors.NewParseError(name, "must be one of: "+strings.Join(allowed, ", "))
	}
	return s, nil
}

// Object decodes a nested object field
func (f Fields) Object(name string) (Fields, error) {
	var nested Fields
	if err := json.Unmarshal(f[name], &nested); err != nil || nested == nil {
		return nil, errors.NewParseError(name, "must be an object")
	}
	return nested, nil
}

// StringList returns a list field as strings. A scalar is wrapped in a
// single-element list and non-string elements keep their JSON text.
func (f Fields) StringList(name string) []string {
	raw := bytes.TrimSpace(f[name])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []string{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{scalarText(raw)}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, scalarText(item))
	}
	return out
}

func number(name string, raw json.RawMessage) (float64, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, errors.NewParseError(name, "must be a number")
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, &errors.ParseError{Field: name, Message: "must be a number", Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewParseError(name, "must be finite")
	}
	return v, nil
}

func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
