package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/pkg/errors"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain object", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced with info string", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fenced without info string", raw: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around object", raw: "Sure! Here you go: {\"a\":{\"b\":2}} Hope it helps {x}", want: `{"a":{"b":2}}`},
		{name: "braces inside strings", raw: `{"reason":"uses } and { chars","ok":true} trailing`, want: `{"reason":"uses } and { chars","ok":true}`},
		{name: "escaped quote in string", raw: `{"q":"say \"}\" now"}`, want: `{"q":"say \"}\" now"}`},
		{name: "extra closing brace ignored", raw: `{"a": {"b": 1} }}`, want: `{"a": {"b": 1} }`},
		{name: "unterminated object", raw: `noise {"a": 1`, want: `{"a": 1`},
		{name: "no braces", raw: "  nothing here  ", want: "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.raw))
		})
	}
}

func TestDecodeFields(t *testing.T) {
	fields, err := DecodeFields("```json\n{\"status\":\"safe\",\"confidence\":0.9,\"items\":\"one\",\"list\":[\"a\",2,true],\"nested\":{\"min\":1}}\n```")
	require.NoError(t, err)

	require.NoError(t, fields.Require("status", "confidence"))

	status, err := fields.Enum("status", "safe", "abusive")
	require.NoError(t, err)
	assert.Equal(t, "safe", status)

	conf, err := fields.Probability("confidence")
	require.NoError(t, err)
	assert.Equal(t, 0.9, conf)

	assert.Equal(t, []string{"one"}, fields.StringList("items"))
	assert.Equal(t, []string{"a", "2", "true"}, fields.StringList("list"))
	assert.Equal(t, []string{}, fields.StringList("absent"))

	nested, err := fields.Object("nested")
	require.NoError(t, err)
	v, err := nested.Number("min")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestDecodeFields_Errors(t *testing.T) {
	_, err := DecodeFields("not json")
	assert.True(t, errors.Is(err, errors.ErrParse))

	_, err = DecodeFields("[1, 2]")
	assert.True(t, errors.Is(err, errors.ErrParse))

	fields, err := DecodeFields(`{"status":"maybe","confidence":1.5,"score":"high","blank":null}`)
	require.NoError(t, err)

	tests := []struct {
		name  string
		field string
		call  func() error
	}{
		{name: "missing", field: "reason", call: func() error { return fields.Require("status", "reason") }},
		{name: "enum", field: "status", call: func() error { _, err := fields.Enum("status", "safe"); return err }},
		{name: "range", field: "confidence", call: func() error { _, err := fields.Probability("confidence"); return err }},
		{name: "not a number", field: "score", call: func() error { _, err := fields.Number("score"); return err }},
		{name: "null number", field: "blank", call: func() error { _, err := fields.Number("blank"); return err }},
		{name: "not an object", field: "status", call: func() error { _, err := fields.Object("status"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var perr *errors.ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}
