package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effective-security/toolgate/schema"
)

func Test_TranslateJSON_Object(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {
			"a": {"type": "string", "description": "the a"},
			"b": {"type": "integer"}
		},
		"required": ["a"]
	}`)

	typ := schema.TranslateJSON(raw)
	require.Equal(t, schema.KindObject, typ.Kind)
	require.NotNil(t, typ.Fields)
	assert.Equal(t, 2, typ.Fields.Len())

	a, ok := typ.Fields.Get("a")
	require.True(t, ok)
	assert.Equal(t, schema.KindString, a.Type.Kind)
	assert.Equal(t, "the a", a.Type.Description)
	assert.True(t, a.Required)

	b, ok := typ.Fields.Get("b")
	require.True(t, ok)
	assert.Equal(t, schema.KindInteger, b.Type.Kind)
	assert.False(t, b.Required)

	assert.NoError(t, typ.Validate(map[string]any{"a": "hi"}))
	assert.NoError(t, typ.Validate(map[string]any{"a": "hi", "b": float64(3)}))
	assert.EqualError(t, typ.Validate(map[string]any{}), `missing required property "a"`)
	assert.EqualError(t, typ.Validate(map[string]any{"a": 1}), `property "a": expected string, got int`)
	assert.EqualError(t, typ.Validate(map[string]any{"a": "hi", "b": 1.5}), `property "b": expected integer, got float64`)
	assert.Error(t, typ.Validate("not an object"))
}

func Test_TranslateJSON_PropertyOrder(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {
			"z": {"type": "string"},
			"a": {"type": "string"},
			"m": {"type": "string"}
		}
	}`)

	typ := schema.TranslateJSON(raw)
	var order []string
	for pair := typ.Fields.Oldest(); pair != nil; pair = pair.Next() {
		order = append(order, pair.Key)
	}
	// declaration order, not lexical order
	assert.Equal(t, []string{"z", "a", "m"}, order)
}

func Test_TranslateJSON_Array(t *testing.T) {
	typ := schema.TranslateJSON(json.RawMessage(`{"type":"array","items":{"type":"number"}}`))
	require.Equal(t, schema.KindArray, typ.Kind)
	require.NotNil(t, typ.Items)
	assert.Equal(t, schema.KindNumber, typ.Items.Kind)

	assert.NoError(t, typ.Validate([]any{float64(1), float64(2.5)}))
	assert.EqualError(t, typ.Validate([]any{"x"}), `item 0: expected number, got string`)

	// items absent falls back to a permissive element type
	typ = schema.TranslateJSON(json.RawMessage(`{"type":"array"}`))
	require.Equal(t, schema.KindArray, typ.Kind)
	assert.Equal(t, schema.KindAny, typ.Items.Kind)
	assert.NoError(t, typ.Validate([]any{"x", float64(1), true}))
}

func Test_TranslateJSON_Permissive(t *testing.T) {
	// unknown type
	typ := schema.TranslateJSON(json.RawMessage(`{"type":"frobnicate"}`))
	assert.Equal(t, schema.KindAny, typ.Kind)
	assert.NoError(t, typ.Validate(map[string]any{"anything": "goes"}))

	// missing type
	typ = schema.TranslateJSON(json.RawMessage(`{"description":"untyped"}`))
	assert.Equal(t, schema.KindAny, typ.Kind)

	// malformed JSON never raises
	typ = schema.TranslateJSON(json.RawMessage(`{not json`))
	assert.Equal(t, schema.KindAny, typ.Kind)

	// empty schema
	typ = schema.TranslateJSON(nil)
	assert.Equal(t, schema.KindAny, typ.Kind)

	// object without properties accepts any object shape
	typ = schema.TranslateJSON(json.RawMessage(`{"type":"object"}`))
	require.Equal(t, schema.KindObject, typ.Kind)
	assert.NoError(t, typ.Validate(map[string]any{"a": 1}))
	assert.NoError(t, typ.Validate(map[string]any{}))
}

func Test_Translate_Scalars(t *testing.T) {
	tcases := []struct {
		raw  string
		kind schema.Kind
		ok   any
		bad  any
	}{
		{`{"type":"string"}`, schema.KindString, "s", 1},
		{`{"type":"number"}`, schema.KindNumber, 1.5, "s"},
		{`{"type":"integer"}`, schema.KindInteger, float64(2), 2.5},
		{`{"type":"boolean"}`, schema.KindBoolean, true, "true"},
	}
	for _, tc := range tcases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			typ := schema.TranslateJSON(json.RawMessage(tc.raw))
			require.Equal(t, tc.kind, typ.Kind)
			assert.NoError(t, typ.Validate(tc.ok))
			assert.Error(t, typ.Validate(tc.bad))
		})
	}
}
