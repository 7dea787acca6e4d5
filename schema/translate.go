package schema

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolgate", "schema")

// Kind is the structural kind of a translated type.
type Kind int

const (
	// KindAny accepts any value, used as the fallback for unknown or
	// malformed wire schemas.
	KindAny Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindInteger
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	default:
		return "any"
	}
}

// Field is a single property of an object type.
type Field struct {
	Type     *Type
	Required bool
}

// Type is a structural validator built from a wire-level tool
// parameter schema. Object properties keep their declaration order.
type Type struct {
	Kind        Kind
	Description string
	Fields      *orderedmap.OrderedMap[string, *Field]
	Items       *Type
}

// Translate converts a wire-level JSON schema into a Type.
// Translation never fails: anything it does not understand degrades to
// a permissive KindAny, so a misbehaving server cannot block tool
// discovery with a bad parameter description.
func Translate(s *jsonschema.Schema) *Type {
	if s == nil {
		return &Type{Kind: KindAny}
	}

	t := &Type{Description: s.Description}
	switch s.Type {
	case "object":
		t.Kind = KindObject
		t.Fields = orderedmap.New[string, *Field]()
		required := make(map[string]bool, len(s.Required))
		for _, name := range s.Required {
			required[name] = true
		}
		if s.Properties != nil {
			for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
				t.Fields.Set(pair.Key, &Field{
					Type:     Translate(pair.Value),
					Required: required[pair.Key],
				})
			}
		}
	case "string":
		t.Kind = KindString
	case "number":
		t.Kind = KindNumber
	case "integer":
		t.Kind = KindInteger
	case "boolean":
		t.Kind = KindBoolean
	case "array":
		t.Kind = KindArray
		if s.Items != nil {
			t.Items = Translate(s.Items)
		} else {
			t.Items = &Type{Kind: KindAny}
		}
	default:
		t.Kind = KindAny
	}
	return t
}

// TranslateJSON parses a raw wire schema and translates it.
// Malformed JSON degrades to KindAny.
func TranslateJSON(raw json.RawMessage) *Type {
	if len(raw) == 0 {
		return &Type{Kind: KindAny}
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		logger.KV(xlog.DEBUG, "reason", "unmarshal_schema", "err", err.Error())
		return &Type{Kind: KindAny}
	}
	return Translate(&s)
}

// Validate checks a decoded JSON value against the type.
func (t *Type) Validate(v any) error {
	switch t.Kind {
	case KindAny:
		return nil
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return errors.Newf("expected object, got %T", v)
		}
		if t.Fields == nil {
			return nil
		}
		for pair := t.Fields.Oldest(); pair != nil; pair = pair.Next() {
			val, present := obj[pair.Key]
			if !present {
				if pair.Value.Required {
					return errors.Newf("missing required property %q", pair.Key)
				}
				continue
			}
			if err := pair.Value.Type.Validate(val); err != nil {
				return errors.WithMessagef(err, "property %q", pair.Key)
			}
		}
		return nil
	case KindArray:
		items, ok := v.([]any)
		if !ok {
			return errors.Newf("expected array, got %T", v)
		}
		for i, item := range items {
			if err := t.Items.Validate(item); err != nil {
				return errors.WithMessagef(err, "item %d", i)
			}
		}
		return nil
	case KindString:
		if _, ok := v.(string); !ok {
			return errors.Newf("expected string, got %T", v)
		}
		return nil
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return errors.Newf("expected boolean, got %T", v)
		}
		return nil
	case KindNumber:
		if !isNumber(v) {
			return errors.Newf("expected number, got %T", v)
		}
		return nil
	case KindInteger:
		if !isInteger(v) {
			return errors.Newf("expected integer, got %T", v)
		}
		return nil
	}
	return nil
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	case json.Number:
		return true
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64, uint, uint32, uint64:
		return true
	case float64:
		return n == float64(int64(n))
	case float32:
		return n == float32(int32(n))
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}
