package tools

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"

	"github.com/effective-security/toolgate/schema"
	"github.com/effective-security/toolgate/utils"
)

// Executor runs a local tool with its decoded, validated input and
// returns a JSON-serializable result.
type Executor func(ctx context.Context, args map[string]any) (any, error)

// LocalTool is an in-process callable registered directly into the
// registry, requiring no network round-trip.
type LocalTool struct {
	name        string
	description string
	params      *jsonschema.Schema
	typ         *schema.Type
	exec        Executor
}

// NewLocalTool creates a local tool with an explicit input schema.
// A nil schema accepts any input.
func NewLocalTool(name, description string, params *jsonschema.Schema, exec Executor) *LocalTool {
	return &LocalTool{
		name:        name,
		description: description,
		params:      params,
		typ:         schema.Translate(params),
		exec:        exec,
	}
}

// NewLocalToolFor creates a local tool whose input schema is
// reflected from the Go type I.
func NewLocalToolFor[I any](name, description string, exec Executor) *LocalTool {
	return NewLocalTool(name, description, schema.New(reflect.TypeFor[I]()), exec)
}

func (t *LocalTool) Name() string {
	return t.name
}

func (t *LocalTool) Description() string {
	return t.description
}

func (t *LocalTool) Parameters() any {
	if t.params != nil {
		return t.params
	}
	return json.RawMessage(`{"type":"object"}`)
}

// Call decodes the JSON input, validates it against the schema and
// runs the executor.
func (t *LocalTool) Call(ctx context.Context, input string) (string, error) {
	args := map[string]any{}
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", errors.Wrap(err, "failed to unmarshal input")
		}
	}
	if err := t.typ.Validate(args); err != nil {
		return "", errors.WithMessagef(err, "invalid arguments for tool %q", t.name)
	}

	res, err := t.exec(ctx, args)
	if err != nil {
		return "", err
	}
	if s, ok := res.(string); ok {
		return s, nil
	}
	return utils.ToJSON(res), nil
}
