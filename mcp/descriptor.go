package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/effective-security/toolgate/schema"
	"github.com/effective-security/toolgate/utils"
)

// ToolDescriptor is the wire-level metadata of one remote tool,
// unique within its owning server's tool set but not globally.
type ToolDescriptor struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	InputSchema  json.RawMessage `json:"inputSchema,omitempty"`
	RequiresAuth bool            `json:"requiresAuth,omitempty"`

	// Server is the owning server name, set during discovery.
	Server string `json:"-"`

	typ *schema.Type
}

// Type returns the structural validator translated from InputSchema.
func (d *ToolDescriptor) Type() *schema.Type {
	return d.typ
}

// ServerTool is a discovered tool bound to its owning client, so an
// invocation carries that client's session and current access token.
type ServerTool struct {
	desc   *ToolDescriptor
	client *Client
}

func (t *ServerTool) Name() string {
	return t.desc.Name
}

func (t *ServerTool) Description() string {
	return t.desc.Description
}

func (t *ServerTool) Parameters() any {
	if len(t.desc.InputSchema) > 0 {
		return t.desc.InputSchema
	}
	return json.RawMessage(`{"type":"object"}`)
}

// Server returns the owning server name.
func (t *ServerTool) Server() string {
	return t.desc.Server
}

func (t *ServerTool) Descriptor() *ToolDescriptor {
	return t.desc
}

// Call parses the JSON input, validates it against the translated
// schema and invokes the remote tool.
func (t *ServerTool) Call(ctx context.Context, input string) (string, error) {
	args := map[string]any{}
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", errors.Wrap(err, "failed to unmarshal input")
		}
	}
	if t.desc.typ != nil {
		if err := t.desc.typ.Validate(args); err != nil {
			return "", errors.WithMessagef(err, "invalid arguments for tool %q", t.desc.Name)
		}
	}

	res, err := t.client.CallTool(ctx, t.desc.Name, args, false)
	if err != nil {
		return "", err
	}
	if s, ok := res.(string); ok {
		return s, nil
	}
	return utils.ToJSON(res), nil
}
