package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	// CodeParseError is the JSON-RPC 2.0 parse error code used for
	// synthetic responses built from malformed bodies.
	CodeParseError = -32700

	protocolVersion = "2024-11-05"
)

// Request is an outgoing JSON-RPC 2.0 request or, when ID is empty,
// a notification.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewRequest creates a request with a fresh UUID id.
func NewRequest(method string, params any) *Request {
	return &Request{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}
}

// NewNotification creates a fire-and-forget notification.
func NewNotification(method string) *Request {
	return &Request{
		JSONRPC: "2.0",
		Method:  method,
	}
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Response is an incoming JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

var dataPrefix = []byte("data:")

// DecodeResponse interprets a response body that is either a single
// JSON object or a sequence of newline-delimited `data: <json>`
// event-stream frames. When framed, only the last frame is the
// canonical response. Malformed bodies yield a synthetic parse-error
// response so callers always receive a uniformly shaped result.
func DecodeResponse(body []byte) *Response {
	var frame []byte
	for _, line := range bytes.Split(body, []byte("\n")) {
		if rest, ok := bytes.CutPrefix(bytes.TrimSpace(line), dataPrefix); ok {
			frame = bytes.TrimSpace(rest)
		}
	}
	if frame == nil {
		frame = bytes.TrimSpace(body)
	}

	res := new(Response)
	if err := json.Unmarshal(frame, res); err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error: &RPCError{
				Code:    CodeParseError,
				Message: "parse error: " + err.Error(),
			},
		}
	}
	return res
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      clientInfo     `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type toolsListResult struct {
	Tools []*ToolDescriptor `json:"tools"`
}

type callResult struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
