package mcp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effective-security/toolgate/mcp"
)

func Test_DecodeResponse_PlainJSON(t *testing.T) {
	res := mcp.DecodeResponse([]byte(`{"jsonrpc":"2.0","id":"1","result":{"ok":true}}`))
	require.Nil(t, res.Error)
	assert.JSONEq(t, `{"ok":true}`, string(res.Result))
}

func Test_DecodeResponse_EventStream_LastFrameWins(t *testing.T) {
	body := "event: message\n" +
		"data: {\"jsonrpc\":\"2.0\",\"id\":\"1\",\"result\":{\"seq\":1}}\n" +
		"\n" +
		"event: message\n" +
		"data: {\"jsonrpc\":\"2.0\",\"id\":\"1\",\"result\":{\"seq\":2}}\n"

	res := mcp.DecodeResponse([]byte(body))
	require.Nil(t, res.Error)
	assert.JSONEq(t, `{"seq":2}`, string(res.Result))
}

func Test_DecodeResponse_ErrorField(t *testing.T) {
	res := mcp.DecodeResponse([]byte(`{"jsonrpc":"2.0","id":"1","error":{"code":-32601,"message":"method not found"}}`))
	require.NotNil(t, res.Error)
	assert.Equal(t, -32601, res.Error.Code)
	assert.EqualError(t, res.Error, "rpc error -32601: method not found")
}

func Test_DecodeResponse_Malformed(t *testing.T) {
	for _, body := range []string{"", "not json at all", "data: {truncated"} {
		res := mcp.DecodeResponse([]byte(body))
		require.NotNil(t, res.Error, "body: %q", body)
		assert.Equal(t, mcp.CodeParseError, res.Error.Code)
	}
}
