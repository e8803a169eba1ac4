package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxmcp/logx"
	"wxmcp/protocol"
	"wxmcp/server"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	r := server.NewRegistry()
	require.NoError(t, r.Register(greetDef()))
	return server.New("test-server", r, server.WithLogger(logx.NopLogger{}))
}

func handle(t *testing.T, s *server.Server, raw string) *protocol.JSONRPCResponse {
	t.Helper()
	data := s.HandleMessage(context.Background(), []byte(raw))
	require.NotNil(t, data, "expected a response for: %s", raw)
	var resp protocol.JSONRPCResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return &resp
}

func TestHandleInitialize(t *testing.T) {
	s := newTestServer(t)
	raw := fmt.Sprintf(`{"jsonrpc":"2.0","id":"1","method":"initialize","params":{"protocolVersion":%q,"capabilities":{},"clientInfo":{"name":"test","version":"0.0.1"}}}`,
		protocol.CurrentProtocolVersion)

	resp := handle(t, s, raw)
	require.Nil(t, resp.Error)

	var result protocol.InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, protocol.CurrentProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "test-server", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)
}

func TestHandleInitializeUnknownVersionAnswersOwn(t *testing.T) {
	s := newTestServer(t)
	raw := `{"jsonrpc":"2.0","id":"1","method":"initialize","params":{"protocolVersion":"1999-01-01","capabilities":{},"clientInfo":{"name":"test","version":"0.0.1"}}}`

	resp := handle(t, s, raw)
	require.Nil(t, resp.Error)

	var result protocol.InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, protocol.CurrentProtocolVersion, result.ProtocolVersion)
}

func TestHandleInitializedNotificationHasNoReply(t *testing.T) {
	s := newTestServer(t)
	data := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.Nil(t, data)
}

func TestHandleListTools(t *testing.T) {
	s := newTestServer(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":"2","method":"tools/list"}`)
	require.Nil(t, resp.Error)

	var result protocol.ListToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "greet", result.Tools[0].Name)
}

func TestHandleCallTool(t *testing.T) {
	s := newTestServer(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":"3","method":"tools/call","params":{"name":"greet","arguments":{"name":"World"}}}`)
	require.Nil(t, resp.Error)

	var result protocol.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Content, 1)
	assert.False(t, result.IsError)
	assert.Equal(t, "Hello, World!", result.Content[0].(protocol.TextContent).Text)
}

func TestHandleCallToolBadArgsIsErrorResult(t *testing.T) {
	s := newTestServer(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":"4","method":"tools/call","params":{"name":"greet","arguments":{}}}`)
	require.Nil(t, resp.Error, "argument problems must not be protocol errors")

	var result protocol.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].(protocol.TextContent).Text, "missing required argument")
}

func TestHandleCallToolUnknownName(t *testing.T) {
	s := newTestServer(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":"5","method":"tools/call","params":{"name":"missing","arguments":{}}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeInvalidParams, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "missing")
	assert.Equal(t, "5", resp.ID)
}

func TestHandlePing(t *testing.T) {
	s := newTestServer(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":"6","method":"ping"}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{}`, string(resp.Result))
}

func TestHandleUnknownMethod(t *testing.T) {
	s := newTestServer(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":"7","method":"resources/list"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeMethodNotFound, resp.Error.Code)
}

func TestHandleParseError(t *testing.T) {
	s := newTestServer(t)
	resp := handle(t, s, `{not json`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrorCodeParseError, resp.Error.Code)
	assert.Nil(t, resp.ID)
}

func TestHandleResponseShapedMessageIgnored(t *testing.T) {
	s := newTestServer(t)
	data := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":"9","result":{}}`))
	assert.Nil(t, data)
}
