package client

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wxmcp/protocol"
)

type recordedCall struct {
	Tool string
	Args map[string]interface{}
}

// fakeCaller returns a canned result (or error) for every call and records
// what it was asked.
type fakeCaller struct {
	calls  []recordedCall
	result *protocol.CallToolResult
	err    error
}

func (f *fakeCaller) CallTool(_ context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error) {
	f.calls = append(f.calls, recordedCall{Tool: name, Args: args})
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{protocol.NewTextContent("ok")},
	}, nil
}

func runREPL(t *testing.T, caller ToolCaller, input string) string {
	t.Helper()
	var out strings.Builder
	r := NewREPL(caller, strings.NewReader(input), &out)
	require.NoError(t, r.Run(context.Background()))
	return out.String()
}

func TestREPLQuitWithoutCalling(t *testing.T) {
	caller := &fakeCaller{}
	out := runREPL(t, caller, "quit\n")
	assert.Empty(t, caller.calls)
	assert.Equal(t, replPrompt, out)
}

func TestREPLQuitIsCaseInsensitive(t *testing.T) {
	caller := &fakeCaller{}
	runREPL(t, caller, "QUIT\n")
	assert.Empty(t, caller.calls)
}

func TestREPLEndOfInputExitsCleanly(t *testing.T) {
	caller := &fakeCaller{}
	runREPL(t, caller, "")
	assert.Empty(t, caller.calls)
}

func TestREPLEmptyLineReprompts(t *testing.T) {
	caller := &fakeCaller{}
	out := runREPL(t, caller, "\n\nquit\n")
	assert.Empty(t, caller.calls)
	assert.Equal(t, strings.Repeat(replPrompt, 3), out)
}

func TestREPLAlertsPassesRestOfLineAsState(t *testing.T) {
	caller := &fakeCaller{}
	out := runREPL(t, caller, "alerts CA\nquit\n")

	require.Len(t, caller.calls, 1)
	assert.Equal(t, "get_alerts", caller.calls[0].Tool)
	assert.Equal(t, map[string]interface{}{"state": "CA"}, caller.calls[0].Args)
	assert.Contains(t, out, "ok\n")
}

func TestREPLForecastParsesCoordinates(t *testing.T) {
	caller := &fakeCaller{}
	runREPL(t, caller, "forecast 37.78 -122.42\nquit\n")

	require.Len(t, caller.calls, 1)
	assert.Equal(t, "get_forecast", caller.calls[0].Tool)
	assert.Equal(t, map[string]interface{}{
		"latitude":  37.78,
		"longitude": -122.42,
	}, caller.calls[0].Args)
}

func TestREPLForecastWrongArityPrintsUsage(t *testing.T) {
	caller := &fakeCaller{}
	out := runREPL(t, caller, "forecast 37.78\nquit\n")

	assert.Empty(t, caller.calls)
	assert.Contains(t, out, "Usage: forecast <LAT> <LON>\n")
}

func TestREPLForecastBadNumberPrintsError(t *testing.T) {
	caller := &fakeCaller{}
	out := runREPL(t, caller, "forecast north west\nquit\n")

	assert.Empty(t, caller.calls)
	assert.Contains(t, out, "Error: ")
}

func TestREPLUnknownCommand(t *testing.T) {
	caller := &fakeCaller{}
	out := runREPL(t, caller, "weather please\nquit\n")

	assert.Empty(t, caller.calls)
	assert.Contains(t, out, "Unknown command. Try: alerts CA  |  forecast 37.78 -122.42\n")
}

func TestREPLCallErrorContinuesLoop(t *testing.T) {
	caller := &fakeCaller{err: errors.New("boom")}
	out := runREPL(t, caller, "alerts CA\nalerts NY\nquit\n")

	assert.Len(t, caller.calls, 2)
	assert.Equal(t, 2, strings.Count(out, "Error: boom\n"))
}

func TestREPLPrintsToolErrorResultText(t *testing.T) {
	caller := &fakeCaller{result: &protocol.CallToolResult{
		Content: []protocol.Content{protocol.NewTextContent("Unable to fetch alerts or invalid response.")},
		IsError: true,
	}}
	out := runREPL(t, caller, "alerts CA\nquit\n")
	assert.Contains(t, out, "Unable to fetch alerts or invalid response.\n")
}

func TestFirstTextNoContent(t *testing.T) {
	_, err := FirstText(&protocol.CallToolResult{})
	assert.Error(t, err)
}
