package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"wxmcp/protocol"
)

const replPrompt = "\nQuery (alerts <STATE> | forecast <LAT> <LON> | quit): "

// ToolCaller is the slice of Client the REPL needs.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error)
}

// REPL reads weather queries from in, dispatches them as tool calls, and
// writes results to out. Commands:
//
//	alerts <STATE>
//	forecast <LAT> <LON>
//	quit
type REPL struct {
	caller ToolCaller
	in     io.Reader
	out    io.Writer
}

// NewREPL creates a REPL bound to the given streams.
func NewREPL(caller ToolCaller, in io.Reader, out io.Writer) *REPL {
	return &REPL{caller: caller, in: in, out: out}
}

// Run loops until quit, end of input, or context cancellation. Tool call
// failures are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.out, replPrompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return nil
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "quit") {
			return nil
		}

		if err := r.dispatch(ctx, query); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	}
}

// dispatch runs a single non-empty query. Usage mistakes are printed directly
// and return nil; only failures that should carry the Error: prefix come back
// as errors.
func (r *REPL) dispatch(ctx context.Context, query string) error {
	switch {
	case strings.HasPrefix(query, "alerts "):
		state := strings.TrimSpace(strings.TrimPrefix(query, "alerts "))
		return r.callAndPrint(ctx, "get_alerts", map[string]interface{}{"state": state})

	case strings.HasPrefix(query, "forecast "):
		parts := strings.Fields(query)
		if len(parts) != 3 {
			fmt.Fprintln(r.out, "Usage: forecast <LAT> <LON>")
			return nil
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return err
		}
		lon, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return err
		}
		return r.callAndPrint(ctx, "get_forecast", map[string]interface{}{
			"latitude":  lat,
			"longitude": lon,
		})

	default:
		fmt.Fprintln(r.out, "Unknown command. Try: alerts CA  |  forecast 37.78 -122.42")
		return nil
	}
}

func (r *REPL) callAndPrint(ctx context.Context, tool string, args map[string]interface{}) error {
	result, err := r.caller.CallTool(ctx, tool, args)
	if err != nil {
		return err
	}
	text, err := FirstText(result)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, text)
	return nil
}

// FirstText returns the text of the first text content item in a tool result.
// Tool results carry their payload this way whether or not IsError is set.
func FirstText(result *protocol.CallToolResult) (string, error) {
	for _, content := range result.Content {
		if tc, ok := content.(protocol.TextContent); ok {
			return tc.Text, nil
		}
	}
	return "", fmt.Errorf("tool returned no text content")
}
