// Package server implements the wxmcp MCP server: an immutable tool registry,
// JSON-RPC message dispatch, and serve loops for the stdio and WebSocket
// transports.
package server

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"wxmcp/protocol"
)

// ToolHandler executes one tool call. The args map is the raw wire arguments
// object. The returned string becomes a single text content block; a non-nil
// error becomes an isError result, never a dead session.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (string, error)

// ToolDef describes one registered tool.
type ToolDef struct {
	Name        string
	Description string
	InputSchema []byte // JSON Schema for the arguments object
	Handler     ToolHandler
}

// Registry holds the server's tools. It is built once at startup and frozen
// when serving begins; dispatch reads it without locking.
type Registry struct {
	tools  map[string]ToolDef
	order  []string
	frozen bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolDef)}
}

// Register adds a tool. It fails after Freeze and on duplicate names.
func (r *Registry) Register(def ToolDef) error {
	if r.frozen {
		return fmt.Errorf("registry is frozen, cannot register tool %q", def.Name)
	}
	if def.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %q has no handler", def.Name)
	}
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %q is already registered", def.Name)
	}
	r.tools[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister is Register that panics on error, for startup wiring.
func (r *Registry) MustRegister(def ToolDef) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Freeze marks the registry read-only. Called by the server when serving
// begins; further Register calls fail.
func (r *Registry) Freeze() { r.frozen = true }

// Tools returns the tool descriptors in registration order.
func (r *Registry) Tools() []protocol.Tool {
	out := make([]protocol.Tool, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		out = append(out, protocol.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return out
}

// Dispatch looks up and runs a tool. An unknown name is a protocol-level
// error on that request; handler and argument failures are returned as
// isError tool results.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error) {
	def, ok := r.tools[name]
	if !ok {
		return nil, protocol.NewInvalidParamsError(fmt.Sprintf("Unknown tool: %s", name))
	}
	text, err := def.Handler(ctx, args)
	if err != nil {
		return &protocol.CallToolResult{
			Content: []protocol.Content{protocol.NewTextContent(err.Error())},
			IsError: true,
		}, nil
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{protocol.NewTextContent(text)},
	}, nil
}

// DecodeArgs decodes a wire argument map into a typed struct. Field names
// follow json tags; string inputs are coerced to numeric fields; unknown
// fields and missing required fields (non-pointer struct fields) are
// rejected.
func DecodeArgs(args map[string]interface{}, target interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	for _, name := range requiredFields(target) {
		if _, present := args[name]; !present {
			return fmt.Errorf("missing required argument %q", name)
		}
	}
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return fmt.Errorf("internal error creating argument decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// TypedHandler adapts a strongly typed tool function into a ToolHandler by
// decoding the wire arguments with DecodeArgs. Decode failures surface as
// handler errors and therefore as isError results.
func TypedHandler[T any](fn func(ctx context.Context, args T) (string, error)) ToolHandler {
	return func(ctx context.Context, args map[string]interface{}) (string, error) {
		var typed T
		if err := DecodeArgs(args, &typed); err != nil {
			return "", err
		}
		return fn(ctx, typed)
	}
}

// requiredFields lists the json names of non-pointer fields of the target
// struct. Pointer fields are optional by convention.
func requiredFields(target interface{}) []string {
	t := reflect.TypeOf(target)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		if field.Type.Kind() == reflect.Ptr {
			continue
		}
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		names = append(names, name)
	}
	return names
}
