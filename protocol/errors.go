package protocol

import "fmt"

// ErrorCode identifies a JSON-RPC error. Codes -32700 to -32600 are reserved
// by the JSON-RPC 2.0 specification; -32000 to -32099 are used by MCP for
// server-defined failures.
type ErrorCode int

const (
	ErrorCodeParseError     ErrorCode = -32700
	ErrorCodeInvalidRequest ErrorCode = -32600
	ErrorCodeMethodNotFound ErrorCode = -32601
	ErrorCodeInvalidParams  ErrorCode = -32602
	ErrorCodeInternalError  ErrorCode = -32603

	// ErrorCodeToolFailure is the base of the server-defined range. The
	// server never sends it today: tool handler failures travel as isError
	// tool results, not protocol errors. Kept so peers' codes in this range
	// decode to a named constant.
	ErrorCodeToolFailure ErrorCode = -32000
)

// MCPError wraps ErrorPayload to implement the error interface. Handlers can
// return this type to control the JSON-RPC error details sent on the wire.
type MCPError struct {
	ErrorPayload
}

// Error implements the error interface for MCPError.
func (e *MCPError) Error() string {
	return fmt.Sprintf("mcp error: code=%d message=%s", e.Code, e.Message)
}

// NewInvalidParamsError creates an MCPError carrying ErrorCodeInvalidParams.
func NewInvalidParamsError(message string) *MCPError {
	return &MCPError{ErrorPayload{Code: ErrorCodeInvalidParams, Message: message}}
}

// NewMethodNotFoundError creates an MCPError carrying ErrorCodeMethodNotFound.
func NewMethodNotFoundError(method string) *MCPError {
	return &MCPError{ErrorPayload{
		Code:    ErrorCodeMethodNotFound,
		Message: fmt.Sprintf("Method not found: %s", method),
	}}
}
