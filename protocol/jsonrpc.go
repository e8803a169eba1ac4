// Package protocol defines the structures and constants for the subset of the
// Model Context Protocol (MCP) spoken by this module, based on the JSON-RPC 2.0
// specification.
package protocol

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the value required in the "jsonrpc" field of every message.
const JSONRPCVersion = "2.0"

// ErrorPayload defines the structure for the 'error' object within a
// JSONRPCResponse, aligning with the JSON-RPC 2.0 specification used by MCP.
type ErrorPayload struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSONRPCRequest represents a standard JSON-RPC request object.
type JSONRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"` // string or number; this module always sends strings
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// JSONRPCResponse represents a standard JSON-RPC response object. Exactly one
// of Result and Error is set.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"` // echoes the request ID, or null for pre-parse errors
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorPayload   `json:"error,omitempty"`
}

// JSONRPCNotification represents a standard JSON-RPC notification object.
// Notifications carry no ID and receive no response.
type JSONRPCNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// NewRequest creates a new JSON-RPC request object.
func NewRequest(id interface{}, method string, params interface{}) *JSONRPCRequest {
	return &JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// NewNotification creates a new JSON-RPC notification object.
func NewNotification(method string, params interface{}) *JSONRPCNotification {
	return &JSONRPCNotification{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
	}
}

// NewSuccessResponse creates a new JSON-RPC success response object. The
// result is marshalled eagerly so dispatch code can treat marshal failures as
// internal errors at the point of construction.
func NewSuccessResponse(id interface{}, result interface{}) (*JSONRPCResponse, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result (type %T): %w", result, err)
	}
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  raw,
	}, nil
}

// NewErrorResponse creates a new JSON-RPC error response object. The ID may be
// nil if the error occurred before the request ID could be parsed.
func NewErrorResponse(id interface{}, code ErrorCode, message string, data interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &ErrorPayload{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// UnmarshalPayload unmarshals a params or result field that was decoded as
// interface{} into the specific struct pointed to by target, re-marshalling
// through JSON. A nil payload is an error: callers that allow absent params
// must check before calling.
func UnmarshalPayload(payload interface{}, target interface{}) error {
	if payload == nil {
		return fmt.Errorf("payload is nil, cannot unmarshal")
	}
	if raw, ok := payload.(json.RawMessage); ok {
		if len(raw) == 0 || string(raw) == "null" {
			return fmt.Errorf("payload is empty, cannot unmarshal")
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return fmt.Errorf("failed to unmarshal payload into %T: %w", target, err)
		}
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to re-marshal payload (type %T): %w", payload, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload into %T: %w", target, err)
	}
	return nil
}
