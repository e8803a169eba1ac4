// Package protocol defines the structures and constants for the subset of MCP
// spoken by this module.
package protocol

const (
	// CurrentProtocolVersion is the MCP revision this module implements.
	CurrentProtocolVersion = "2024-11-05"

	// --- Method name constants ---
	// These align with the JSON-RPC 'method' field names from the MCP spec.

	// Initialization
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized" // notification

	// Tools
	MethodListTools = "tools/list"
	MethodCallTool  = "tools/call"

	// Ping
	MethodPing = "ping"
)
