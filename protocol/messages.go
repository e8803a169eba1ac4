package protocol

import (
	"encoding/json"
	"fmt"
)

// --- Initialization Sequence Structures ---

// Implementation describes the name and version of an MCP implementation
// (client or server), exchanged during the initialize handshake.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities describes features the client supports. This module
// negotiates none, but the field must be present in the handshake.
type ClientCapabilities struct {
	Experimental map[string]interface{} `json:"experimental,omitempty"`
}

// ServerCapabilities describes features the server supports.
type ServerCapabilities struct {
	Tools *struct {
		ListChanged bool `json:"listChanged,omitempty"`
	} `json:"tools,omitempty"`
}

// InitializeParams defines the parameters for the 'initialize' request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult defines the result payload for a successful 'initialize'
// response.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// InitializedParams is the payload for the 'notifications/initialized'
// notification (empty).
type InitializedParams struct{}

// --- Content Structures ---

// Content is the interface for the parts of a tool call result.
type Content interface {
	GetType() string
}

// TextContent represents textual content. Type is always "text".
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (tc TextContent) GetType() string { return tc.Type }

// NewTextContent creates a TextContent block for the given text.
func NewTextContent(text string) TextContent {
	return TextContent{Type: "text", Text: text}
}

// decodeContent decodes a slice of raw content blocks into typed Content
// values. Unknown content types fail the decode rather than being silently
// dropped; this module only ever produces "text" blocks.
func decodeContent(raws []json.RawMessage) ([]Content, error) {
	out := make([]Content, 0, len(raws))
	for _, raw := range raws {
		var typeDetect struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &typeDetect); err != nil {
			return nil, fmt.Errorf("failed to detect content type: %w", err)
		}
		switch typeDetect.Type {
		case "text":
			var tc TextContent
			if err := json.Unmarshal(raw, &tc); err != nil {
				return nil, fmt.Errorf("failed to unmarshal TextContent: %w", err)
			}
			out = append(out, tc)
		default:
			return nil, fmt.Errorf("unknown content type %q", typeDetect.Type)
		}
	}
	return out, nil
}
