package protocol

import "encoding/json"

// --- Tooling Structures and Messages ---

// Tool defines a tool offered by the server. InputSchema is a JSON Schema
// document describing the expected arguments object.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ListToolsParams defines the parameters for a 'tools/list' request.
// Pagination is not implemented; the cursor is accepted and ignored.
type ListToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListToolsResult defines the result payload for a successful 'tools/list'
// response.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams defines the parameters for a 'tools/call' request.
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// CallToolResult defines the result payload for a 'tools/call' response.
// Handler failures that are not protocol errors (bad arguments, upstream
// fetch problems) are reported as a text content block with IsError set;
// the session itself is unaffected.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// UnmarshalJSON implements custom unmarshalling for CallToolResult to handle
// the Content interface slice.
func (r *CallToolResult) UnmarshalJSON(data []byte) error {
	var aux struct {
		Content []json.RawMessage `json:"content"`
		IsError bool              `json:"isError,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	content, err := decodeContent(aux.Content)
	if err != nil {
		return err
	}
	r.Content = content
	r.IsError = aux.IsError
	return nil
}
