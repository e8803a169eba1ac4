package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wxmcp/logx"
	"wxmcp/protocol"
)

// Server handles MCP messages for one or more sessions over any transport.
// The registry is frozen on first serve; per-message state is confined to the
// request, so HandleMessage is safe for concurrent sessions.
type Server struct {
	name     string
	version  string
	registry *Registry
	logger   logx.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger. The default logs to stderr.
func WithLogger(logger logx.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version announced in the initialize handshake.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// New creates a Server for the given registry.
func New(name string, registry *Registry, opts ...Option) *Server {
	s := &Server{
		name:     name,
		version:  "0.1.0",
		registry: registry,
		logger:   logx.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// rawMessage is the envelope used to sniff incoming traffic before full
// decoding. A message with a method and an ID is a request; method without ID
// is a notification.
type rawMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// HandleMessage processes one incoming message and returns the marshalled
// response, or nil when no response is due (notifications). It never returns
// an error to the transport: protocol problems become JSON-RPC error
// responses so the session survives bad input.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) []byte {
	var msg rawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Error("failed to parse message: %v", err)
		return marshalResponse(s.logger, protocol.NewErrorResponse(nil, protocol.ErrorCodeParseError, "Failed to parse message", nil))
	}
	if msg.Method == "" {
		s.logger.Warn("received message with no method, ignoring: %s", string(raw))
		return nil
	}

	s.logger.Debug("handling %s (id=%v)", msg.Method, msg.ID)

	var (
		result interface{}
		err    error
	)
	switch msg.Method {
	case protocol.MethodInitialize:
		result, err = s.handleInitialize(msg.Params)
	case protocol.MethodInitialized:
		return nil // notification, no reply
	case protocol.MethodListTools:
		result = protocol.ListToolsResult{Tools: s.registry.Tools()}
	case protocol.MethodCallTool:
		result, err = s.handleCallTool(ctx, msg.Params)
	case protocol.MethodPing:
		result = struct{}{}
	default:
		err = protocol.NewMethodNotFoundError(msg.Method)
	}

	if msg.ID == nil {
		// Notification for a request-style method; nothing to answer.
		if err != nil {
			s.logger.Warn("error handling notification %s: %v", msg.Method, err)
		}
		return nil
	}
	if err != nil {
		return marshalResponse(s.logger, errorResponse(msg.ID, err))
	}
	resp, err := protocol.NewSuccessResponse(msg.ID, result)
	if err != nil {
		s.logger.Error("failed to marshal %s result: %v", msg.Method, err)
		return marshalResponse(s.logger, protocol.NewErrorResponse(msg.ID, protocol.ErrorCodeInternalError, "Failed to marshal result", nil))
	}
	return marshalResponse(s.logger, resp)
}

func (s *Server) handleInitialize(params json.RawMessage) (interface{}, error) {
	var p protocol.InitializeParams
	if len(params) > 0 {
		if err := protocol.UnmarshalPayload(params, &p); err != nil {
			return nil, protocol.NewInvalidParamsError(fmt.Sprintf("malformed initialize params: %v", err))
		}
	}

	// Echo the client's version when we speak it; otherwise answer with our
	// own and let the client decide whether to proceed.
	version := protocol.CurrentProtocolVersion
	if p.ProtocolVersion == protocol.CurrentProtocolVersion {
		version = p.ProtocolVersion
	}

	s.logger.Info("initialize from %s %s (protocol %s)", p.ClientInfo.Name, p.ClientInfo.Version, p.ProtocolVersion)

	return protocol.InitializeResult{
		ProtocolVersion: version,
		Capabilities: protocol.ServerCapabilities{
			Tools: &struct {
				ListChanged bool `json:"listChanged,omitempty"`
			}{},
		},
		ServerInfo: protocol.Implementation{Name: s.name, Version: s.version},
	}, nil
}

func (s *Server) handleCallTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p protocol.CallToolParams
	if err := protocol.UnmarshalPayload(params, &p); err != nil {
		return nil, protocol.NewInvalidParamsError(fmt.Sprintf("malformed tools/call params: %v", err))
	}
	if p.Name == "" {
		return nil, protocol.NewInvalidParamsError("tool name is required")
	}

	s.logger.Debug("dispatching tool %s", p.Name)
	result, err := s.registry.Dispatch(ctx, p.Name, p.Arguments)
	if err != nil {
		return nil, err
	}
	if result.IsError {
		s.logger.Warn("tool %s returned an error result", p.Name)
	}
	return result, nil
}

// errorResponse converts a handler error into a JSON-RPC error response,
// preserving MCPError codes.
func errorResponse(id interface{}, err error) *protocol.JSONRPCResponse {
	var mcpErr *protocol.MCPError
	if errors.As(err, &mcpErr) {
		return protocol.NewErrorResponse(id, mcpErr.Code, mcpErr.Message, mcpErr.Data)
	}
	return protocol.NewErrorResponse(id, protocol.ErrorCodeInternalError, err.Error(), nil)
}

func marshalResponse(logger logx.Logger, resp *protocol.JSONRPCResponse) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// A response built from our own types always marshals; this guards
		// against future Data payloads that do not.
		logger.Error("failed to marshal response: %v", err)
		fallback, _ := json.Marshal(protocol.NewErrorResponse(resp.ID, protocol.ErrorCodeInternalError, "Failed to marshal response", nil))
		return fallback
	}
	return data
}
