package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wxmcp"
	"wxmcp/logx"
	"wxmcp/protocol"
)

// DefaultRequestTimeout bounds each request/response exchange.
const DefaultRequestTimeout = 30 * time.Second

// Client is an MCP client session. Create one with New, establish it with
// Connect, then use ListTools and CallTool until Close.
type Client struct {
	name           string
	logger         logx.Logger
	requestTimeout time.Duration
	version        string

	transport         RPCTransport
	serverInfo        *protocol.Implementation
	negotiatedVersion string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to stderr at info level.
func WithLogger(logger logx.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// WithProtocolVersion overrides the protocol version offered during the
// handshake.
func WithProtocolVersion(version string) Option {
	return func(c *Client) { c.version = version }
}

// New creates a disconnected client identified to servers by name.
func New(name string, opts ...Option) *Client {
	c := &Client{
		name:           name,
		requestTimeout: DefaultRequestTimeout,
		version:        protocol.CurrentProtocolVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logx.NewDefaultLogger()
	}
	return c
}

// Connect spawns command as the server subprocess and performs the initialize
// handshake. On any handshake failure the subprocess is terminated before the
// error is returned.
func (c *Client) Connect(ctx context.Context, command string, args ...string) error {
	if c.transport != nil {
		return ErrAlreadyConnected
	}
	tr, err := newStdioTransport(command, args, c.logger)
	if err != nil {
		return err
	}
	if err := c.connect(ctx, tr); err != nil {
		tr.Close()
		return err
	}
	return nil
}

// connect performs the handshake over an established transport.
func (c *Client) connect(ctx context.Context, tr RPCTransport) error {
	params := protocol.InitializeParams{
		ProtocolVersion: c.version,
		Capabilities:    protocol.ClientCapabilities{},
		ClientInfo: protocol.Implementation{
			Name:    c.name,
			Version: wxmcp.Version,
		},
	}
	var result protocol.InitializeResult
	if err := c.call(ctx, tr, protocol.MethodInitialize, params, &result); err != nil {
		return NewConnectionError("stdio", "initialize failed", err)
	}

	if err := tr.Notify(protocol.NewNotification(protocol.MethodInitialized, protocol.InitializedParams{})); err != nil {
		return NewConnectionError("stdio", "failed to send initialized notification", err)
	}

	c.transport = tr
	c.serverInfo = &result.ServerInfo
	c.negotiatedVersion = result.ProtocolVersion
	c.logger.Debug("connected to %s %s (protocol %s)",
		result.ServerInfo.Name, result.ServerInfo.Version, result.ProtocolVersion)
	return nil
}

// ServerInfo returns the server identity reported during the handshake, or
// nil before Connect.
func (c *Client) ServerInfo() *protocol.Implementation {
	return c.serverInfo
}

// ProtocolVersion returns the protocol version the server answered with, or
// "" before Connect.
func (c *Client) ProtocolVersion() string {
	return c.negotiatedVersion
}

// ListTools fetches the server's tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	if c.transport == nil {
		return nil, ErrNotConnected
	}
	var result protocol.ListToolsResult
	if err := c.call(ctx, c.transport, protocol.MethodListTools, protocol.ListToolsParams{}, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a tool by name. A result with IsError set means the tool
// itself failed; a non-nil error means the call never produced a result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error) {
	if c.transport == nil {
		return nil, ErrNotConnected
	}
	params := protocol.CallToolParams{Name: name, Arguments: args}
	var result protocol.CallToolResult
	if err := c.call(ctx, c.transport, protocol.MethodCallTool, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks that the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	if c.transport == nil {
		return ErrNotConnected
	}
	var result struct{}
	return c.call(ctx, c.transport, protocol.MethodPing, struct{}{}, &result)
}

// call sends one request and decodes its response into result.
func (c *Client) call(ctx context.Context, tr RPCTransport, method string, params, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req := protocol.NewRequest(uuid.NewString(), method, params)
	resp, err := tr.SendRequest(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return NewTimeoutError(method, c.requestTimeout, ErrRequestTimeout)
		}
		return err
	}
	if resp.Error != nil {
		return NewServerError(method, int(resp.Error.Code), resp.Error.Message)
	}
	if result != nil {
		if err := protocol.UnmarshalPayload(resp.Result, result); err != nil {
			return &ClientError{
				Message: fmt.Sprintf("failed to decode %s result", method),
				Cause:   fmt.Errorf("%w: %v", ErrInvalidResponse, err),
			}
		}
	}
	return nil
}

// Close tears down the session and the server subprocess. Safe to call on a
// client that never connected.
func (c *Client) Close() error {
	if c.transport == nil {
		return nil
	}
	err := c.transport.Close()
	c.transport = nil
	return err
}
