// Package transport defines the message transport abstraction for wxmcp.
//
// A Transport carries whole JSON-RPC messages; framing is the transport's
// concern (newline-delimited for stdio, one message per frame for WebSocket).
package transport

import "context"

// Transport is a bidirectional message channel for JSON-RPC messages.
type Transport interface {
	// Send writes one message. Safe for concurrent use.
	Send(data []byte) error

	// Receive blocks until the next message arrives, the context is
	// cancelled, or the stream ends. A clean end of stream is reported
	// as io.EOF.
	Receive(ctx context.Context) ([]byte, error)

	// Close releases the underlying streams. Idempotent.
	Close() error

	// IsClosed reports whether Close has been called or the peer has
	// gone away.
	IsClosed() bool
}
