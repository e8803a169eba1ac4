// Package client implements the wxmcp MCP client: subprocess launching over
// stdio pipes, the initialize handshake, request/response correlation, and
// the interactive REPL.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"wxmcp/logx"
	"wxmcp/protocol"
	"wxmcp/transport"
)

// RPCTransport is the client-side view of a session: request/response with
// correlation, plus fire-and-forget notifications.
type RPCTransport interface {
	// SendRequest sends a request and blocks until its response arrives or
	// the context expires.
	SendRequest(ctx context.Context, req *protocol.JSONRPCRequest) (*protocol.JSONRPCResponse, error)

	// Notify sends a notification; no response is expected.
	Notify(n *protocol.JSONRPCNotification) error

	// Close tears down the session. Idempotent.
	Close() error
}

// streamTransport correlates JSON-RPC traffic over any message transport.
// Responses are demultiplexed by request ID; the REPL issues one request at a
// time, but nothing here depends on that.
type streamTransport struct {
	tr     transport.Transport
	logger logx.Logger

	responseMap sync.Map // request ID (string) -> chan *protocol.JSONRPCResponse

	ctx    context.Context
	cancel context.CancelFunc

	closeMu sync.Mutex
	closed  bool
}

func newStreamTransport(tr transport.Transport, logger logx.Logger) *streamTransport {
	if logger == nil {
		logger = logx.NopLogger{}
	}
	st := &streamTransport{tr: tr, logger: logger}
	st.ctx, st.cancel = context.WithCancel(context.Background())
	go st.receiveLoop()
	return st
}

// SendRequest registers a response channel under the request ID, sends the
// request, and waits.
func (st *streamTransport) SendRequest(ctx context.Context, req *protocol.JSONRPCRequest) (*protocol.JSONRPCResponse, error) {
	if st.isClosed() {
		return nil, ErrNotConnected
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, NewTransportError("stream", "failed to marshal request", err)
	}

	id := fmt.Sprintf("%v", req.ID)
	respCh := make(chan *protocol.JSONRPCResponse, 1)
	st.responseMap.Store(id, respCh)
	defer st.responseMap.Delete(id)

	if err := st.tr.Send(data); err != nil {
		return nil, NewTransportError("stream", "failed to send request", err)
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, NewConnectionError("stream", "session closed while waiting for response", ErrTransportFailure)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-st.ctx.Done():
		return nil, NewConnectionError("stream", "session closed while waiting for response", ErrTransportFailure)
	}
}

// Notify sends a notification without waiting.
func (st *streamTransport) Notify(n *protocol.JSONRPCNotification) error {
	if st.isClosed() {
		return ErrNotConnected
	}
	data, err := json.Marshal(n)
	if err != nil {
		return NewTransportError("stream", "failed to marshal notification", err)
	}
	return st.tr.Send(data)
}

// receiveLoop reads messages until the transport closes, routing responses to
// their waiting callers. Notifications from the server are logged and
// dropped; none are expected in this protocol subset.
func (st *streamTransport) receiveLoop() {
	for {
		data, err := st.tr.Receive(st.ctx)
		if err != nil {
			if st.ctx.Err() == nil && err != io.EOF {
				st.logger.Error("receive loop ended: %v", err)
			}
			st.Close()
			return
		}

		var msg struct {
			ID     interface{} `json:"id"`
			Method string      `json:"method"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			st.logger.Error("failed to parse incoming message: %v", err)
			continue
		}

		switch {
		case msg.ID != nil:
			var resp protocol.JSONRPCResponse
			if err := json.Unmarshal(data, &resp); err != nil {
				st.logger.Error("failed to parse response: %v", err)
				continue
			}
			id := fmt.Sprintf("%v", resp.ID)
			if ch, ok := st.responseMap.Load(id); ok {
				select {
				case ch.(chan *protocol.JSONRPCResponse) <- &resp:
				default:
					st.logger.Warn("response channel for id %v is full", id)
				}
			} else {
				st.logger.Debug("no waiter for response id %v", id)
			}
		case msg.Method != "":
			st.logger.Debug("ignoring server notification %s", msg.Method)
		default:
			st.logger.Warn("message is neither response nor notification: %s", string(data))
		}
	}
}

// Close cancels the receive loop, closes the transport, and releases every
// waiting caller.
func (st *streamTransport) Close() error {
	st.closeMu.Lock()
	if st.closed {
		st.closeMu.Unlock()
		return nil
	}
	st.closed = true
	st.closeMu.Unlock()

	// Cancelling the context releases every caller blocked in SendRequest.
	// Waiter channels are never closed; a racing delivery is simply dropped.
	st.cancel()
	err := st.tr.Close()
	st.responseMap.Range(func(key, _ interface{}) bool {
		st.responseMap.Delete(key)
		return true
	})
	return err
}

func (st *streamTransport) isClosed() bool {
	st.closeMu.Lock()
	defer st.closeMu.Unlock()
	return st.closed
}

var _ RPCTransport = (*streamTransport)(nil)
