// Package ws provides a WebSocket implementation of the wxmcp transport.
//
// One JSON-RPC message travels per text frame. The server side listens over
// HTTP and upgrades with gobwas/ws; the client side dials a ws:// URL. Each
// accepted or dialed connection is its own Transport.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"wxmcp/logx"
	"wxmcp/transport"
)

// DefaultShutdownTimeout bounds graceful HTTP server shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Conn implements transport.Transport over a single WebSocket connection.
type Conn struct {
	conn   net.Conn
	client bool // client side masks frames
	logger logx.Logger

	writeMu sync.Mutex

	readOnce sync.Once
	msgs     chan []byte
	readErr  chan error

	closeMu sync.Mutex
	closed  bool
}

var _ transport.Transport = (*Conn)(nil)

func newConn(nc net.Conn, client bool, logger logx.Logger) *Conn {
	if logger == nil {
		logger = logx.NopLogger{}
	}
	return &Conn{
		conn:    nc,
		client:  client,
		logger:  logger,
		msgs:    make(chan []byte, 1),
		readErr: make(chan error, 1),
	}
}

// Dial connects to a wxmcp WebSocket endpoint (ws://host:port/).
func Dial(ctx context.Context, url string, logger logx.Logger) (*Conn, error) {
	nc, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return newConn(nc, true, logger), nil
}

// Send writes one message as a text frame. Safe for concurrent use.
func (c *Conn) Send(data []byte) error {
	if c.IsClosed() {
		return fmt.Errorf("transport is closed")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var err error
	if c.client {
		err = wsutil.WriteClientMessage(c.conn, ws.OpText, data)
	} else {
		err = wsutil.WriteServerMessage(c.conn, ws.OpText, data)
	}
	if err != nil {
		// writeMu is held; skip the close frame, the stream is broken anyway.
		_ = c.close(false)
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Receive returns the next text or binary frame payload.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("transport is closed")
	}
	c.readOnce.Do(func() { go c.readLoop() })

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-c.msgs:
		if !ok {
			// Peer sent a close frame; treat like end of stream.
			return nil, io.EOF
		}
		return msg, nil
	case err := <-c.readErr:
		return nil, err
	}
}

func (c *Conn) readLoop() {
	for {
		var (
			msg []byte
			op  ws.OpCode
			err error
		)
		if c.client {
			msg, op, err = wsutil.ReadServerData(c.conn)
		} else {
			msg, op, err = wsutil.ReadClientData(c.conn)
		}
		if err != nil {
			// A peer close frame surfaces as wsutil.ClosedError; a bare
			// connection teardown as io.EOF. Both end the stream cleanly.
			var closedErr wsutil.ClosedError
			if errors.As(err, &closedErr) || errors.Is(err, io.EOF) {
				close(c.msgs)
			} else {
				c.readErr <- err
			}
			return
		}
		if op == ws.OpText || op == ws.OpBinary {
			c.msgs <- msg
		}
	}
}

// Close sends a close frame (best effort) and closes the underlying
// connection. Idempotent.
func (c *Conn) Close() error {
	return c.close(true)
}

func (c *Conn) close(sendFrame bool) error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	if sendFrame {
		c.writeMu.Lock()
		if c.client {
			_ = wsutil.WriteClientMessage(c.conn, ws.OpClose, nil)
		} else {
			_ = wsutil.WriteServerMessage(c.conn, ws.OpClose, nil)
		}
		c.writeMu.Unlock()
	}
	return c.conn.Close()
}

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

// Server accepts WebSocket connections and hands each one over as a Transport.
type Server struct {
	addr   string
	logger logx.Logger

	httpServer *http.Server
	listener   net.Listener
	accepted   chan *Conn
	done       chan struct{} // closed when the server shuts down

	closeMu sync.Mutex
	closed  bool
}

// NewServer creates a WebSocket listener for the given address. Start must be
// called before Accept.
func NewServer(addr string, logger logx.Logger) *Server {
	if logger == nil {
		logger = logx.NopLogger{}
	}
	return &Server{
		addr:     addr,
		logger:   logger,
		accepted: make(chan *Conn, 8),
		done:     make(chan struct{}),
	}
}

// Start binds the listener and begins serving upgrade requests. The router
// exposes the upgrade endpoint at / and a liveness probe at /healthz.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.HandleFunc("/", s.handleUpgrade)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: r}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ws: http server error: %v", err)
		}
	}()

	s.logger.Info("ws: listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address. Valid after Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Accept blocks until the next client connects, the server closes, or the
// context is cancelled.
func (s *Server) Accept(ctx context.Context) (*Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, errors.New("ws server closed")
	case conn := <-s.accepted:
		return conn, nil
	}
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	nc, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		s.logger.Warn("ws: upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}
	s.logger.Info("ws: client connected from %s", nc.RemoteAddr())

	select {
	case <-s.done:
		s.logger.Warn("ws: server closing, rejecting %s", nc.RemoteAddr())
		_ = nc.Close()
		return
	default:
	}

	// The accepted channel is never closed, so an upgrade racing shutdown
	// parks in the buffer at worst; Close drains whatever is left there.
	select {
	case s.accepted <- newConn(nc, false, s.logger):
	default:
		s.logger.Warn("ws: accept backlog full, rejecting %s", nc.RemoteAddr())
		_ = nc.Close()
	}
}

// Close shuts down the HTTP server, stops accepting connections, and closes
// any connections still parked in the accept backlog.
func (s *Server) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	s.closeMu.Unlock()

	close(s.done)
	var err error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
	}

	for {
		select {
		case conn := <-s.accepted:
			_ = conn.Close()
		default:
			return err
		}
	}
}
