// Package stdio provides a Transport implementation over a pair of byte
// streams, newline-delimited, one JSON-RPC message per line. It is used both
// by the server (os.Stdin/os.Stdout) and by the client (the child process's
// pipes).
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"wxmcp/logx"
	"wxmcp/protocol"
	"wxmcp/transport"
)

var _ transport.Transport = (*Transport)(nil)

// Transport implements transport.Transport over an io.Reader/io.Writer pair.
type Transport struct {
	reader io.Reader
	writer io.Writer
	logger logx.Logger

	writeMu sync.Mutex

	readOnce sync.Once
	lines    chan []byte
	readErr  chan error

	closeMu sync.Mutex
	closed  bool
	closeCh chan struct{} // closed by Close; unblocks a parked deliver
}

// NewTransport creates a Transport over standard input/output.
func NewTransport(logger logx.Logger) *Transport {
	return NewTransportWithReadWriter(os.Stdin, os.Stdout, logger)
}

// NewTransportWithReadWriter creates a Transport over the given streams.
func NewTransportWithReadWriter(reader io.Reader, writer io.Writer, logger logx.Logger) *Transport {
	if logger == nil {
		logger = logx.NopLogger{}
	}
	return &Transport{
		reader:  reader,
		writer:  writer,
		logger:  logger,
		lines:   make(chan []byte, 1),
		readErr: make(chan error, 1),
		closeCh: make(chan struct{}),
	}
}

// Send writes one message followed by a newline. Safe for concurrent use.
func (t *Transport) Send(data []byte) error {
	if t.IsClosed() {
		return fmt.Errorf("transport is closed")
	}
	if len(data) == 0 {
		return fmt.Errorf("cannot send empty message")
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	// Exactly one trailing newline per message.
	data = bytes.TrimRight(data, "\n")
	data = append(data, '\n')

	t.logger.Debug("stdio send: %s", string(data))

	if _, err := t.writer.Write(data); err != nil {
		if errors.Is(err, io.ErrClosedPipe) || strings.Contains(err.Error(), "pipe closed") {
			t.logger.Warn("stdio: write to closed pipe: %v", err)
			_ = t.Close()
			return err
		}
		return fmt.Errorf("failed to write message: %w", err)
	}
	if flusher, ok := t.writer.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil {
			t.logger.Warn("stdio: failed to flush writer: %v", err)
		}
	}
	return nil
}

// Receive returns the next newline-delimited JSON message. Lines that are not
// valid JSON are answered with a ParseError response and skipped; the stream
// keeps going. A clean end of input returns io.EOF.
func (t *Transport) Receive(ctx context.Context) ([]byte, error) {
	if t.IsClosed() {
		return nil, fmt.Errorf("transport is closed")
	}
	t.readOnce.Do(func() { go t.readLoop() })

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			return nil, io.EOF
		}
		return line, nil
	case err := <-t.readErr:
		return nil, err
	}
}

// readLoop owns the reader; it runs until EOF or a read error.
func (t *Transport) readLoop() {
	r := bufio.NewReader(t.reader)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if len(bytes.TrimSpace(line)) > 0 && errors.Is(err, io.EOF) {
				// Partial final line: deliver it before reporting EOF.
				t.deliver(line)
			}
			if errors.Is(err, io.EOF) {
				close(t.lines)
			} else {
				t.readErr <- fmt.Errorf("failed to read message line: %w", err)
			}
			return
		}
		t.deliver(line)
	}
}

func (t *Transport) deliver(line []byte) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return
	}
	if !json.Valid(trimmed) {
		t.logger.Error("stdio: received invalid JSON: %s", string(trimmed))
		t.sendParseError("Received invalid JSON")
		return
	}
	select {
	case t.lines <- trimmed:
	case <-t.closeCh:
		// Nobody will receive this line; drop it so the loop can exit.
	}
}

// Close closes the underlying streams where possible.
func (t *Transport) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.closeCh)
	t.logger.Debug("stdio: closing transport")

	var firstErr error
	for _, s := range []interface{}{t.writer, t.reader} {
		if closer, ok := s.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				if !errors.Is(err, io.ErrClosedPipe) && !strings.Contains(err.Error(), "pipe closed") {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// IsClosed reports whether Close has been called.
func (t *Transport) IsClosed() bool {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	return t.closed
}

// sendParseError reports a JSON-RPC ParseError to the peer. Errors while
// reporting are ignored; the original problem is already logged.
func (t *Transport) sendParseError(message string) {
	resp := protocol.NewErrorResponse(nil, protocol.ErrorCodeParseError, message, nil)
	data, err := json.Marshal(resp)
	if err != nil {
		t.logger.Error("stdio: failed to marshal parse error response: %v", err)
		return
	}
	_ = t.Send(data)
}
