package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"wxmcp/transport"
	"wxmcp/transport/stdio"
)

// ServeStdio runs the server over standard input/output. It blocks until the
// input stream closes, the context is cancelled, or SIGINT arrives. EOF and
// cancellation are clean shutdowns.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.registry.Freeze()
	s.logger.Info("server %q listening on stdio", s.name)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	tr := stdio.NewTransport(s.logger)
	defer tr.Close()

	return s.serve(ctx, tr)
}

// serve runs the receive/handle/send loop for one session.
func (s *Server) serve(ctx context.Context, tr transport.Transport) error {
	for {
		raw, err := tr.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("input closed, shutting down")
				return nil
			}
			if errors.Is(err, context.Canceled) {
				s.logger.Info("context cancelled, shutting down")
				return nil
			}
			return fmt.Errorf("error receiving message: %w", err)
		}

		resp := s.HandleMessage(ctx, raw)
		if resp == nil {
			continue
		}
		if err := tr.Send(resp); err != nil {
			return fmt.Errorf("failed to send response: %w", err)
		}
	}
}
