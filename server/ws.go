package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"

	"wxmcp/transport/ws"
)

// ServeWS runs the server on a WebSocket listener at addr. Each connected
// client gets its own session goroutine running the same message loop as
// stdio. Blocks until the context is cancelled or SIGINT arrives.
func (s *Server) ServeWS(ctx context.Context, addr string) error {
	s.registry.Freeze()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	listener := ws.NewServer(addr, s.logger)
	if err := listener.Start(); err != nil {
		return err
	}
	defer listener.Close()

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				s.logger.Info("context cancelled, shutting down")
				break
			}
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			if err := s.serve(ctx, conn); err != nil {
				s.logger.Warn("session ended with error: %v", err)
			}
		}()
	}
	wg.Wait()
	return nil
}
