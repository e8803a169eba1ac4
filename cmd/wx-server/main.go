// Command wx-server runs the weather MCP server. By default it serves a
// single session over stdio, for use as a client-spawned subprocess; with
// -ws it listens for WebSocket sessions instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"wxmcp"
	"wxmcp/logx"
	"wxmcp/server"
	"wxmcp/weather"
)

func main() {
	wsAddr := flag.String("ws", "", "serve WebSocket sessions on this address instead of stdio (e.g. :8084)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := logx.NewDefaultLogger()
	if *debug {
		logger.SetLevel(logx.LevelDebug)
	}

	if err := run(*wsAddr, logger); err != nil {
		fmt.Fprintf(os.Stderr, "wx-server: %v\n", err)
		os.Exit(1)
	}
}

func run(wsAddr string, logger logx.Logger) error {
	registry := server.NewRegistry()
	tools := weather.NewTools(weather.NewClient(), logger)
	if err := tools.Register(registry); err != nil {
		return err
	}

	srv := server.New("weather", registry,
		server.WithLogger(logger),
		server.WithVersion(wxmcp.Version),
	)

	if wsAddr != "" {
		return srv.ServeWS(context.Background(), wsAddr)
	}
	return srv.ServeStdio(context.Background())
}
