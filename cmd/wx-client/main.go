// Command wx-client launches an MCP tool server as a subprocess, lists its
// tools, and drops into an interactive query loop:
//
//	wx-client ./wx-server
//	alerts CA
//	forecast 37.78 -122.42
//	quit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"wxmcp/client"
	"wxmcp/logx"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wx-client <server-command> [args...]")
		os.Exit(1)
	}

	logger := logx.NewDefaultLogger()
	if *debug {
		logger.SetLevel(logx.LevelDebug)
	}

	if err := run(flag.Args(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "wx-client: %v\n", err)
		os.Exit(1)
	}
}

func run(command []string, logger logx.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New("wx-client", client.WithLogger(logger))
	if err := c.Connect(ctx, command[0], command[1:]...); err != nil {
		return err
	}
	defer c.Close()

	tools, err := c.ListTools(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	fmt.Printf("Connected. Tools available: %v\n", names)

	repl := client.NewREPL(c, os.Stdin, os.Stdout)
	if err := repl.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
