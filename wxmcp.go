// Package wxmcp provides a minimal Go implementation of the Model Context
// Protocol (MCP) together with a weather tool server and an interactive client.
//
// # Overview
//
// The Model Context Protocol is a JSON-RPC 2.0 based request/response protocol
// that lets a client discover and invoke named "tools" exposed by a server
// process. This repository implements the protocol loop end to end for a single
// session: handshake, tool discovery, and request/response correlation over a
// duplex stream, plus two weather tools backed by the National Weather Service
// public API.
//
// # Organization
//
//   - wxmcp/protocol: JSON-RPC and MCP message structures, methods, error codes
//   - wxmcp/transport: transport abstraction, stdio and WebSocket implementations
//   - wxmcp/server: server loop, immutable tool registry, typed argument decoding
//   - wxmcp/client: client, subprocess stdio transport, REPL
//   - wxmcp/weather: NWS API client and the get_alerts/get_forecast tools
//
// # Basic Usage
//
// Server side:
//
//	reg := server.NewRegistry()
//	reg.Register(server.ToolDef{
//	  Name:        "get_alerts",
//	  Description: "Get active weather alerts for a US state (e.g., CA, NY).",
//	  InputSchema: server.GenerateSchema[weather.AlertsArgs](),
//	  Handler:     server.TypedHandler(tools.GetAlerts),
//	})
//	srv := server.New("wx-server", reg)
//	srv.ServeStdio(ctx)
//
// Client side:
//
//	c := client.New("wx-client")
//	if err := c.Connect(ctx, "./wx-server"); err != nil { ... }
//	defer c.Close()
//	res, err := c.CallTool(ctx, "get_alerts", map[string]interface{}{"state": "CA"})
package wxmcp

// Version is the current version of the wxmcp module.
const Version = "0.1.0"
