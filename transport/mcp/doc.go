// Package mcp exposes Looney races to AI agents over the Model Context
// Protocol.
//
// The Client registers MCP tools that proxy to the REST API, so the same
// tools work whether the API runs in-process or elsewhere:
//   - start_race: Start a race with an optional per-turn delay
//   - list_races: List races, optionally by status
//   - race_state: Status, counters, actors and board
//   - race_board: Board as text
//   - race_events: Paginated event history
//   - stop_race: End a race without a winner
//   - race_rules: Rules and legend
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp, handled by GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
