// Package mcp exposes Memory Match to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// the API server, and the JSON reply is rendered as text for the agent.
//
// Tools:
//   - create_session, list_sessions, get_session: session management
//   - game_state: progress summary plus the board grid
//   - reveal_card, resolve_mismatch: the reveal cycle
//   - new_game: deal again, optionally switching tier
//   - reveal_history: paginated log of every face seen
//   - list_configs, game_instructions: tiers and rules
//
// Boards are drawn using the tier's column count. Each cell reads "id:face":
// "12:??" is face down, "12:07" is face up and "12:[07]" is part of a
// matched pair.
//
// Transport Modes:
//
//	// Stdio
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP, mounted next to the REST API
//	api.NewServer(svc, hub, api.WithMCPHandler(client.HTTPHandler()))
package mcp
