// Package api provides the HTTP REST API for the memory match game.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions              create a session, body {"config_id":"easy"} optional
//   - GET    /api/sessions              list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}         session info with current state
//   - DELETE /api/sessions/{id}         delete a session
//
// Gameplay:
//   - GET  /api/sessions/{id}/state     current game state
//   - POST /api/sessions/{id}/new-game  deal again, body {"config_id":"hard"} switches tier
//   - POST /api/sessions/{id}/reveal    body {"card_id":3}
//   - POST /api/sessions/{id}/resolve   flip back a pending mismatch, body {"game_id":"..."} optional
//   - GET  /api/sessions/{id}/history   reveal log (?page=1&limit=20&order=desc)
//
// Configuration:
//   - GET  /api/configs                 list difficulty tiers
//   - POST /api/configs                 save a tier
//   - GET  /api/configs/{name}          one tier
//
// Other:
//   - GET /api/health
//   - /ws?session={id}                  live updates, see package websocket
//   - /mcp                              MCP streamable HTTP endpoint when mounted
//   - everything else is served from the static directory
//
// Errors are JSON objects {"error": "..."}. Unknown sessions and tiers map
// to 404, invalid input to 400, duplicate sessions to 409. A reveal that
// changes nothing is not an error: it returns 200 with "changed": false.
package api
