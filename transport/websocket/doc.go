// Package websocket pushes live game updates to browser clients.
//
// A central Hub owns every connection. Clients join a session with
// /ws?session=<id>; the hub then forwards that session's state snapshots
// and game events to them:
//
//	{"session_id":"ab12","event":"state_update","game_state":{...}}
//	{"session_id":"ab12","event":"mismatch","data":{...}}
//
// Hub implements service.StateListener, so the game service feeds it
// directly. When an ActionFunc is set, clients may also play over the same
// socket:
//
//	{"action":"reveal","card_id":3}
//	{"action":"resolve","game_id":"..."}
//	{"action":"new_game","config":"hard"}
//	{"action":"state"}
//
// A failed action is answered with an "error" event to the sender only.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	hub.SetActionFunc(hub.ServiceActions(gameService))
//	go hub.Run(ctx)
package websocket
