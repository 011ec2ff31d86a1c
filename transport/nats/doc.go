// Package nats publishes game events to a NATS server.
//
// Every event the game service emits is sent as JSON on
// memory.<session>.<event>, for example memory.ab12.match. Observers can
// subscribe to memory.ab12.* for one session or memory.> for everything.
package nats
