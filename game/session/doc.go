// Package session provides session management for the memory match game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and expiry
//   - Pluggable persistence (JSON files, SQLite, Redis)
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own engine instance plus metadata like
// creation time and last access time.
//
// Session Identifiers:
//
// Generated ids are 4 hex characters from crypto/rand. Callers may choose
// their own id made of letters, digits, '-' and '_'. Lookups ignore case.
//
// Persistence:
//
// SessionPersistence backends store one JSON record per session holding
// the tier and the full game state, including a pending mismatch. A record
// restored after a restart continues exactly where it stopped.
//
//	p, err := session.NewSQLitePersistence("memorymatch.db", configs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(p)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", configs.GetDefault())
package session
