// Package service provides the business logic layer for the Memory Match Game.
//
// The service package implements:
//   - Multi-session game management
//   - Dealing, revealing and mismatch resolution on top of the engine
//   - Scheduled mismatch resolution for tiers that flip cards back on their own
//   - Game event fan-out to WebSocket clients and an external publisher
//   - Paginated reveal history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages difficulty tier loading and validation.
// EventPublisher and StateListener receive events and states after each change.
// MismatchScheduler delays mismatch resolution; TimerScheduler is the default.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP/NATS)
// and the game engine. All engine calls happen under one service lock, so the
// engine itself needs no synchronization. Listener and publisher calls happen
// after the lock is released.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithStateListener(hub),
//		service.WithEventPublisher(publisher),
//	)
//
//	sessionInfo, err := gameService.CreateSession(ctx, "easy")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Reveal(ctx, sessionInfo.ID, 4)
//
// Mismatch Resolution:
//
// A mismatch leaves both cards visible. Clients either call ResolveMismatch
// with the game_id they saw, or rely on the tier's auto_resolve_mismatch flag,
// in which case the service resolves after mismatch_delay_ms. A resolution
// aimed at an earlier deal, or at an earlier mismatch of the same deal, does
// nothing.
package service
