// Package service provides the business logic layer for the Looney Race.
//
// The service package implements:
//   - Multi-race management
//   - Race start and stop with a per-race turn delay
//   - Board rendering and paginated event history
//
// Core Interfaces:
//
// RaceService is the main service interface providing high-level race operations.
// SessionManager handles race creation, retrieval, and lifecycle.
// Notifier receives every committed turn so transports can push updates.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the race engine. Each session owns one engine.Race whose actors run in
// their own goroutines; the service only starts, stops, and observes them.
//
// Usage:
//
//	sessionMgr := session.NewManager(session.WithNotifier(hub))
//	raceService := service.NewRaceService(sessionMgr)
//
//	info, err := raceService.StartRace(ctx, service.StartOptions{Delay: 200 * time.Millisecond})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Page through what happened, most recent first
//	history, err := raceService.GetEvents(ctx, info.ID, service.HistoryOptions{Limit: 20})
package service
