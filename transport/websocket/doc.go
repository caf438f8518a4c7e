// Package websocket provides the spectator feed for Looney races.
//
// The websocket package implements:
//   - Race-aware WebSocket connections
//   - Broadcasting of every committed turn to the race's watchers
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection has a read goroutine and a
// write goroutine; only the hub goroutine touches the client registry.
//
// Message Protocol:
//
// Messages are JSON-encoded, one per frame:
//   - {"race_id": "...", "event": "snapshot", "state": {...}} on connect
//   - {"race_id": "...", "event": "turn", "events": [...], "state": {...}}
//     after each committed turn
//
// Clients never send anything; incoming frames are read and discarded.
//
// Race Integration:
//
// Hub implements service.Notifier. Races call Publish from their observer
// with the race lock held, so Publish only queues the turn and never
// blocks. A full queue drops the turn and a slow client is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	sessions := session.NewManager(session.WithNotifier(hub))
package websocket
