// Package session provides race session management for the Looney Race.
//
// The session package implements:
//   - Thread-safe race storage and retrieval
//   - Race ID generation
//   - Cleanup of finished races
//
// Core Types:
//
// Manager is the session manager that handles all race sessions. Each
// service.Session wraps one engine.Race along with its pacing delay and
// access times.
//
// Race Identifiers:
//
// Races get a random UUID unless the caller supplies an ID. Lookups are
// case-insensitive.
//
// Notifications:
//
// A Manager built WithNotifier registers an observer on every race it
// creates, so each committed turn reaches the notifier (usually the
// WebSocket hub) tagged with the race ID.
//
// Usage:
//
//	manager := session.NewManager(session.WithNotifier(hub))
//	sess, err := manager.Create("", 200*time.Millisecond)
//	if err != nil {
//		return err
//	}
//	sess.Race.Start()
package session
