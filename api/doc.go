// Package api provides HTTP REST API handlers for the Looney Race.
//
// The api package implements:
//   - Race lifecycle endpoints (start, stop, delete)
//   - Race inspection (state, text board, paginated events)
//   - WebSocket upgrade for spectators
//
// Endpoints:
//
// Races:
//   - POST /api/races - Start a race, body {"delay_ms": 200} (optional)
//   - GET /api/races - List races, ?status=running|finished|pending
//   - GET /api/races/{id} - Race info with the current snapshot
//   - GET /api/races/{id}/board - Board as plain text
//   - GET /api/races/{id}/events - Events, ?page=&limit=&order=asc|desc&type=
//   - POST /api/races/{id}/stop - End the race without a winner
//   - DELETE /api/races/{id} - Stop and forget the race
//
// Other:
//   - GET /api/rules - Rules every race is played with
//   - GET /api - Endpoint index
//   - GET /health - Liveness
//   - GET /ws?race={id} - Spectator feed
//
// Error Handling:
//
// Errors are returned as JSON, {"error": "message"}. Unknown races give
// 404, invalid input gives 400.
package api
