package service

import (
	"sync"
	"time"

	"github.com/wricardo/looney-race/game/engine"
)

// Race status values reported by RaceInfo
const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusFinished = "finished"
)

// RaceInfo provides information about a race session
type RaceInfo struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	DelayMS        int64           `json:"delay_ms"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAccessedAt time.Time       `json:"last_accessed_at"`
	State          engine.Snapshot `json:"state"`
	Result         *engine.Result  `json:"result,omitempty"`
	ItemsOnBoard   int             `json:"items_on_board"`
	TotalEvents    int             `json:"total_events"`
}

// StartOptions configures a new race
type StartOptions struct {
	// Delay is the pause each actor takes between turns. Zero selects the
	// default delay.
	Delay time.Duration
}

// HistoryOptions configures event history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
	Type  string `json:"type"`  // only events of this type when set
}

// HistoryResponse contains paginated race events
type HistoryResponse struct {
	Events      []engine.Event `json:"events"`
	TotalEvents int            `json:"total_events"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}

// Session represents one race held by the session manager
type Session struct {
	ID        string
	Race      engine.Engine
	Delay     time.Duration
	CreatedAt time.Time

	mu             sync.Mutex
	lastAccessedAt time.Time
}

// NewSession wraps a race in a session
func NewSession(id string, race engine.Engine, delay time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		Race:           race,
		Delay:          delay,
		CreatedAt:      now,
		lastAccessedAt: now,
	}
}

// Touch records an access
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessedAt = time.Now()
}

// LastAccessedAt returns the time of the last access
func (s *Session) LastAccessedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessedAt
}
