package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/looney-race/game/engine"
)

var (
	ErrInvalidDelay = errors.New("invalid delay")
	ErrRaceNotFound = errors.New("race not found")
)

// MaxDelay bounds the pause a client may ask for
const MaxDelay = 5 * time.Second

// RaceService defines all race-related operations
type RaceService interface {
	// Race lifecycle
	StartRace(ctx context.Context, opts StartOptions) (*RaceInfo, error)
	GetRace(ctx context.Context, raceID string) (*RaceInfo, error)
	ListRaces(ctx context.Context) ([]*RaceInfo, error)
	StopRace(ctx context.Context, raceID string) (*RaceInfo, error)
	DeleteRace(ctx context.Context, raceID string) error

	// Views
	GetBoard(ctx context.Context, raceID string) (string, error)
	GetEvents(ctx context.Context, raceID string, opts HistoryOptions) (*HistoryResponse, error)
	GetRules(ctx context.Context) engine.Rules
}

// SessionManager defines race storage operations
type SessionManager interface {
	Create(id string, delay time.Duration) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// Notifier receives every committed turn of every race. Publish is called
// with the race lock held and must not block.
type Notifier interface {
	Publish(raceID string, events []engine.Event, snap engine.Snapshot)
}

// Event history pagination
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)
