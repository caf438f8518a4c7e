package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/looney-race/game/engine"
	"github.com/wricardo/looney-race/game/service"
)

var (
	ErrRaceNotFound      = service.ErrRaceNotFound
	ErrRaceAlreadyExists = errors.New("race already exists")
	ErrInvalidRaceID     = errors.New("invalid race ID")
)

// Option customizes a Manager
type Option func(*Manager)

// WithNotifier forwards every committed turn of every race to n
func WithNotifier(n service.Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithRaceOptions adds engine options applied to every race the manager
// creates, before the per-race delay
func WithRaceOptions(opts ...engine.Option) Option {
	return func(m *Manager) {
		m.raceOpts = append(m.raceOpts, opts...)
	}
}

// Manager handles race session lifecycle
type Manager struct {
	sessions map[string]*service.Session
	notifier service.Notifier
	raceOpts []engine.Option
	now      func() time.Time
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create sets up a new race under id. An empty id gets a generated one.
// The race is not started.
func (m *Manager) Create(id string, delay time.Duration) (*service.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRaceID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.sessions[key]; exists {
		return nil, ErrRaceAlreadyExists
	}

	opts := append([]engine.Option{}, m.raceOpts...)
	opts = append(opts, engine.WithDelay(delay))
	if m.notifier != nil {
		notifier := m.notifier
		opts = append(opts, engine.WithObserver(func(events []engine.Event, snap engine.Snapshot) {
			notifier.Publish(id, events, snap)
		}))
	}

	race, err := engine.NewRace(engine.DefaultRules(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create race: %w", err)
	}

	session := service.NewSession(id, race, delay)
	m.sessions[key] = session

	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRaceNotFound, id)
	}
	return session, nil
}

// List returns all sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete stops a race and removes its session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	key := strings.ToLower(id)
	session, exists := m.sessions[key]
	if exists {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrRaceNotFound, id)
	}

	session.Race.Stop()
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Touch()
	return nil
}

// CleanupFinished removes finished races that haven't been accessed in the
// given duration. Running races are never removed.
func (m *Manager) CleanupFinished(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0

	for key, session := range m.sessions {
		if !session.Race.IsGameOver() {
			continue
		}
		if session.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}

	return removed
}

// StopAll stops every race, used on shutdown
func (m *Manager) StopAll() {
	for _, session := range m.List() {
		session.Race.Stop()
	}
}

// Count returns the number of sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// validID accepts letters, digits, '-' and '_'
func validID(id string) bool {
	if len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
