package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wricardo/looney-race/game/engine"
)

// raceServiceImpl implements the RaceService interface
type raceServiceImpl struct {
	sessions     SessionManager
	defaultDelay time.Duration
}

// Option customizes the race service
type Option func(*raceServiceImpl)

// WithDefaultDelay sets the delay used when StartRace is given none
func WithDefaultDelay(d time.Duration) Option {
	return func(s *raceServiceImpl) {
		if d > 0 {
			s.defaultDelay = d
		}
	}
}

// NewRaceService creates a new race service instance
func NewRaceService(sessions SessionManager, opts ...Option) RaceService {
	s := &raceServiceImpl{
		sessions:     sessions,
		defaultDelay: engine.DefaultDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartRace creates a race session and sets its actors running
func (s *raceServiceImpl) StartRace(ctx context.Context, opts StartOptions) (*RaceInfo, error) {
	if opts.Delay < 0 || opts.Delay > MaxDelay {
		return nil, fmt.Errorf("%w: must be between 0 and %s, got %s", ErrInvalidDelay, MaxDelay, opts.Delay)
	}
	delay := opts.Delay
	if delay == 0 {
		delay = s.defaultDelay
	}

	sess, err := s.sessions.Create("", delay)
	if err != nil {
		return nil, fmt.Errorf("failed to create race: %w", err)
	}

	if err := sess.Race.Start(); err != nil {
		return nil, fmt.Errorf("failed to start race: %w", err)
	}

	return s.buildRaceInfo(sess), nil
}

// GetRace returns information about a race
func (s *raceServiceImpl) GetRace(ctx context.Context, raceID string) (*RaceInfo, error) {
	sess, err := s.sessions.Get(raceID)
	if err != nil {
		return nil, err
	}
	sess.Touch()
	return s.buildRaceInfo(sess), nil
}

// ListRaces returns every race, newest first
func (s *raceServiceImpl) ListRaces(ctx context.Context) ([]*RaceInfo, error) {
	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	infos := make([]*RaceInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, s.buildRaceInfo(sess))
	}
	return infos, nil
}

// StopRace ends a race without a winner. Stopping a finished race is a no-op.
func (s *raceServiceImpl) StopRace(ctx context.Context, raceID string) (*RaceInfo, error) {
	sess, err := s.sessions.Get(raceID)
	if err != nil {
		return nil, err
	}

	sess.Touch()
	sess.Race.Stop()

	// Wait for the actor goroutines so the returned state is final
	if sess.Race.Started() {
		select {
		case <-sess.Race.Done():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return s.buildRaceInfo(sess), nil
}

// DeleteRace stops and removes a race
func (s *raceServiceImpl) DeleteRace(ctx context.Context, raceID string) error {
	return s.sessions.Delete(raceID)
}

// GetBoard returns the race board as text
func (s *raceServiceImpl) GetBoard(ctx context.Context, raceID string) (string, error) {
	sess, err := s.sessions.Get(raceID)
	if err != nil {
		return "", err
	}
	sess.Touch()
	return engine.FormatBoard(sess.Race.Snapshot()), nil
}

// GetEvents returns paginated race events
func (s *raceServiceImpl) GetEvents(ctx context.Context, raceID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.sessions.Get(raceID)
	if err != nil {
		return nil, err
	}

	sess.Touch()

	history := sess.Race.Events()
	if opts.Type != "" {
		filtered := make([]engine.Event, 0, len(history))
		for _, ev := range history {
			if string(ev.Type) == opts.Type {
				filtered = append(filtered, ev)
			}
		}
		history = filtered
	}
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageSize
	}
	if opts.Limit > MaxPageSize {
		opts.Limit = MaxPageSize
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	events := []engine.Event{}
	if opts.Page > totalPages {
		return &HistoryResponse{
			Events:      events,
			TotalEvents: total,
			Page:        opts.Page,
			PageSize:    opts.Limit,
			TotalPages:  totalPages,
			HasPrevious: true,
		}, nil
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				events = append(events, history[i])
			}
		} else {
			events = append(events, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Events:      events,
		TotalEvents: total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// GetRules returns the rules every race is played with
func (s *raceServiceImpl) GetRules(ctx context.Context) engine.Rules {
	return engine.DefaultRules()
}

func (s *raceServiceImpl) buildRaceInfo(sess *Session) *RaceInfo {
	snap := sess.Race.Snapshot()

	status := StatusPending
	switch {
	case snap.GameOver:
		status = StatusFinished
	case sess.Race.Started():
		status = StatusRunning
	}

	info := &RaceInfo{
		ID:             sess.ID,
		Status:         status,
		DelayMS:        sess.Delay.Milliseconds(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		State:          snap,
		ItemsOnBoard:   snap.ItemsOnBoard(),
		TotalEvents:    len(sess.Race.Events()),
	}
	if snap.GameOver {
		result := sess.Race.Result()
		info.Result = &result
	}
	return info
}
