package engine

import (
	"math/rand"
	"testing"
)

// scriptedSource replays fixed values, then falls back to a seeded generator
type scriptedSource struct {
	values   []int
	next     int
	fallback *rand.Rand
}

func newScriptedSource(values ...int) *scriptedSource {
	return &scriptedSource{values: values, fallback: rand.New(rand.NewSource(1))}
}

func (s *scriptedSource) Intn(n int) int {
	if s.next < len(s.values) {
		v := s.values[s.next]
		s.next++
		return v % n
	}
	return s.fallback.Intn(n)
}

func testRules(size int) Rules {
	rules := DefaultRules()
	rules.Size = size
	rules.MaxSteps = 0
	return rules
}

func createLayoutRace(t *testing.T, layout []string, opts ...Option) *Race {
	t.Helper()
	opts = append([]Option{WithDelay(0)}, opts...)
	r, err := NewRaceFromLayout(testRules(len(layout)), layout, opts...)
	if err != nil {
		t.Fatalf("NewRaceFromLayout failed: %v", err)
	}
	return r
}

func actorBySymbol(t *testing.T, r *Race, symbol Marker) *Actor {
	t.Helper()
	for _, a := range r.actors {
		if a.Symbol == symbol {
			return a
		}
	}
	t.Fatalf("no actor with symbol %c", symbol)
	return nil
}

// turn plays one critical section for the actor with the given symbol
func turn(t *testing.T, r *Race, symbol Marker, dir Direction) {
	t.Helper()
	a := actorBySymbol(t, r, symbol)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turnLocked(a, dir)
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func hasEvent(events []Event, t EventType) bool {
	for _, ev := range events {
		if ev.Type == t {
			return true
		}
	}
	return false
}
