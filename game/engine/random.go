package engine

import (
	"math/rand"
	"runtime"
	"sync"
	"time"
)

// RandomSource supplies every random choice the race makes: placements,
// directions and goal relocations.
type RandomSource interface {
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// lockedSource makes a math/rand generator safe for use by several races
// at once.
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource returns a RandomSource seeded from the clock
func NewRandomSource() RandomSource {
	return &lockedSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// Pacer decides how long an actor waits between turns. It is called with
// the race lock released.
type Pacer interface {
	Pause()
}

// FixedDelay pauses for the same duration before every turn. A zero delay
// only yields the processor.
type FixedDelay time.Duration

// DefaultDelay is the pause between two turns of the same actor
const DefaultDelay = 200 * time.Millisecond

// Pause sleeps for the delay
func (d FixedDelay) Pause() {
	if d <= 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(time.Duration(d))
}
