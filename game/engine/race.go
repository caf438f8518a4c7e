package engine

import (
	"fmt"
	"sync"
	"time"
)

// Observer is told about every committed turn. It runs with the race lock
// held and must not block.
type Observer func(events []Event, snap Snapshot)

// Option customizes a Race
type Option func(*Race)

// WithRandomSource replaces the clock-seeded random source
func WithRandomSource(rnd RandomSource) Option {
	return func(r *Race) {
		r.rnd = rnd
	}
}

// WithPacer sets the pause taken between turns
func WithPacer(p Pacer) Option {
	return func(r *Race) {
		r.pacer = p
	}
}

// WithDelay is WithPacer(FixedDelay(d))
func WithDelay(d time.Duration) Option {
	return WithPacer(FixedDelay(d))
}

// WithRenderer sets the renderer called after each turn
func WithRenderer(renderer Renderer) Option {
	return func(r *Race) {
		r.renderer = renderer
	}
}

// WithObserver adds an observer
func WithObserver(obs Observer) Option {
	return func(r *Race) {
		r.observers = append(r.observers, obs)
	}
}

// Race is one game: the grid, the four actors and the counters that decide
// when it ends. A single mutex guards all of it.
type Race struct {
	mu sync.Mutex

	rules  Rules
	grid   *Grid
	actors []*Actor

	delivered       int
	cycles          int
	privilegedTurns int
	gameOver        bool
	winner          *Actor
	reason          Reason

	events  []Event
	pending []Event

	rnd       RandomSource
	pacer     Pacer
	renderer  Renderer
	observers []Observer

	started bool
	wg      sync.WaitGroup
	done    chan struct{}
}

func newRace(rules Rules, opts []Option) *Race {
	r := &Race{
		rules: rules,
		pacer: FixedDelay(DefaultDelay),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rnd == nil {
		r.rnd = NewRandomSource()
	}
	return r
}

// NewRace sets up a race: the goal, rules.Items items and the four actors,
// each on a random empty cell.
func NewRace(rules Rules, opts ...Option) (*Race, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	r := newRace(rules, opts)
	r.grid = NewGrid(rules.Size)
	r.grid.PlaceGoal(r.grid.RandomEmpty(r.rnd))
	for i := 0; i < rules.Items; i++ {
		r.grid.Set(r.grid.RandomEmpty(r.rnd), Item)
	}

	r.actors = make([]*Actor, len(Cast))
	for i := range Cast {
		a := newActor(i, r.grid.RandomEmpty(r.rnd))
		r.grid.Set(a.Pos, a.Symbol)
		r.actors[i] = a
	}

	return r, nil
}

// Rules returns the rules the race is played with
func (r *Race) Rules() Rules {
	return r.rules
}

// Start launches one goroutine per actor
func (r *Race) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	r.emitLocked(EventStart, nil, Position{}, Position{}, "The race is on!")
	r.flushLocked()
	actors := r.actors
	r.mu.Unlock()

	for _, a := range actors {
		r.wg.Add(1)
		go r.runActor(a)
	}
	go func() {
		r.wg.Wait()
		close(r.done)
	}()

	return nil
}

// Wait blocks until every actor goroutine has exited and returns the result.
// It returns at once for a race that was never started.
func (r *Race) Wait() Result {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()

	if started {
		<-r.done
	}
	return r.Result()
}

// Run starts the race and waits for it to finish
func (r *Race) Run() (Result, error) {
	if err := r.Start(); err != nil {
		return Result{}, err
	}
	return r.Wait(), nil
}

// Done is closed once every actor goroutine has exited
func (r *Race) Done() <-chan struct{} {
	return r.done
}

// Stop ends the race without a winner. Actors see the game-over flag at
// their next turn and exit.
func (r *Race) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameOver {
		return
	}
	r.finishLocked(nil, ReasonStopped)
	r.flushLocked()
}

// IsGameOver returns whether the race has ended
func (r *Race) IsGameOver() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameOver
}

// Started returns whether Start has been called
func (r *Race) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Snapshot returns a consistent copy of the current state
func (r *Race) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Result returns the outcome so far
func (r *Race) Result() Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Result{
		Winner:    copyActor(r.winner),
		Reason:    r.reason,
		Delivered: r.delivered,
		Cycles:    r.cycles,
	}
}

// Events returns a copy of the race history
func (r *Race) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}

// runActor is the loop of one actor goroutine
func (r *Race) runActor(a *Actor) {
	defer r.wg.Done()

	for r.active(a) {
		r.pacer.Pause()

		r.mu.Lock()
		// State may have changed while we slept
		if !a.Alive || r.gameOver {
			r.mu.Unlock()
			return
		}
		r.turnLocked(a, Directions[r.rnd.Intn(len(Directions))])
		r.mu.Unlock()
	}
}

func (r *Race) active(a *Actor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return a.Alive && !r.gameOver
}

// turnLocked is the critical section: one full move-resolve-effects cycle
// for a.
func (r *Race) turnLocked(a *Actor, dir Direction) {
	r.cycles++

	if r.rules.MaxSteps > 0 && r.cycles >= r.rules.MaxSteps {
		r.finishLocked(r.firstAliveLocked(), ReasonStepCap)
		r.flushLocked()
		return
	}

	r.moveLocked(a, dir)

	if a.Privileged && r.rules.RelocateEvery > 0 && !r.gameOver {
		r.privilegedTurns++
		if r.privilegedTurns%r.rules.RelocateEvery == 0 {
			r.relocateGoalLocked(a)
		}
	}

	r.flushLocked()
}

// moveLocked resolves a's move in dir and applies its effects
func (r *Race) moveLocked(a *Actor, dir Direction) {
	from := a.Pos
	r.grid.Clear(from)

	to, veto := ProposeMove(r.grid, a, dir)
	if veto != VetoNone {
		r.grid.Set(from, a.Symbol)
		r.emitLocked(EventBlocked, a, from, from,
			fmt.Sprintf("%c can't move %s from (%d,%d): %s", a.Symbol, dir, from.Row, from.Col, veto))
		return
	}

	dropped := 0
	won := false
	if a.Privileged {
		for _, other := range r.actors {
			if other == a || !other.Alive || other.Pos != to {
				continue
			}
			if other.Carrying {
				other.Carrying = false
				if a.Carrying {
					dropped++
				} else {
					a.Carrying = true
					r.emitLocked(EventTheft, a, from, to,
						fmt.Sprintf("%s stole a carrot from %c!", a.Name, other.Symbol))
				}
			}
			other.Alive = false
			r.grid.Clear(other.Pos)
			r.emitLocked(EventElimination, a, from, to,
				fmt.Sprintf("%s eliminated %c at (%d,%d)", a.Name, other.Symbol, to.Row, to.Col))
		}
	}

	switch {
	case r.grid.At(to) == Item && !a.Carrying:
		a.Carrying = true
		r.grid.Set(to, Empty)
		r.emitLocked(EventPickup, a, from, to,
			fmt.Sprintf("%c picked up a carrot at (%d,%d)", a.Symbol, to.Row, to.Col))

	case r.grid.IsGoal(to) && a.Carrying:
		a.Carrying = false
		r.delivered++
		r.emitLocked(EventDelivery, a, from, to,
			fmt.Sprintf("%c placed a carrot on the mountain! Total: %d", a.Symbol, r.delivered))
		won = r.delivered >= r.rules.WinThreshold
	}

	a.Pos = to
	r.grid.Set(to, a.Symbol)
	r.emitLocked(EventMove, a, from, to,
		fmt.Sprintf("%c moved %s to (%d,%d)", a.Symbol, dir, to.Row, to.Col))
	if won {
		r.finishLocked(a, ReasonDelivered)
	}

	// A carrot Marvin could not take goes back on the board
	for i := 0; i < dropped; i++ {
		p := r.grid.RandomEmpty(r.rnd)
		r.grid.Set(p, Item)
		r.emitLocked(EventDrop, a, to, p,
			fmt.Sprintf("A carrot fell to (%d,%d)", p.Row, p.Col))
	}
}

// relocateGoalLocked is Marvin's time machine
func (r *Race) relocateGoalLocked(a *Actor) {
	from := r.grid.Goal()
	to := r.grid.RandomEmpty(r.rnd)
	r.grid.PlaceGoal(to)
	r.emitLocked(EventRelocation, a, from, to,
		fmt.Sprintf("%s activated the time machine! Mountain moved to (%d,%d)", a.Name, to.Row, to.Col))
}

// finishLocked sets game-over once, recording the winner and the reason
func (r *Race) finishLocked(winner *Actor, reason Reason) {
	if r.gameOver {
		return
	}
	r.gameOver = true
	r.winner = winner
	r.reason = reason

	switch reason {
	case ReasonDelivered:
		r.emitLocked(EventVictory, winner, winner.Pos, winner.Pos,
			fmt.Sprintf("%c wins the race!", winner.Symbol))
	case ReasonStepCap:
		if winner != nil {
			r.emitLocked(EventStepCap, winner, winner.Pos, winner.Pos,
				fmt.Sprintf("Max steps reached! %c is declared the winner!", winner.Symbol))
		} else {
			r.emitLocked(EventStepCap, nil, Position{}, Position{}, "Max steps reached! Nobody is left to win.")
		}
	case ReasonStopped:
		r.emitLocked(EventStopped, nil, Position{}, Position{}, "The race was stopped.")
	}
}

func (r *Race) firstAliveLocked() *Actor {
	for _, a := range r.actors {
		if a.Alive {
			return a
		}
	}
	return nil
}

func (r *Race) emitLocked(t EventType, a *Actor, from, to Position, message string) {
	ev := Event{
		Seq:       len(r.events) + 1,
		Type:      t,
		Cycle:     r.cycles,
		From:      from,
		To:        to,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
	if a != nil {
		ev.Actor = a.Symbol
	}
	r.events = append(r.events, ev)
	r.pending = append(r.pending, ev)
}

// flushLocked hands the events of the current turn to the renderer and the
// observers
func (r *Race) flushLocked() {
	if len(r.pending) == 0 {
		return
	}
	events := r.pending
	r.pending = nil

	snap := r.snapshotLocked()
	if r.renderer != nil {
		r.renderer.Render(events, snap)
	}
	for _, obs := range r.observers {
		obs(events, snap)
	}
}

func (r *Race) snapshotLocked() Snapshot {
	actors := make([]Actor, len(r.actors))
	for i, a := range r.actors {
		actors[i] = *a
	}
	return Snapshot{
		Rows:      r.grid.Rows(),
		Goal:      r.grid.Goal(),
		Actors:    actors,
		Delivered: r.delivered,
		Cycles:    r.cycles,
		GameOver:  r.gameOver,
		Winner:    copyActor(r.winner),
		Reason:    r.reason,
	}
}

func copyActor(a *Actor) *Actor {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
