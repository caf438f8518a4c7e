// Package engine provides the race simulation of the Looney Race.
//
// Four characters (Bugs Bunny, Daffy Duck, Tweety and Marvin) wander a small
// grid at random, each in its own goroutine. They pick up carrots and carry
// them to the mountain; the character that completes the second delivery
// wins. Marvin is privileged: stepping onto another character eliminates it
// (taking its carrot), and every third turn he takes moves the mountain.
//
// Core Types:
//
// Race owns the Grid, the actors and the counters. One mutex guards all of
// it: every turn (move, interactions, effects, rendering) runs as a single
// critical section, while the pause between turns happens outside the lock.
// ProposeMove is the pure movement resolver used inside that section.
//
// Usage:
//
//	race, err := engine.NewRace(engine.DefaultRules(),
//		engine.WithRenderer(engine.NewTextRenderer(os.Stdout)))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := race.Run()
//
// Termination:
//
// A race ends when the delivered count reaches the win threshold, when it is
// stopped, or when the cycle count reaches MaxSteps; the step cap then names
// the first living character as winner. Randomness and pacing are injected
// through RandomSource and Pacer so tests can replay exact turns.
package engine
