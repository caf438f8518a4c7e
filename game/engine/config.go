package engine

import (
	"fmt"
	"strings"
)

// ValidateRules checks that a board with these rules can be set up and can end
func ValidateRules(rules Rules) error {
	if rules.Size < MinGridSize || rules.Size > MaxGridSize {
		return fmt.Errorf("%w: size must be between %d and %d, got %d", ErrInvalidRules, MinGridSize, MaxGridSize, rules.Size)
	}
	if rules.Items < 1 {
		return fmt.Errorf("%w: items must be positive, got %d", ErrInvalidRules, rules.Items)
	}
	if rules.WinThreshold < 1 || rules.WinThreshold > rules.Items {
		return fmt.Errorf("%w: win_threshold must be between 1 and items (%d), got %d", ErrInvalidRules, rules.Items, rules.WinThreshold)
	}
	if rules.RelocateEvery < 0 {
		return fmt.Errorf("%w: relocate_every cannot be negative, got %d", ErrInvalidRules, rules.RelocateEvery)
	}
	if rules.MaxSteps < 0 {
		return fmt.Errorf("%w: max_steps cannot be negative, got %d", ErrInvalidRules, rules.MaxSteps)
	}

	// goal + items + actors, plus one spare cell for relocations and drops
	needed := 1 + rules.Items + ActorCount + 1
	if rules.Size*rules.Size < needed {
		return fmt.Errorf("%w: %dx%d grid cannot hold %d cells of content", ErrBoardTooSmall, rules.Size, rules.Size, needed)
	}

	return nil
}

// layoutActor maps a layout character to a cast index. Lowercase symbols
// mark an actor that starts out carrying an item.
func layoutActor(char byte) (index int, carrying bool, ok bool) {
	upper := Marker(strings.ToUpper(string(char))[0])
	for i, c := range Cast {
		if c.Symbol == upper {
			return i, upper != Marker(char), true
		}
	}
	return 0, false, false
}

// NewRaceFromLayout builds a race from rows of markers instead of random
// placement. The layout must be rules.Size rows of rules.Size characters
// holding exactly one goal (F), any number of items (C) and each actor at
// most once (B, D, T, M; lowercase when carrying). Actors missing from the
// layout sit the race out. rules.Items is replaced by the number of items
// in play, and rules.WinThreshold is lowered to that count when the layout
// holds fewer items than the threshold, so a one-carrot layout is won by a
// single delivery.
func NewRaceFromLayout(rules Rules, layout []string, opts ...Option) (*Race, error) {
	if len(layout) != rules.Size {
		return nil, fmt.Errorf("%w: layout must have %d rows to match size, got %d", ErrInvalidLayout, rules.Size, len(layout))
	}

	grid := NewGrid(rules.Size)
	actors := make([]*Actor, len(Cast))
	goals := 0
	items := 0

	for row, line := range layout {
		if len(line) != rules.Size {
			return nil, fmt.Errorf("%w: row %d must have %d characters, got %d", ErrInvalidLayout, row+1, rules.Size, len(line))
		}
		for col := 0; col < len(line); col++ {
			pos := Position{Row: row, Col: col}
			switch char := line[col]; Marker(char) {
			case Empty:
			case Goal:
				goals++
				grid.PlaceGoal(pos)
			case Item:
				items++
				grid.Set(pos, Item)
			default:
				idx, carrying, ok := layoutActor(char)
				if !ok {
					return nil, fmt.Errorf("%w: invalid character '%c' at row %d, col %d", ErrInvalidLayout, char, row+1, col+1)
				}
				if actors[idx] != nil {
					return nil, fmt.Errorf("%w: %s appears more than once", ErrInvalidLayout, Cast[idx].Name)
				}
				actors[idx] = newActor(idx, pos)
				actors[idx].Carrying = carrying
				if carrying {
					items++
				}
				grid.Set(pos, actors[idx].Symbol)
			}
		}
	}

	if goals != 1 {
		return nil, fmt.Errorf("%w: layout must contain exactly one goal (F), got %d", ErrInvalidLayout, goals)
	}

	for i := range actors {
		if actors[i] == nil {
			actors[i] = newActor(i, Position{Row: -1, Col: -1})
			actors[i].Alive = false
		}
	}

	rules.Items = items
	if rules.WinThreshold > items {
		rules.WinThreshold = items
	}
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	r := newRace(rules, opts)
	r.grid = grid
	r.actors = actors
	return r, nil
}

func newActor(id int, pos Position) *Actor {
	return &Actor{
		ID:         id,
		Symbol:     Cast[id].Symbol,
		Name:       Cast[id].Name,
		Pos:        pos,
		Alive:      true,
		Privileged: Cast[id].Privileged,
	}
}
