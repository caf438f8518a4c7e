package engine

import "testing"

func TestDirection_Delta(t *testing.T) {
	tests := []struct {
		dir    Direction
		dr, dc int
	}{
		{Right, 0, 1},
		{Left, 0, -1},
		{Down, 1, 0},
		{Up, -1, 0},
	}

	for _, test := range tests {
		t.Run(test.dir.String(), func(t *testing.T) {
			dr, dc := test.dir.Delta()
			if dr != test.dr || dc != test.dc {
				t.Errorf("Delta(%s): expected (%d,%d), got (%d,%d)", test.dir, test.dr, test.dc, dr, dc)
			}
		})
	}
}

func TestProposeMove(t *testing.T) {
	layout := []string{
		"B.C.",
		"dF..",
		"M...",
		"..t.",
	}

	tests := []struct {
		name     string
		symbol   Marker
		dir      Direction
		expected Position
		veto     Veto
	}{
		{"free cell", 'B', Right, Position{0, 1}, VetoNone},
		{"top edge", 'B', Up, Position{0, 0}, VetoBoundary},
		{"left edge", 'B', Left, Position{0, 0}, VetoBoundary},
		{"onto another actor", 'B', Down, Position{0, 0}, VetoOccupied},
		{"goal while carrying", 'D', Right, Position{1, 1}, VetoNone},
		{"privileged onto an actor", 'M', Up, Position{1, 0}, VetoNone},
		{"bottom edge", 'T', Down, Position{3, 2}, VetoBoundary},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := createLayoutRace(t, layout)
			a := actorBySymbol(t, r, test.symbol)

			pos, veto := ProposeMove(r.grid, a, test.dir)
			if pos != test.expected {
				t.Errorf("Expected %v, got %v", test.expected, pos)
			}
			if veto != test.veto {
				t.Errorf("Expected veto %q, got %q", test.veto, veto)
			}
		})
	}
}

func TestProposeMove_GoalWithoutItem(t *testing.T) {
	r := createLayoutRace(t, []string{
		"BF..",
		"....",
		"C...",
		"....",
	})
	a := actorBySymbol(t, r, 'B')

	pos, veto := ProposeMove(r.grid, a, Right)
	if veto != VetoGoal {
		t.Errorf("Expected goal veto, got %q", veto)
	}
	if pos != a.Pos {
		t.Errorf("Expected actor to stay at %v, got %v", a.Pos, pos)
	}
}

func TestProposeMove_ItemWhileCarrying(t *testing.T) {
	r := createLayoutRace(t, []string{
		"bC..",
		"....",
		"...F",
		"....",
	})
	a := actorBySymbol(t, r, 'B')

	if _, veto := ProposeMove(r.grid, a, Right); veto != VetoItem {
		t.Errorf("Expected item veto, got %q", veto)
	}
}

func TestProposeMove_PrivilegedOntoGoalWithoutItem(t *testing.T) {
	// Daffy delivered and is standing on the goal; Marvin has no carrot
	r := createLayoutRace(t, []string{
		"MD..",
		"....",
		"C...",
		"...F",
	})
	r.grid.PlaceGoal(Position{0, 1})
	r.grid.Set(Position{0, 1}, 'D')
	m := actorBySymbol(t, r, 'M')

	if _, veto := ProposeMove(r.grid, m, Right); veto != VetoGoal {
		t.Errorf("Expected goal veto for Marvin, got %q", veto)
	}
}

func TestProposeMove_DoesNotMutate(t *testing.T) {
	r := createLayoutRace(t, []string{
		"B.C.",
		"....",
		"...F",
		"....",
	})
	before := r.grid.Rows()
	a := actorBySymbol(t, r, 'B')

	for _, dir := range Directions {
		ProposeMove(r.grid, a, dir)
	}

	after := r.grid.Rows()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("Row %d changed from %q to %q", i, before[i], after[i])
		}
	}
	if a.Pos != (Position{0, 0}) {
		t.Errorf("Actor position changed to %v", a.Pos)
	}
}

func TestPossibleMoves(t *testing.T) {
	r := createLayoutRace(t, []string{
		"BD..",
		"F...",
		"C...",
		"....",
	})
	a := actorBySymbol(t, r, 'B')

	// right is Daffy, down is the goal, up and left are edges
	if moves := PossibleMoves(r.grid, a); len(moves) != 0 {
		t.Errorf("Expected no possible moves, got %v", moves)
	}

	d := actorBySymbol(t, r, 'D')
	moves := PossibleMoves(r.grid, d)
	if len(moves) != 2 {
		t.Fatalf("Expected 2 possible moves for Daffy, got %v", moves)
	}
	if moves[0] != Right || moves[1] != Down {
		t.Errorf("Expected [right down], got %v", moves)
	}
}
