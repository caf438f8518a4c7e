package engine

// Veto explains why a proposed move left the actor in place
type Veto string

const (
	VetoNone     Veto = ""
	VetoBoundary Veto = "boundary"
	VetoGoal     Veto = "goal"     // goal without a carried item
	VetoOccupied Veto = "occupied" // another actor, and the mover cannot eliminate
	VetoItem     Veto = "item"     // item while already carrying one
)

// ProposeMove returns the cell a would end the turn in when stepping in dir.
// A vetoed move returns a's own position together with the reason.
// The grid is read, never written.
func ProposeMove(g *Grid, a *Actor, dir Direction) (Position, Veto) {
	dr, dc := dir.Delta()
	candidate := Position{Row: a.Pos.Row + dr, Col: a.Pos.Col + dc}

	if !g.InBounds(candidate) {
		return a.Pos, VetoBoundary
	}
	if g.IsGoal(candidate) && !a.Carrying {
		return a.Pos, VetoGoal
	}

	target := g.At(candidate)
	if target.IsActor() && target != a.Symbol && !a.Privileged {
		return a.Pos, VetoOccupied
	}
	if target == Item && a.Carrying {
		return a.Pos, VetoItem
	}

	return candidate, VetoNone
}

// CanMove checks if a could leave its cell in dir
func CanMove(g *Grid, a *Actor, dir Direction) bool {
	_, veto := ProposeMove(g, a, dir)
	return veto == VetoNone
}

// PossibleMoves returns the directions a is currently allowed to take
func PossibleMoves(g *Grid, a *Actor) []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if CanMove(g, a, dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}
