package engine

// Grid is the shared board. It is not safe for concurrent use; the race
// lock guards it.
type Grid struct {
	cells [][]Marker
	goal  Position
}

// NewGrid creates an empty size×size grid with no goal placed
func NewGrid(size int) *Grid {
	cells := make([][]Marker, size)
	for i := range cells {
		cells[i] = make([]Marker, size)
		for j := range cells[i] {
			cells[i][j] = Empty
		}
	}
	return &Grid{cells: cells, goal: Position{Row: -1, Col: -1}}
}

// Size returns the side length of the grid
func (g *Grid) Size() int {
	return len(g.cells)
}

// InBounds checks if the position lies on the grid
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < len(g.cells) && p.Col >= 0 && p.Col < len(g.cells)
}

// At returns the marker at p
func (g *Grid) At(p Position) Marker {
	return g.cells[p.Row][p.Col]
}

// Set writes m at p
func (g *Grid) Set(p Position, m Marker) {
	g.cells[p.Row][p.Col] = m
}

// Clear empties p. The goal cell goes back to showing the goal.
func (g *Grid) Clear(p Position) {
	if p == g.goal {
		g.cells[p.Row][p.Col] = Goal
		return
	}
	g.cells[p.Row][p.Col] = Empty
}

// Goal returns the goal position
func (g *Grid) Goal() Position {
	return g.goal
}

// IsGoal reports whether p is the goal cell, whoever stands on it
func (g *Grid) IsGoal(p Position) bool {
	return p == g.goal
}

// PlaceGoal moves the goal to p. The old goal cell is emptied unless an
// actor is standing on it.
func (g *Grid) PlaceGoal(p Position) {
	if g.InBounds(g.goal) && g.At(g.goal) == Goal {
		g.cells[g.goal.Row][g.goal.Col] = Empty
	}
	g.goal = p
	g.cells[p.Row][p.Col] = Goal
}

// RandomEmpty draws uniformly random cells until an empty one turns up.
// The caller must make sure at least one empty cell exists.
func (g *Grid) RandomEmpty(rnd RandomSource) Position {
	size := len(g.cells)
	for {
		p := Position{Row: rnd.Intn(size), Col: rnd.Intn(size)}
		if g.At(p) == Empty {
			return p
		}
	}
}

// Count returns how many cells show m
func (g *Grid) Count(m Marker) int {
	count := 0
	for _, row := range g.cells {
		for _, cell := range row {
			if cell == m {
				count++
			}
		}
	}
	return count
}

// Rows returns the grid as one string per row
func (g *Grid) Rows() []string {
	rows := make([]string, len(g.cells))
	for i, row := range g.cells {
		b := make([]byte, len(row))
		for j, cell := range row {
			b[j] = byte(cell)
		}
		rows[i] = string(b)
	}
	return rows
}
