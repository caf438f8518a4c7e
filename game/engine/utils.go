package engine

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Col - to.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// CountMarkers counts the cells showing m in rendered rows
func CountMarkers(rows []string, m Marker) int {
	count := 0
	for _, row := range rows {
		for i := 0; i < len(row); i++ {
			if Marker(row[i]) == m {
				count++
			}
		}
	}
	return count
}

// ItemsOnBoard returns how many items lie on the grid
func (s Snapshot) ItemsOnBoard() int {
	return CountMarkers(s.Rows, Item)
}

// ItemsCarried returns how many living actors are carrying an item
func (s Snapshot) ItemsCarried() int {
	count := 0
	for _, a := range s.Actors {
		if a.Alive && a.Carrying {
			count++
		}
	}
	return count
}

// ItemsInPlay is the item total: on the board, carried and delivered. It
// never changes during a race.
func (s Snapshot) ItemsInPlay() int {
	return s.ItemsOnBoard() + s.ItemsCarried() + s.Delivered
}

// Alive returns the living actors
func (s Snapshot) Alive() []Actor {
	var alive []Actor
	for _, a := range s.Actors {
		if a.Alive {
			alive = append(alive, a)
		}
	}
	return alive
}

// NearestItem finds the closest item to from and returns its position and distance
func (s Snapshot) NearestItem(from Position) (Position, int, bool) {
	minDistance := -1
	var nearest Position
	found := false

	for row, line := range s.Rows {
		for col := 0; col < len(line); col++ {
			if Marker(line[col]) != Item {
				continue
			}
			pos := Position{Row: row, Col: col}
			distance := ManhattanDistance(from, pos)
			if minDistance == -1 || distance < minDistance {
				minDistance = distance
				nearest = pos
				found = true
			}
		}
	}

	return nearest, minDistance, found
}
