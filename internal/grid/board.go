// Package grid models the puzzle board: cells, hazard-casting agents, the immutable
// map definition and the per-loadout hazard zones derived from it.
//
// Everything in this package is a pure function of the map data. Nothing here is
// mutated once a MapDefinition and its HazardCache have been built, so both can be
// shared freely between the oracle and a live session.
package grid

import "fmt"

// Size is the side length of the square board.
const Size = 13

// Cell is a board coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Origin is where every session starts.
var Origin = Cell{X: 0, Y: 0}

// Directions are the four orthogonal steps, in the order the oracle expands them.
var Directions = [4]Cell{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

// InBounds reports whether (x, y) lies on the board.
func InBounds(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

// Valid reports whether the cell lies on the board.
func (c Cell) Valid() bool {
	return InBounds(c.X, c.Y)
}

// Add translates c by the offset d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Manhattan returns the L1 distance between two cells.
func (c Cell) Manhattan(o Cell) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

// Chebyshev returns the L-infinity distance between two cells.
func (c Cell) Chebyshev(o Cell) int {
	return max(abs(c.X-o.X), abs(c.Y-o.Y))
}

// Less orders cells lexicographically by (X, Y).
func (c Cell) Less(o Cell) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

func (c Cell) String() string {
	return fmt.Sprintf("%d %d", c.X, c.Y)
}

// CellSet is an unordered set of cells.
type CellSet map[Cell]struct{}

// Has reports membership.
func (s CellSet) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}

// Add inserts c.
func (s CellSet) Add(c Cell) {
	s[c] = struct{}{}
}

// Sorted returns the members in (X, Y) order.
func (s CellSet) Sorted() []Cell {
	out := make([]Cell, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sortCells(out)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
