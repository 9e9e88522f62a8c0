package grid

import "sort"

// diamond returns the offsets with Manhattan norm <= radius.
func diamond(radius int) []Cell {
	var out []Cell
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if abs(dx)+abs(dy) <= radius {
				out = append(out, Cell{dx, dy})
			}
		}
	}
	return out
}

// square returns the offsets with Chebyshev norm <= radius.
func square(radius int) []Cell {
	out := make([]Cell, 0, (2*radius+1)*(2*radius+1))
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			out = append(out, Cell{dx, dy})
		}
	}
	return out
}

// corners returns the four diagonal offsets at Chebyshev distance d.
func corners(d int) []Cell {
	return []Cell{{-d, -d}, {-d, d}, {d, -d}, {d, d}}
}

// translate moves offsets to origin and keeps only on-board cells.
func translate(origin Cell, offsets []Cell, into CellSet) {
	for _, off := range offsets {
		if c := origin.Add(off); c.Valid() {
			into.Add(c)
		}
	}
}

func sortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool { return cells[i].Less(cells[j]) })
}
