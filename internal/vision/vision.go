// Package vision resolves what the actor can see from its current cell: nearby
// agents, active landmarks and hazard cells, within a Chebyshev radius that depends
// on the session variant.
package vision

import (
	"fmt"
	"sort"

	"ringjudge/internal/grid"
)

// Variant selects the visibility radius.
type Variant int

const (
	// Narrow sees the 8 surrounding cells.
	Narrow Variant = 1
	// Wide sees a radius-2 square.
	Wide Variant = 2
)

// Radius returns the Chebyshev radius for v. Anything other than Narrow is wide.
func (v Variant) Radius() int {
	if v == Narrow {
		return 1
	}
	return 2
}

// Observation symbols for landmarks and hazards. Agents report their kind tag.
const (
	SymbolWaypoint    = "G"
	SymbolPickup      = "C"
	SymbolDestination = "M"
	SymbolHazard      = "P"
)

// Landmarks holds the landmark cells that are still active. A nil pointer means
// consumed (waypoint, pickup) or not yet activated (destination).
type Landmarks struct {
	Waypoint    *grid.Cell
	Pickup      *grid.Cell
	Destination *grid.Cell
}

// Entry is one observed cell.
type Entry struct {
	Cell   grid.Cell
	Symbol string
}

// Line renders the entry as a protocol line.
func (e Entry) Line() string {
	return fmt.Sprintf("%d %d %s", e.Cell.X, e.Cell.Y, e.Symbol)
}

// Observe lists the interesting cells around pos, excluding pos itself, sorted by
// (x, y, symbol). Precedence on a shared cell: agent, then landmark, then hazard.
func Observe(
	m *grid.MapDefinition,
	hazards *grid.HazardCache,
	pos grid.Cell,
	loadout grid.Loadout,
	marks Landmarks,
	variant Variant,
) []Entry {
	radius := variant.Radius()
	zone := hazards.Zone(loadout)

	items := make(map[grid.Cell]string, 3)
	if marks.Waypoint != nil {
		items[*marks.Waypoint] = SymbolWaypoint
	}
	if marks.Pickup != nil {
		items[*marks.Pickup] = SymbolPickup
	}
	if marks.Destination != nil {
		items[*marks.Destination] = SymbolDestination
	}

	var out []Entry
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			c := grid.Cell{X: pos.X + dx, Y: pos.Y + dy}
			if !c.Valid() || c == pos {
				continue
			}
			if kind, ok := m.AgentAt(c); ok {
				out = append(out, Entry{Cell: c, Symbol: string(kind)})
			} else if sym, ok := items[c]; ok {
				out = append(out, Entry{Cell: c, Symbol: sym})
			} else if zone.Has(c) {
				out = append(out, Entry{Cell: c, Symbol: SymbolHazard})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Cell != out[j].Cell {
			return out[i].Cell.Less(out[j].Cell)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Lines renders an observation block: the count line followed by one line per entry.
func Lines(entries []Entry) []string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, fmt.Sprint(len(entries)))
	for _, e := range entries {
		lines = append(lines, e.Line())
	}
	return lines
}
