// Package oracle computes the ground-truth optimal path length for a map.
//
// The search runs over (x, y, ring, coat, stage). Toggling the ring is free and
// moving one orthogonal step costs one, so a 0-1 BFS with a double-ended queue
// keeps the frontier ordered without a priority queue.
package oracle

import (
	"fmt"

	"github.com/gammazero/deque"

	"ringjudge/internal/grid"
	"ringjudge/internal/logging"
)

// Result is the oracle's verdict for one map.
type Result struct {
	// waypoint and destination are -1 when unreachable.
	waypoint    int
	destination int
	// Explored counts distinct states reached by the search.
	Explored int
}

// Waypoint returns the minimal move count to stand on the waypoint with the stage flipped.
func (r Result) Waypoint() (int, bool) {
	return r.waypoint, r.waypoint >= 0
}

// Destination returns the minimal move count, from the origin and through the
// waypoint, to stand on the destination with the stage flipped.
func (r Result) Destination() (int, bool) {
	return r.destination, r.destination >= 0
}

// Solvable reports whether the destination can be reached at all.
func (r Result) Solvable() bool {
	return r.destination >= 0
}

func (r Result) String() string {
	show := func(v int, ok bool) string {
		if !ok {
			return "unreachable"
		}
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("waypoint=%s destination=%s", show(r.Waypoint()), show(r.Destination()))
}

type node struct {
	cell  grid.Cell
	ring  bool
	coat  bool
	stage bool
}

func (n node) loadout() grid.Loadout {
	return grid.Loadout{Ring: n.ring, Coat: n.coat}
}

// table stores distances for every node; -1 means unvisited.
type table [grid.Size][grid.Size][2][2][2]int

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (t *table) get(n node) int {
	return t[n.cell.X][n.cell.Y][b2i(n.ring)][b2i(n.coat)][b2i(n.stage)]
}

func (t *table) set(n node, d int) {
	t[n.cell.X][n.cell.Y][b2i(n.ring)][b2i(n.coat)][b2i(n.stage)] = d
}

// Solve runs the search from the origin with ring off, no coat and stage 0.
// The result depends only on m and hazards.
func Solve(m *grid.MapDefinition, hazards *grid.HazardCache) Result {
	timer := logging.StartTimer(logging.CategoryOracle, "0-1 BFS")
	defer timer.Stop()

	var dist table
	for x := range dist {
		for y := range dist[x] {
			for r := range dist[x][y] {
				for c := range dist[x][y][r] {
					dist[x][y][r][c] = [2]int{-1, -1}
				}
			}
		}
	}

	start := node{cell: grid.Origin}
	dist.set(start, 0)
	var dq deque.Deque[node]
	dq.PushBack(start)

	for dq.Len() > 0 {
		cur := dq.PopFront()
		moves := dist.get(cur)

		toggled := cur
		toggled.ring = !cur.ring
		if !hazards.Lethal(toggled.loadout(), cur.cell) && !m.Occupied(cur.cell) {
			if d := dist.get(toggled); d < 0 || moves < d {
				dist.set(toggled, moves)
				dq.PushFront(toggled)
			}
		}

		for _, dir := range grid.Directions {
			next := cur.cell.Add(dir)
			if !next.Valid() || m.Occupied(next) || hazards.Lethal(cur.loadout(), next) {
				continue
			}
			step := node{
				cell:  next,
				ring:  cur.ring,
				coat:  cur.coat || next == m.Pickup,
				stage: cur.stage || next == m.Waypoint,
			}
			if d := dist.get(step); d < 0 || moves+1 < d {
				dist.set(step, moves+1)
				dq.PushBack(step)
			}
		}
	}

	res := Result{
		waypoint:    best(&dist, m.Waypoint),
		destination: best(&dist, m.Destination),
	}
	for x := range dist {
		for y := range dist[x] {
			for r := range dist[x][y] {
				for c := range dist[x][y][r] {
					for s := range dist[x][y][r][c] {
						if dist[x][y][r][c][s] >= 0 {
							res.Explored++
						}
					}
				}
			}
		}
	}
	logging.OracleDebug("solved map: %s (explored %d states)", res, res.Explored)
	if !res.Solvable() {
		logging.Oracle("No path to destination %s (explored %d states)", m.Destination, res.Explored)
	}
	return res
}

// best returns the minimum distance over all stage-1 nodes on cell, or -1.
func best(dist *table, cell grid.Cell) int {
	out := -1
	for _, ring := range []bool{false, true} {
		for _, coat := range []bool{false, true} {
			d := dist.get(node{cell: cell, ring: ring, coat: coat, stage: true})
			if d >= 0 && (out < 0 || d < out) {
				out = d
			}
		}
	}
	return out
}
