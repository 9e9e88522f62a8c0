package vision

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringjudge/internal/grid"
)

func cellPtr(x, y int) *grid.Cell {
	c := grid.Cell{X: x, Y: y}
	return &c
}

func TestObserveNarrowAtOrigin(t *testing.T) {
	m, err := grid.NewMapDefinition(
		grid.Cell{X: 1, Y: 1}, grid.Cell{X: 5, Y: 5}, grid.Cell{X: 0, Y: 2},
		[]grid.Agent{{Kind: grid.KindOrc, Pos: grid.Cell{X: 2, Y: 0}}},
	)
	require.NoError(t, err)
	hc := grid.NewHazardCache(m)

	marks := Landmarks{Waypoint: &m.Waypoint, Pickup: &m.Pickup}
	got := Observe(m, hc, grid.Origin, grid.Loadout{}, marks, Narrow)

	// (1,0) is in the orc's diamond; (1,1) holds the waypoint; the pickup at (0,2)
	// and the orc at (2,0) are outside the narrow radius.
	want := []Entry{
		{Cell: grid.Cell{X: 1, Y: 0}, Symbol: SymbolHazard},
		{Cell: grid.Cell{X: 1, Y: 1}, Symbol: SymbolWaypoint},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("narrow observation mismatch (-want +got):\n%s", diff)
	}

	wide := Observe(m, hc, grid.Origin, grid.Loadout{}, marks, Wide)
	want = []Entry{
		{Cell: grid.Cell{X: 0, Y: 2}, Symbol: SymbolPickup},
		{Cell: grid.Cell{X: 1, Y: 0}, Symbol: SymbolHazard},
		{Cell: grid.Cell{X: 1, Y: 1}, Symbol: SymbolWaypoint},
		{Cell: grid.Cell{X: 2, Y: 0}, Symbol: "O"},
		{Cell: grid.Cell{X: 2, Y: 1}, Symbol: SymbolHazard},
	}
	if diff := cmp.Diff(want, wide); diff != "" {
		t.Errorf("wide observation mismatch (-want +got):\n%s", diff)
	}
}

func TestObservePrecedenceAndConsumedLandmarks(t *testing.T) {
	m, err := grid.NewMapDefinition(
		grid.Cell{X: 7, Y: 6}, grid.Cell{X: 5, Y: 6}, grid.Cell{X: 7, Y: 5},
		[]grid.Agent{{Kind: grid.KindWatchtower, Pos: grid.Cell{X: 6, Y: 4}}},
	)
	require.NoError(t, err)
	hc := grid.NewHazardCache(m)
	pos := grid.Cell{X: 6, Y: 6}

	// Waypoint and pickup sit inside the watchtower zone; the landmark wins.
	got := Observe(m, hc, pos, grid.Loadout{}, Landmarks{Waypoint: &m.Waypoint, Pickup: &m.Pickup}, Narrow)
	symbols := map[grid.Cell]string{}
	for _, e := range got {
		symbols[e.Cell] = e.Symbol
	}
	assert.Equal(t, SymbolWaypoint, symbols[m.Waypoint])
	assert.Equal(t, SymbolPickup, symbols[m.Pickup])
	assert.Equal(t, SymbolHazard, symbols[m.Destination], "inactive destination shows as hazard")

	// After consumption the waypoint cell falls back to the hazard marker and the
	// destination becomes visible.
	got = Observe(m, hc, pos, grid.Loadout{}, Landmarks{Destination: &m.Destination}, Narrow)
	symbols = map[grid.Cell]string{}
	for _, e := range got {
		symbols[e.Cell] = e.Symbol
	}
	assert.Equal(t, SymbolHazard, symbols[m.Waypoint])
	assert.Equal(t, SymbolDestination, symbols[m.Destination])
	_, self := symbols[pos]
	assert.False(t, self, "own cell is never reported")
}

func TestObserveAgentBeatsLandmark(t *testing.T) {
	m, err := grid.NewMapDefinition(
		grid.Cell{X: 1, Y: 0}, grid.Cell{X: 9, Y: 9}, grid.Cell{X: 8, Y: 8},
		[]grid.Agent{{Kind: grid.KindNazgul, Pos: grid.Cell{X: 1, Y: 0}}},
	)
	require.NoError(t, err)
	hc := grid.NewHazardCache(m)
	got := Observe(m, hc, grid.Origin, grid.Loadout{}, Landmarks{Waypoint: cellPtr(1, 0)}, Narrow)
	for _, e := range got {
		if e.Cell == (grid.Cell{X: 1, Y: 0}) {
			assert.Equal(t, "N", e.Symbol)
		}
	}
}

func TestObserveSorted(t *testing.T) {
	m, err := grid.NewMapDefinition(
		grid.Cell{X: 12, Y: 12}, grid.Cell{X: 11, Y: 12}, grid.Cell{X: 12, Y: 11},
		[]grid.Agent{{Kind: grid.KindUrukHai, Pos: grid.Cell{X: 6, Y: 6}}},
	)
	require.NoError(t, err)
	hc := grid.NewHazardCache(m)
	got := Observe(m, hc, grid.Cell{X: 5, Y: 5}, grid.Loadout{}, Landmarks{}, Wide)
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Cell.Less(got[i].Cell), "entries out of order at %d", i)
	}
}

func TestLines(t *testing.T) {
	lines := Lines([]Entry{{Cell: grid.Cell{X: 1, Y: 2}, Symbol: "P"}})
	assert.Equal(t, []string{"1", "1 2 P"}, lines)
	assert.Equal(t, []string{"0"}, Lines(nil))
}

func TestVariantRadius(t *testing.T) {
	assert.Equal(t, 1, Narrow.Radius())
	assert.Equal(t, 2, Wide.Radius())
	assert.Equal(t, 2, Variant(7).Radius())
}
