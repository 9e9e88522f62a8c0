package grid

import (
	"errors"
	"fmt"
)

// Kind tags a hazard-casting agent.
type Kind string

const (
	// KindOrc casts a radius-1 diamond, shrunk to its own cell by ring or coat.
	KindOrc Kind = "O"
	// KindUrukHai casts a radius-2 diamond, shrunk to radius 1 by ring or coat.
	KindUrukHai Kind = "U"
	// KindNazgul casts a square whose size and corner extension depend on ring and coat.
	KindNazgul Kind = "N"
	// KindWatchtower casts a fixed radius-2 square, extended at the corners by the ring.
	KindWatchtower Kind = "W"
)

// Kinds lists every known agent kind.
var Kinds = []Kind{KindOrc, KindUrukHai, KindNazgul, KindWatchtower}

// ErrUnknownKind is returned when an agent carries a tag outside Kinds.
var ErrUnknownKind = errors.New("unknown agent kind")

// ParseKind validates a raw kind tag.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Loadout is the two-bit actor state that hazard zones depend on.
type Loadout struct {
	Ring bool
	Coat bool
}

// Loadouts enumerates the four combinations in cache order.
var Loadouts = [4]Loadout{
	{Ring: false, Coat: false},
	{Ring: false, Coat: true},
	{Ring: true, Coat: false},
	{Ring: true, Coat: true},
}

func (l Loadout) index() int {
	i := 0
	if l.Ring {
		i |= 2
	}
	if l.Coat {
		i |= 1
	}
	return i
}

// WithRing returns a copy with the ring flag set to on.
func (l Loadout) WithRing(on bool) Loadout {
	l.Ring = on
	return l
}

func (l Loadout) String() string {
	return fmt.Sprintf("ring=%t coat=%t", l.Ring, l.Coat)
}

// Agent is a hazard-casting entity at a fixed cell.
type Agent struct {
	Kind Kind
	Pos  Cell
}

// Zone returns the cells this agent renders lethal for the given loadout, clipped
// to the board. The agent's own cell is part of every zone; collision with the
// agent is nevertheless checked separately by callers.
func (a Agent) Zone(l Loadout) CellSet {
	zone := make(CellSet)
	switch a.Kind {
	case KindOrc:
		radius := 1
		if l.Ring || l.Coat {
			radius = 0
		}
		translate(a.Pos, diamond(radius), zone)
	case KindUrukHai:
		radius := 2
		if l.Ring || l.Coat {
			radius = 1
		}
		translate(a.Pos, diamond(radius), zone)
	case KindNazgul:
		radius, ears := 1, true
		switch {
		case l.Ring:
			// the ring widens the square but the corners stay off
			radius, ears = 2, false
		case l.Coat:
			ears = false
		}
		translate(a.Pos, square(radius), zone)
		if ears {
			translate(a.Pos, corners(radius+1), zone)
		}
	case KindWatchtower:
		translate(a.Pos, square(2), zone)
		if l.Ring {
			translate(a.Pos, corners(3), zone)
		}
	}
	return zone
}
