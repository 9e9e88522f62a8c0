package grid

import "fmt"

// MapDefinition is one immutable puzzle instance.
type MapDefinition struct {
	// Waypoint must be reached first; reaching it flips the stage flag.
	Waypoint Cell
	// Destination becomes targetable once the waypoint has been reached.
	Destination Cell
	// Pickup grants the coat permanently when stepped on.
	Pickup Cell
	// Agents in definition order.
	Agents []Agent

	agentAt map[Cell]Kind
}

// NewMapDefinition validates the landmarks and agents and indexes agent cells.
func NewMapDefinition(waypoint, destination, pickup Cell, agents []Agent) (*MapDefinition, error) {
	for name, c := range map[string]Cell{"waypoint": waypoint, "destination": destination, "pickup": pickup} {
		if !c.Valid() {
			return nil, fmt.Errorf("%s %v is off the board", name, c)
		}
	}
	m := &MapDefinition{
		Waypoint:    waypoint,
		Destination: destination,
		Pickup:      pickup,
		Agents:      append([]Agent(nil), agents...),
		agentAt:     make(map[Cell]Kind, len(agents)),
	}
	for i, a := range m.Agents {
		if _, err := ParseKind(string(a.Kind)); err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		if !a.Pos.Valid() {
			return nil, fmt.Errorf("agent %d at %v is off the board", i, a.Pos)
		}
		m.agentAt[a.Pos] = a.Kind
	}
	return m, nil
}

// AgentAt returns the kind of the agent occupying c, if any.
func (m *MapDefinition) AgentAt(c Cell) (Kind, bool) {
	k, ok := m.agentAt[c]
	return k, ok
}

// Occupied reports whether an agent stands on c.
func (m *MapDefinition) Occupied(c Cell) bool {
	_, ok := m.agentAt[c]
	return ok
}

// Equal compares two definitions field by field, agents in order.
func (m *MapDefinition) Equal(o *MapDefinition) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Waypoint != o.Waypoint || m.Destination != o.Destination || m.Pickup != o.Pickup {
		return false
	}
	if len(m.Agents) != len(o.Agents) {
		return false
	}
	for i := range m.Agents {
		if m.Agents[i] != o.Agents[i] {
			return false
		}
	}
	return true
}
