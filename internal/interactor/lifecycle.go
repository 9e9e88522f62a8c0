package interactor

import (
	"github.com/felixgeelhaar/statekit"

	"ringjudge/internal/logging"
)

// Lifecycle states of a session.
const (
	StateAwaitingVariant statekit.StateID = "awaiting_variant"
	StateAwaitingCommand statekit.StateID = "awaiting_command"
	StateTerminated      statekit.StateID = "terminated"
)

const (
	eventHandshake statekit.EventType = "HANDSHAKE"
	eventTerminate statekit.EventType = "TERMINATE"
)

// lifecycle is the statechart context; it keeps the entered states for tracing.
type lifecycle struct {
	runID   string
	entered []statekit.StateID
}

func recordEntry(ctx **lifecycle, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx
	var state statekit.StateID
	switch event.Type {
	case eventHandshake:
		state = StateAwaitingCommand
	case eventTerminate:
		state = StateTerminated
	default:
		state = StateAwaitingVariant
	}
	c.entered = append(c.entered, state)
	logging.SessionDebug("[%s] entered %s", c.runID, state)
}

func newLifecycleMachine() (*statekit.MachineConfig[*lifecycle], error) {
	return statekit.NewMachine[*lifecycle]("session").
		WithInitial(StateAwaitingVariant).
		WithContext(&lifecycle{}).
		WithAction("recordEntry", recordEntry).
		State(StateAwaitingVariant).
			OnEntry("recordEntry").
			On(eventHandshake).Target(StateAwaitingCommand).
			On(eventTerminate).Target(StateTerminated).
			Done().
		State(StateAwaitingCommand).
			OnEntry("recordEntry").
			On(eventTerminate).Target(StateTerminated).
			Done().
		State(StateTerminated).
			Final().
			OnEntry("recordEntry").
			Done().
		Build()
}
