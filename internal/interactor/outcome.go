package interactor

import (
	"fmt"
	"time"
)

// Reason classifies how a session ended. Exactly one is attached per outcome.
type Reason string

const (
	ReasonOK                    Reason = "ok"
	ReasonInvalidMoveFormat     Reason = "invalid_move_format"
	ReasonMoveOutOfBounds       Reason = "move_out_of_bounds"
	ReasonNonAdjacentMove       Reason = "non_adjacent_move"
	ReasonSteppedIntoHazard     Reason = "stepped_into_hazard"
	ReasonToggleIntoHazard      Reason = "toggle_into_hazard"
	ReasonRingAlreadyOn         Reason = "ring_already_on"
	ReasonRingAlreadyOff        Reason = "ring_already_off"
	ReasonInvalidEndFormat      Reason = "invalid_end_format"
	ReasonFalseUnsolvable       Reason = "false_unsolvable"
	ReasonFalseSolvable         Reason = "false_solvable"
	ReasonEndedWithoutGoal      Reason = "ended_without_goal"
	ReasonWrongLength           Reason = "wrong_length"
	ReasonInvalidResult         Reason = "invalid_result"
	ReasonNoOutput              Reason = "no_output"
	ReasonUnexpectedTermination Reason = "unexpected_termination"
	ReasonTimeout               Reason = "timeout"
	ReasonUnknownCommand        Reason = "unknown_command"
	ReasonCanceled              Reason = "canceled"
	ReasonSpawnFailed           Reason = "spawn_failed"
)

// Reasons lists every reason code in a stable order.
var Reasons = []Reason{
	ReasonOK,
	ReasonInvalidMoveFormat,
	ReasonMoveOutOfBounds,
	ReasonNonAdjacentMove,
	ReasonSteppedIntoHazard,
	ReasonToggleIntoHazard,
	ReasonRingAlreadyOn,
	ReasonRingAlreadyOff,
	ReasonInvalidEndFormat,
	ReasonFalseUnsolvable,
	ReasonFalseSolvable,
	ReasonEndedWithoutGoal,
	ReasonWrongLength,
	ReasonInvalidResult,
	ReasonNoOutput,
	ReasonUnexpectedTermination,
	ReasonTimeout,
	ReasonUnknownCommand,
	ReasonCanceled,
	ReasonSpawnFailed,
}

// Outcome is the immutable record of one session.
type Outcome struct {
	RunID             string        `json:"run_id"`
	Success           bool          `json:"success"`
	Reason            Reason        `json:"reason"`
	Moves             int           `json:"moves"`
	Toggles           int           `json:"toggles"`
	ReportedLength    *int          `json:"reported_length,omitempty"`
	Runtime           time.Duration `json:"runtime"`
	ClaimedUnsolvable bool          `json:"claimed_unsolvable"`
	WasSolvable       bool          `json:"was_solvable"`
	Transcript        []string      `json:"transcript,omitempty"`
	Diagnostics       string        `json:"diagnostics,omitempty"`
}

// Failed builds an outcome for a run that never reached a live session.
func Failed(runID string, reason Reason, wasSolvable bool, runtime time.Duration, diagnostics string) Outcome {
	return Outcome{
		RunID:       runID,
		Reason:      reason,
		Runtime:     runtime,
		WasSolvable: wasSolvable,
		Diagnostics: diagnostics,
	}
}

func (o Outcome) String() string {
	length := "none"
	if o.ReportedLength != nil {
		length = fmt.Sprint(*o.ReportedLength)
	}
	return fmt.Sprintf("success=%t reason=%s moves=%d toggles=%d length=%s runtime=%s",
		o.Success, o.Reason, o.Moves, o.Toggles, length, o.Runtime.Round(time.Millisecond))
}
