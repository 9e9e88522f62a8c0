// Package interactor drives one candidate through the line protocol: it sends the
// handshake and observations, validates every command against the hazard model,
// and turns the session into exactly one classified Outcome.
package interactor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/google/uuid"

	"ringjudge/internal/grid"
	"ringjudge/internal/logging"
	"ringjudge/internal/oracle"
	"ringjudge/internal/tactile"
	"ringjudge/internal/vision"
)

// Config bounds how long a session may wait.
type Config struct {
	// CommandTimeout is the longest silence tolerated between candidate lines.
	CommandTimeout time.Duration
	// ProcessTimeout caps the whole session.
	ProcessTimeout time.Duration
}

// DefaultConfig returns the judge's standard limits.
func DefaultConfig() Config {
	return Config{
		CommandTimeout: 12 * time.Second,
		ProcessTimeout: 120 * time.Second,
	}
}

// Case is everything a session needs to know about the puzzle.
type Case struct {
	Map     *grid.MapDefinition
	Hazards *grid.HazardCache
	Truth   oracle.Result
	Variant vision.Variant
	// RunID identifies the run; a random one is assigned when empty.
	RunID string
}

// Session owns the actor state for one run.
type Session struct {
	c   Case
	ch  tactile.Channel
	cfg Config
	log *logging.RequestLogger

	fsm   *statekit.Interpreter[*lifecycle]
	trace *lifecycle

	pos        grid.Cell
	loadout    grid.Loadout
	reachedWay bool
	marks      vision.Landmarks
	moves      int
	toggles    int
	transcript []string

	start time.Time
	done  bool
}

// NewSession prepares a session over ch. The session takes ownership of ch and
// closes it when Run returns.
func NewSession(ch tactile.Channel, c Case, cfg Config) (*Session, error) {
	if c.Map == nil || c.Hazards == nil {
		return nil, fmt.Errorf("session requires a map and its hazard cache")
	}
	if cfg.CommandTimeout <= 0 || cfg.ProcessTimeout <= 0 {
		return nil, fmt.Errorf("session timeouts must be positive: %+v", cfg)
	}
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}

	machine, err := newLifecycleMachine()
	if err != nil {
		return nil, fmt.Errorf("build session lifecycle: %w", err)
	}
	trace := &lifecycle{runID: c.RunID}
	fsm := statekit.NewInterpreter(machine)
	fsm.UpdateContext(func(l **lifecycle) {
		*l = trace
	})

	waypoint, pickup := c.Map.Waypoint, c.Map.Pickup
	return &Session{
		c:     c,
		ch:    ch,
		cfg:   cfg,
		log:   logging.WithRequestID(logging.CategorySession, c.RunID).WithField("variant", int(c.Variant)),
		fsm:   fsm,
		trace: trace,
		pos:   grid.Origin,
		marks: vision.Landmarks{Waypoint: &waypoint, Pickup: &pickup},
	}, nil
}

// RunID returns the identifier attached to the outcome.
func (s *Session) RunID() string {
	return s.c.RunID
}

// State returns the current lifecycle state.
func (s *Session) State() statekit.StateID {
	return s.fsm.State().Value
}

// Run drives the session to its single terminal outcome. The channel is torn
// down before Run returns, whatever the outcome.
func (s *Session) Run(ctx context.Context) (out Outcome) {
	timer := logging.StartTimer(logging.CategorySession, "Session "+s.c.RunID)
	s.start = time.Now()
	s.fsm.Start()
	logging.Session("Session %s started: variant %d, solvable %v", s.c.RunID, s.c.Variant, s.c.Truth.Solvable())

	defer func() {
		if err := s.ch.Close(); err != nil {
			logging.SessionWarn("Session %s teardown: %v", s.c.RunID, err)
		}
		out.Diagnostics = s.ch.Diagnostics()
		timer.StopWithThreshold(s.cfg.ProcessTimeout / 2)
	}()

	s.handshake()
	s.fsm.Send(statekit.Event{Type: eventHandshake})
	return s.loop(ctx)
}

func (s *Session) handshake() {
	s.send(strconv.Itoa(int(s.c.Variant)))
	s.send(s.c.Map.Waypoint.String())
	s.sendObservation()
}

func (s *Session) loop(ctx context.Context) Outcome {
	for {
		wait, wallBound := s.nextWait()
		if wait <= 0 {
			return s.fail(ReasonTimeout)
		}

		line, status := s.ch.Receive(ctx, wait)
		switch status {
		case tactile.StatusCanceled:
			return s.fail(ReasonCanceled)
		case tactile.StatusClosed:
			return s.fail(ReasonUnexpectedTermination)
		case tactile.StatusTimeout:
			if wallBound {
				return s.fail(ReasonTimeout)
			}
			return s.fail(ReasonNoOutput)
		}

		s.transcript = append(s.transcript, "< "+line)
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if out, done := s.dispatch(tokens); done {
			return out
		}
	}
}

// nextWait returns how long the next receive may block and whether the session
// wall clock, rather than the silence limit, is the binding bound.
func (s *Session) nextWait() (time.Duration, bool) {
	remaining := s.cfg.ProcessTimeout - time.Since(s.start)
	if remaining < s.cfg.CommandTimeout {
		return remaining, true
	}
	return s.cfg.CommandTimeout, false
}

func (s *Session) dispatch(tokens []string) (Outcome, bool) {
	switch tokens[0] {
	case "m":
		return s.move(tokens)
	case "r":
		return s.toggle(true)
	case "rr":
		return s.toggle(false)
	case "e":
		return s.end(tokens), true
	default:
		return s.fail(ReasonUnknownCommand), true
	}
}

func (s *Session) move(tokens []string) (Outcome, bool) {
	if len(tokens) != 3 {
		return s.fail(ReasonInvalidMoveFormat), true
	}
	x, errX := strconv.Atoi(tokens[1])
	y, errY := strconv.Atoi(tokens[2])
	if errX != nil || errY != nil {
		return s.fail(ReasonInvalidMoveFormat), true
	}
	target := grid.Cell{X: x, Y: y}
	if !target.Valid() {
		return s.fail(ReasonMoveOutOfBounds), true
	}
	if s.pos.Manhattan(target) != 1 {
		return s.fail(ReasonNonAdjacentMove), true
	}
	if s.c.Hazards.Lethal(s.loadout, target) || s.c.Map.Occupied(target) {
		return s.fail(ReasonSteppedIntoHazard), true
	}

	s.pos = target
	s.moves++

	if s.marks.Pickup != nil && *s.marks.Pickup == target {
		s.loadout.Coat = true
		s.marks.Pickup = nil
		s.log.Debug("coat picked up at %s", target)
	}
	firstWaypoint := false
	if s.marks.Waypoint != nil && *s.marks.Waypoint == target {
		s.reachedWay = true
		s.marks.Waypoint = nil
		destination := s.c.Map.Destination
		s.marks.Destination = &destination
		firstWaypoint = true
		s.log.Debug("waypoint reached after %d moves", s.moves)
	}

	// The observation always precedes the destination announcement.
	s.sendObservation()
	if firstWaypoint {
		s.send(s.c.Map.Destination.String())
	}
	return Outcome{}, false
}

func (s *Session) toggle(on bool) (Outcome, bool) {
	if on && s.loadout.Ring {
		return s.fail(ReasonRingAlreadyOn), true
	}
	if !on && !s.loadout.Ring {
		return s.fail(ReasonRingAlreadyOff), true
	}
	next := s.loadout.WithRing(on)
	if s.c.Hazards.Lethal(next, s.pos) {
		return s.fail(ReasonToggleIntoHazard), true
	}
	s.loadout = next
	s.toggles++
	s.sendObservation()
	return Outcome{}, false
}

func (s *Session) end(tokens []string) Outcome {
	if len(tokens) != 2 {
		return s.fail(ReasonInvalidEndFormat)
	}
	value, err := strconv.Atoi(tokens[1])
	if err != nil {
		return s.fail(ReasonInvalidEndFormat)
	}

	atDestination := s.reachedWay && s.pos == s.c.Map.Destination
	success, reason := Verdict(value, atDestination, s.c.Truth)

	out := s.finish(success, reason)
	out.ClaimedUnsolvable = value == -1
	if value >= 0 {
		v := value
		out.ReportedLength = &v
	}
	return out
}

// Verdict judges an end command. value -1 claims the puzzle is unsolvable; any
// other value claims a path length, which only counts when the destination was
// actually reached in the session and the oracle agrees the puzzle is solvable.
func Verdict(value int, atDestination bool, truth oracle.Result) (bool, Reason) {
	expected, solvable := truth.Destination()
	if value == -1 {
		if solvable {
			return false, ReasonFalseUnsolvable
		}
		return true, ReasonOK
	}
	if !atDestination {
		return false, ReasonEndedWithoutGoal
	}
	if !solvable {
		if value >= 0 {
			return false, ReasonFalseSolvable
		}
		return false, ReasonInvalidResult
	}
	if value != expected {
		return false, ReasonWrongLength
	}
	return true, ReasonOK
}

func (s *Session) fail(reason Reason) Outcome {
	return s.finish(false, reason)
}

func (s *Session) finish(success bool, reason Reason) Outcome {
	if s.done {
		panic("interactor: session finished twice")
	}
	s.done = true
	if !success {
		s.ch.Kill()
	}
	s.fsm.Send(statekit.Event{Type: eventTerminate})

	out := Outcome{
		RunID:       s.c.RunID,
		Success:     success,
		Reason:      reason,
		Moves:       s.moves,
		Toggles:     s.toggles,
		Runtime:     time.Since(s.start),
		WasSolvable: s.c.Truth.Solvable(),
		Transcript:  s.transcript,
	}
	if success {
		s.log.Info("verdict %s after %d moves, %d toggles", reason, s.moves, s.toggles)
	} else {
		s.log.Warn("verdict %s at %s (%s) after %d moves", reason, s.pos, s.loadout, s.moves)
	}
	return out
}

func (s *Session) send(line string) {
	s.transcript = append(s.transcript, "> "+line)
	if err := s.ch.Send(line); err != nil {
		// A dead candidate surfaces on the next receive.
		s.log.Debug("send %q: %v", line, err)
	}
}

func (s *Session) sendObservation() {
	entries := vision.Observe(s.c.Map, s.c.Hazards, s.pos, s.loadout, s.marks, s.c.Variant)
	for _, line := range vision.Lines(entries) {
		s.send(line)
	}
}
