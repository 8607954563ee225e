package rules

import (
	"errors"
	"fmt"
)

// Phase represents the broad phases of a Werewolf round.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseNight
	PhaseDayDiscussion
	PhaseDayVoting
	PhaseEnded
)

var phaseNames = map[Phase]string{
	PhaseSetup:         "SETUP",
	PhaseNight:         "NIGHT",
	PhaseDayDiscussion: "DAY_DISCUSSION",
	PhaseDayVoting:     "DAY_VOTING",
	PhaseEnded:         "ENDED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// ErrInvariant marks a violation of the phase machine contract. Callers must
// treat it as fatal; it indicates a programming error, not a game event.
var ErrInvariant = errors.New("phase machine invariant violated")

// PhaseManager tracks the current phase and round progression.
//
// The legal sequence is Setup -> Night -> DayDiscussion -> DayVoting and then
// either back to Night (incrementing the round) or to Ended. Ended is also
// reachable directly from Night, since night deaths can decide the game
// before any discussion happens.
type PhaseManager struct {
	phase Phase
	round int
}

// NewPhaseManager creates a phase manager in Setup at round zero.
func NewPhaseManager() *PhaseManager {
	return &PhaseManager{phase: PhaseSetup, round: 0}
}

// Current returns the phase currently in progress.
func (pm *PhaseManager) Current() Phase {
	return pm.phase
}

// Round returns the current round number. Round 1 begins with the first
// night; during Setup the round is 0.
func (pm *PhaseManager) Round() int {
	return pm.round
}

// Begin leaves Setup and enters the first Night. Re-entering Setup is
// illegal, so Begin may be called exactly once.
func (pm *PhaseManager) Begin() error {
	if pm.phase != PhaseSetup {
		return fmt.Errorf("%w: Begin from %s", ErrInvariant, pm.phase)
	}
	pm.phase = PhaseNight
	pm.round = 1
	return nil
}

// Advance moves to the next phase in the fixed sequence. The DayVoting ->
// Night transition increments the round counter; the caller is responsible
// for clearing round scratch state when Advance reports a new night.
func (pm *PhaseManager) Advance() (Phase, error) {
	switch pm.phase {
	case PhaseSetup:
		return pm.phase, fmt.Errorf("%w: Advance before Begin", ErrInvariant)
	case PhaseNight:
		pm.phase = PhaseDayDiscussion
	case PhaseDayDiscussion:
		pm.phase = PhaseDayVoting
	case PhaseDayVoting:
		pm.phase = PhaseNight
		pm.round++
	case PhaseEnded:
		return pm.phase, fmt.Errorf("%w: Advance from %s", ErrInvariant, pm.phase)
	}
	return pm.phase, nil
}

// End moves the machine into Ended. Only the victory evaluator decides that a
// game is over, and only from a resolved Night or DayVoting boundary.
func (pm *PhaseManager) End() error {
	if pm.phase == PhaseSetup || pm.phase == PhaseEnded {
		return fmt.Errorf("%w: End from %s", ErrInvariant, pm.phase)
	}
	pm.phase = PhaseEnded
	return nil
}
