package game

import (
	"errors"
	"fmt"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
	"github.com/llmwerewolf/werewolf-server-go/internal/game/rules"
)

var (
	// ErrUnknownPlayer marks a reference to an id outside the roster.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrLoverAsymmetry marks an attempt to break the mutual lover link.
	ErrLoverAsymmetry = errors.New("lover link must be symmetric")
)

// SeerCheck records one inspection result, keyed by round in GameState.
type SeerCheck struct {
	SeerID   string
	TargetID string
	Camp     roles.Camp
}

// roundScratch holds the per-round intent marks. It is cleared exactly once,
// at the entry of each new night; the resolution pass later drains it into
// permanent player state.
type roundScratch struct {
	killVotes     map[string]string // wolf id -> target id
	killTarget    string            // plurality of killVotes, set by resolution
	saveTarget    string
	saveConsumed  bool
	poisonTarget  string
	protectTarget string
	ravenMark     string
	charmTarget   string
}

// GameState is the single authoritative aggregate. It is mutated only by one
// resolution pass at a time; the engine facade serializes access.
type GameState struct {
	Players []*Player
	byID    map[string]*Player

	Phases *rules.PhaseManager

	scratch         roundScratch
	lastProtect     string            // previous round's protect target (guard rule)
	revengeTargets  map[string]string // hunter id -> standing revenge target
	seerChecks      map[int]SeerCheck
	nightDeaths     []string
	dayDeaths       []string
	deadThisCascade map[string]bool

	Tally      *rules.VoteTally
	SpareRoles []roles.ID // undealt roles available to the thief
	Verdict    *VictoryResult
}

// NewGameState builds the aggregate around an ordered roster. Seat order is
// the order given and stays stable for the game's lifetime.
func NewGameState(players []*Player) (*GameState, error) {
	if len(players) == 0 {
		return nil, errors.New("empty roster")
	}
	byID := make(map[string]*Player, len(players))
	for _, p := range players {
		if p.ID == "" {
			return nil, errors.New("player with empty id")
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate player id %q", p.ID)
		}
		byID[p.ID] = p
		p.Alive = true
	}
	return &GameState{
		Players:        players,
		byID:           byID,
		Phases:         rules.NewPhaseManager(),
		revengeTargets: make(map[string]string),
		seerChecks:     make(map[int]SeerCheck),
		Tally:          rules.NewVoteTally(),
	}, nil
}

// Player resolves an id to the roster entry.
func (gs *GameState) Player(id string) (*Player, bool) {
	p, ok := gs.byID[id]
	return p, ok
}

// PlayerByName resolves a display name case-insensitively.
func (gs *GameState) PlayerByName(name string) (*Player, bool) {
	want := normalizeName(name)
	for _, p := range gs.Players {
		if normalizeName(p.Name) == want {
			return p, true
		}
	}
	return nil, false
}

// Round returns the current round number.
func (gs *GameState) Round() int { return gs.Phases.Round() }

// Phase returns the current phase.
func (gs *GameState) Phase() rules.Phase { return gs.Phases.Current() }

// AlivePlayers returns the living players in seat order.
func (gs *GameState) AlivePlayers() []*Player {
	out := make([]*Player, 0, len(gs.Players))
	for _, p := range gs.Players {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// AliveCount returns living players total and the werewolf-camp share.
func (gs *GameState) AliveCount() (total, wolves int) {
	for _, p := range gs.Players {
		if !p.Alive {
			continue
		}
		total++
		if p.Camp() == roles.CampWerewolf {
			wolves++
		}
	}
	return total, wolves
}

// LinkLovers sets the mutual partner references, enforcing symmetry. Linking
// a player who already has a different partner is rejected.
func (gs *GameState) LinkLovers(aID, bID string) error {
	if aID == bID {
		return fmt.Errorf("%w: cannot link a player to themselves", ErrLoverAsymmetry)
	}
	a, ok := gs.byID[aID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, aID)
	}
	b, ok := gs.byID[bID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, bID)
	}
	if a.PartnerID != "" && a.PartnerID != bID {
		return fmt.Errorf("%w: %s already linked to %s", ErrLoverAsymmetry, aID, a.PartnerID)
	}
	if b.PartnerID != "" && b.PartnerID != aID {
		return fmt.Errorf("%w: %s already linked to %s", ErrLoverAsymmetry, bID, b.PartnerID)
	}
	a.PartnerID = bID
	b.PartnerID = aID
	a.SetStatus(StatusInLove)
	b.SetStatus(StatusInLove)
	return nil
}

// ResetNightScratch clears the per-round marks at night entry. Death sets
// were drained into player alive-state during the previous resolution, so
// they reset here as well.
func (gs *GameState) ResetNightScratch() {
	if gs.scratch.protectTarget != "" {
		gs.lastProtect = gs.scratch.protectTarget
	} else {
		gs.lastProtect = ""
	}
	gs.scratch = roundScratch{}
	gs.nightDeaths = nil
	gs.dayDeaths = nil
	gs.Tally.Reset()
	for _, p := range gs.Players {
		p.ClearStatus(StatusProtected)
		p.ClearStatus(StatusPoisoned)
		p.ClearStatus(StatusDoubleVote)
	}
}

// RecordSeerCheck stores the inspection for the current round.
func (gs *GameState) RecordSeerCheck(check SeerCheck) {
	gs.seerChecks[gs.Round()] = check
}

// SeerCheckAt returns the inspection recorded for a round, if any.
func (gs *GameState) SeerCheckAt(round int) (SeerCheck, bool) {
	check, ok := gs.seerChecks[round]
	return check, ok
}

// LastProtectTarget returns the previous round's protect target; the guard
// may not protect the same player twice consecutively.
func (gs *GameState) LastProtectTarget() string { return gs.lastProtect }

// SetRevengeTarget records a hunter's standing revenge declaration.
func (gs *GameState) SetRevengeTarget(hunterID, targetID string) {
	gs.revengeTargets[hunterID] = targetID
}

// RevengeTarget returns the standing revenge declaration for a player.
func (gs *GameState) RevengeTarget(hunterID string) (string, bool) {
	target, ok := gs.revengeTargets[hunterID]
	return target, ok
}

// NightDeaths returns the ids that died during the current night.
func (gs *GameState) NightDeaths() []string {
	out := make([]string, len(gs.nightDeaths))
	copy(out, gs.nightDeaths)
	return out
}

// DayDeaths returns the ids that died during the current day.
func (gs *GameState) DayDeaths() []string {
	out := make([]string, len(gs.dayDeaths))
	copy(out, gs.dayDeaths)
	return out
}
