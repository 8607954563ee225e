package game

import (
	"context"
	"strings"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
)

// Responder is the injected response capability: it turns a prompt into
// free text. Implementations may call a remote model, read a terminal, or
// replay a script; the engine does not care. A nil responder means the
// player always passes.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// Status flags are orthogonal player conditions. Alive/dead is tracked
// separately because it is not a transient mark.
type Status uint16

const (
	StatusProtected  Status = 1 << iota // guard protection, this round
	StatusPoisoned                      // witch poison intent, this round
	StatusCharmed                       // wolf beauty's standing charm
	StatusBlocked                       // barred from acting (moderator rule)
	StatusDoubleVote                    // raven mark: next ballot counts twice
	StatusRevealed                      // role publicly known (idiot, death reveal)
	StatusVoteBanned                    // lost voting rights (revealed idiot)
	StatusInLove                        // cupid link member
)

// Player is one seat at the table. The seat index in GameState.Players is
// stable for the whole game; dead players stay in place.
type Player struct {
	ID        string
	Name      string
	Role      *roles.Role
	Responder Responder

	Alive     bool
	statuses  Status
	PartnerID string
}

// HasStatus reports whether the flag is set.
func (p *Player) HasStatus(flag Status) bool {
	return p.statuses&flag != 0
}

// SetStatus sets the flag.
func (p *Player) SetStatus(flag Status) {
	p.statuses |= flag
}

// ClearStatus clears the flag.
func (p *Player) ClearStatus(flag Status) {
	p.statuses &^= flag
}

// Camp returns the player's current faction.
func (p *Player) Camp() roles.Camp {
	return p.Role.Camp()
}

// VoteWeight returns the ballot weight for the day vote.
func (p *Player) VoteWeight() int {
	if p.HasStatus(StatusDoubleVote) {
		return 2
	}
	return 1
}

// CanVote reports whether the player may cast a day ballot.
func (p *Player) CanVote() bool {
	return p.Alive && !p.HasStatus(StatusVoteBanned)
}

// canActAtNight is the role capability query: alive, not blocked, the role
// acts at night, uses remain, and first-night-only roles are inside their
// window. The guard's no-repeat rule is deliberately not checked here; it is
// validated on the action so an illegal repeat is rejected, not altered.
func (p *Player) canActAtNight(round int) bool {
	if !p.Alive || p.HasStatus(StatusBlocked) {
		return false
	}
	spec := p.Role.Spec
	if !spec.ActsAtNight {
		return false
	}
	if spec.FirstNight && round != 1 {
		return false
	}
	switch spec.ID {
	case roles.Witch:
		return p.Role.UsesLeft(roles.AbilitySave) > 0 || p.Role.UsesLeft(roles.AbilityPoison) > 0
	case roles.Cupid:
		return p.Role.UsesLeft(roles.AbilityLink) > 0
	case roles.Thief:
		return p.Role.UsesLeft(roles.AbilitySwap) > 0
	case roles.Hunter:
		return p.Role.UsesLeft(roles.AbilityRevenge) > 0
	}
	return true
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
