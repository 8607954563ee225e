package game

import (
	"fmt"
	"sort"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
)

// ActionKind identifies one command in the closed action set.
type ActionKind string

const (
	ActionSwap     ActionKind = "swap"      // thief takes a spare role
	ActionLink     ActionKind = "link"      // cupid links two lovers
	ActionProtect  ActionKind = "protect"   // guard protection
	ActionKillVote ActionKind = "kill_vote" // one wolf's voice in the pack kill
	ActionCharm    ActionKind = "charm"     // wolf beauty's standing charm
	ActionInspect  ActionKind = "inspect"   // seer camp check
	ActionSave     ActionKind = "save"      // witch healing potion
	ActionPoison   ActionKind = "poison"    // witch lethal potion
	ActionMark     ActionKind = "mark"      // raven double-vote mark
	ActionRevenge  ActionKind = "revenge"   // hunter standing declaration
	ActionBallot   ActionKind = "ballot"    // day vote
)

// kindOrdinal is the stable per-kind tiebreak table. It only matters for
// kinds sharing a priority rank (the witch's two potions are split by rank,
// so in practice it orders nothing but keeps the sort total and reproducible).
var kindOrdinal = map[ActionKind]int{
	ActionSwap:     0,
	ActionLink:     1,
	ActionProtect:  2,
	ActionKillVote: 3,
	ActionCharm:    4,
	ActionInspect:  5,
	ActionSave:     6,
	ActionPoison:   7,
	ActionMark:     8,
	ActionRevenge:  9,
	ActionBallot:   10,
}

// Action is a transient command produced once per phase and consumed once.
// Apply records intents into the round scratch; it never flips alive-status
// directly. The death cascade owns that.
type Action struct {
	Kind     ActionKind
	ActorID  string
	Targets  []string
	Priority int
	seat     int

	Validate func(gs *GameState) error
	Apply    func(gs *GameState) string
}

// sortActions orders a collected action set deterministically: resolution
// priority descending, then the per-kind tiebreak table, then actor seat.
// Submission order never participates.
func sortActions(actions []*Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if kindOrdinal[a.Kind] != kindOrdinal[b.Kind] {
			return kindOrdinal[a.Kind] < kindOrdinal[b.Kind]
		}
		return a.seat < b.seat
	})
}

func requireLivingTarget(gs *GameState, id string) (*Player, error) {
	target, ok := gs.Player(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if !target.Alive {
		return nil, fmt.Errorf("target %s is dead", target.Name)
	}
	return target, nil
}

func requireLivingActor(gs *GameState, id string) (*Player, error) {
	actor, ok := gs.Player(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if !actor.Alive {
		return nil, fmt.Errorf("actor %s is dead", actor.Name)
	}
	return actor, nil
}

func newSwapAction(actor *Player, seat int, pick roles.ID) *Action {
	return &Action{
		Kind:     ActionSwap,
		ActorID:  actor.ID,
		Priority: roles.PriorityThief,
		seat:     seat,
		Validate: func(gs *GameState) error {
			p, err := requireLivingActor(gs, actor.ID)
			if err != nil {
				return err
			}
			if p.Role.UsesLeft(roles.AbilitySwap) == 0 {
				return fmt.Errorf("swap already used")
			}
			for _, spare := range gs.SpareRoles {
				if spare == pick {
					return nil
				}
			}
			return fmt.Errorf("role %s is not among the spare cards", pick)
		},
		Apply: func(gs *GameState) string {
			p, _ := gs.Player(actor.ID)
			p.Role.Consume(roles.AbilitySwap)
			prev := p.Role.Name()
			if err := p.Role.Become(pick); err != nil {
				return fmt.Sprintf("%s fumbled the swap: %v", p.Name, err)
			}
			for i, spare := range gs.SpareRoles {
				if spare == pick {
					gs.SpareRoles = append(gs.SpareRoles[:i], gs.SpareRoles[i+1:]...)
					break
				}
			}
			return fmt.Sprintf("%s discarded the %s card and became the %s", p.Name, prev, p.Role.Name())
		},
	}
}

func newLinkAction(actor *Player, seat int, firstID, secondID string) *Action {
	return &Action{
		Kind:     ActionLink,
		ActorID:  actor.ID,
		Targets:  []string{firstID, secondID},
		Priority: roles.PriorityCupid,
		seat:     seat,
		Validate: func(gs *GameState) error {
			p, err := requireLivingActor(gs, actor.ID)
			if err != nil {
				return err
			}
			if p.Role.UsesLeft(roles.AbilityLink) == 0 {
				return fmt.Errorf("link already used")
			}
			if _, err := requireLivingTarget(gs, firstID); err != nil {
				return err
			}
			if _, err := requireLivingTarget(gs, secondID); err != nil {
				return err
			}
			if firstID == secondID {
				return fmt.Errorf("lovers must be two distinct players")
			}
			return nil
		},
		Apply: func(gs *GameState) string {
			p, _ := gs.Player(actor.ID)
			if err := gs.LinkLovers(firstID, secondID); err != nil {
				return fmt.Sprintf("the arrow missed: %v", err)
			}
			p.Role.Consume(roles.AbilityLink)
			a, _ := gs.Player(firstID)
			b, _ := gs.Player(secondID)
			return fmt.Sprintf("%s and %s are bound together as lovers", a.Name, b.Name)
		},
	}
}

func newProtectAction(actor *Player, seat int, targetID string) *Action {
	return &Action{
		Kind:     ActionProtect,
		ActorID:  actor.ID,
		Targets:  []string{targetID},
		Priority: roles.PriorityGuard,
		seat:     seat,
		Validate: func(gs *GameState) error {
			if _, err := requireLivingActor(gs, actor.ID); err != nil {
				return err
			}
			if _, err := requireLivingTarget(gs, targetID); err != nil {
				return err
			}
			if gs.LastProtectTarget() == targetID {
				return fmt.Errorf("cannot protect the same player two nights in a row")
			}
			return nil
		},
		Apply: func(gs *GameState) string {
			target, _ := gs.Player(targetID)
			gs.scratch.protectTarget = targetID
			target.SetStatus(StatusProtected)
			return fmt.Sprintf("the guard stands watch over %s", target.Name)
		},
	}
}

func newKillVoteAction(actor *Player, seat int, targetID string) *Action {
	return &Action{
		Kind:     ActionKillVote,
		ActorID:  actor.ID,
		Targets:  []string{targetID},
		Priority: roles.PriorityWerewolf,
		seat:     seat,
		Validate: func(gs *GameState) error {
			if _, err := requireLivingActor(gs, actor.ID); err != nil {
				return err
			}
			target, err := requireLivingTarget(gs, targetID)
			if err != nil {
				return err
			}
			if target.Camp() == roles.CampWerewolf {
				return fmt.Errorf("the pack does not hunt its own")
			}
			return nil
		},
		Apply: func(gs *GameState) string {
			if gs.scratch.killVotes == nil {
				gs.scratch.killVotes = make(map[string]string)
			}
			gs.scratch.killVotes[actor.ID] = targetID
			target, _ := gs.Player(targetID)
			return fmt.Sprintf("a wolf's eyes settle on %s", target.Name)
		},
	}
}

func newCharmAction(actor *Player, seat int, targetID string) *Action {
	return &Action{
		Kind:     ActionCharm,
		ActorID:  actor.ID,
		Targets:  []string{targetID},
		Priority: roles.PriorityWolfBeauty,
		seat:     seat,
		Validate: func(gs *GameState) error {
			if _, err := requireLivingActor(gs, actor.ID); err != nil {
				return err
			}
			if targetID == actor.ID {
				return fmt.Errorf("cannot charm yourself")
			}
			_, err := requireLivingTarget(gs, targetID)
			return err
		},
		Apply: func(gs *GameState) string {
			// The charm moves: only one victim is bound at a time.
			for _, p := range gs.Players {
				p.ClearStatus(StatusCharmed)
			}
			target, _ := gs.Player(targetID)
			target.SetStatus(StatusCharmed)
			gs.scratch.charmTarget = targetID
			return fmt.Sprintf("%s falls under the wolf beauty's charm", target.Name)
		},
	}
}

func newInspectAction(actor *Player, seat int, targetID string) *Action {
	return &Action{
		Kind:     ActionInspect,
		ActorID:  actor.ID,
		Targets:  []string{targetID},
		Priority: roles.PrioritySeer,
		seat:     seat,
		Validate: func(gs *GameState) error {
			if _, err := requireLivingActor(gs, actor.ID); err != nil {
				return err
			}
			if targetID == actor.ID {
				return fmt.Errorf("inspecting yourself reveals nothing")
			}
			_, err := requireLivingTarget(gs, targetID)
			return err
		},
		Apply: func(gs *GameState) string {
			target, _ := gs.Player(targetID)
			camp := target.Camp()
			gs.RecordSeerCheck(SeerCheck{SeerID: actor.ID, TargetID: targetID, Camp: camp})
			return fmt.Sprintf("the crystal shows %s belongs to the %s camp", target.Name, camp)
		},
	}
}

func newSaveAction(actor *Player, seat int, targetID string, allowSelf bool) *Action {
	return &Action{
		Kind:     ActionSave,
		ActorID:  actor.ID,
		Targets:  []string{targetID},
		Priority: roles.PriorityWitchSave,
		seat:     seat,
		Validate: func(gs *GameState) error {
			p, err := requireLivingActor(gs, actor.ID)
			if err != nil {
				return err
			}
			if p.Role.UsesLeft(roles.AbilitySave) == 0 {
				return fmt.Errorf("the healing potion is spent")
			}
			if !allowSelf && targetID == actor.ID {
				return fmt.Errorf("the witch may not save herself")
			}
			_, err = requireLivingTarget(gs, targetID)
			return err
		},
		Apply: func(gs *GameState) string {
			p, _ := gs.Player(actor.ID)
			p.Role.Consume(roles.AbilitySave)
			gs.scratch.saveTarget = targetID
			target, _ := gs.Player(targetID)
			return fmt.Sprintf("the witch uncorks the healing potion over %s", target.Name)
		},
	}
}

func newPoisonAction(actor *Player, seat int, targetID string) *Action {
	return &Action{
		Kind:     ActionPoison,
		ActorID:  actor.ID,
		Targets:  []string{targetID},
		Priority: roles.PriorityWitchPoison,
		seat:     seat,
		Validate: func(gs *GameState) error {
			p, err := requireLivingActor(gs, actor.ID)
			if err != nil {
				return err
			}
			if p.Role.UsesLeft(roles.AbilityPoison) == 0 {
				return fmt.Errorf("the lethal potion is spent")
			}
			if targetID == actor.ID {
				return fmt.Errorf("the witch will not poison herself")
			}
			_, err = requireLivingTarget(gs, targetID)
			return err
		},
		Apply: func(gs *GameState) string {
			p, _ := gs.Player(actor.ID)
			p.Role.Consume(roles.AbilityPoison)
			gs.scratch.poisonTarget = targetID
			target, _ := gs.Player(targetID)
			target.SetStatus(StatusPoisoned)
			return fmt.Sprintf("a drop of poison is meant for %s", target.Name)
		},
	}
}

func newMarkAction(actor *Player, seat int, targetID string) *Action {
	return &Action{
		Kind:     ActionMark,
		ActorID:  actor.ID,
		Targets:  []string{targetID},
		Priority: roles.PriorityRaven,
		seat:     seat,
		Validate: func(gs *GameState) error {
			if _, err := requireLivingActor(gs, actor.ID); err != nil {
				return err
			}
			_, err := requireLivingTarget(gs, targetID)
			return err
		},
		Apply: func(gs *GameState) string {
			target, _ := gs.Player(targetID)
			gs.scratch.ravenMark = targetID
			target.SetStatus(StatusDoubleVote)
			return fmt.Sprintf("a black feather lands before %s; their next ballot counts twice", target.Name)
		},
	}
}

func newBallotAction(actor *Player, seat int, targetID string) *Action {
	return &Action{
		Kind:    ActionBallot,
		ActorID: actor.ID,
		Targets: []string{targetID},
		seat:    seat,
		Validate: func(gs *GameState) error {
			p, err := requireLivingActor(gs, actor.ID)
			if err != nil {
				return err
			}
			if !p.CanVote() {
				return fmt.Errorf("%s has lost the right to vote", p.Name)
			}
			_, err = requireLivingTarget(gs, targetID)
			return err
		},
		Apply: func(gs *GameState) string {
			p, _ := gs.Player(actor.ID)
			gs.Tally.Cast(p.ID, targetID, p.VoteWeight())
			target, _ := gs.Player(targetID)
			return fmt.Sprintf("%s votes against %s", p.Name, target.Name)
		},
	}
}

func newRevengeAction(actor *Player, seat int, targetID string) *Action {
	return &Action{
		Kind:     ActionRevenge,
		ActorID:  actor.ID,
		Targets:  []string{targetID},
		Priority: roles.PriorityHunter,
		seat:     seat,
		Validate: func(gs *GameState) error {
			if _, err := requireLivingActor(gs, actor.ID); err != nil {
				return err
			}
			if targetID == actor.ID {
				return fmt.Errorf("the hunter cannot aim at himself")
			}
			_, err := requireLivingTarget(gs, targetID)
			return err
		},
		Apply: func(gs *GameState) string {
			gs.SetRevengeTarget(actor.ID, targetID)
			target, _ := gs.Player(targetID)
			return fmt.Sprintf("the hunter quietly trains his rifle on %s", target.Name)
		},
	}
}
