package game

import (
	"fmt"
	"sort"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
	"github.com/llmwerewolf/werewolf-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// deathCause distinguishes the check chain a death candidate goes through.
type deathCause int

const (
	causeWolfKill   deathCause = iota // pack kill: save, protect, reserve
	causePoison                       // witch potion: reserve only
	causeTrigger                      // revenge shot, charm bond: save, protect, reserve
	causeVote                         // day elimination: no checks (idiot handled earlier)
	causeHeartbreak                   // lover partner death: unconditional
)

var causeText = map[deathCause]string{
	causeWolfKill:   "torn apart in the night",
	causePoison:     "poisoned",
	causeTrigger:    "shot down",
	causeVote:       "voted out by the village",
	causeHeartbreak: "dead of heartbreak",
}

// resolver runs one phase's deterministic resolution pass against the game
// state. It is created fresh per pass; the engine facade guarantees passes
// never interleave.
type resolver struct {
	gs     *GameState
	log    *rules.EventLog
	logger *zap.Logger
	rules  Rules
}

func newResolver(gs *GameState, log *rules.EventLog, logger *zap.Logger, r Rules) *resolver {
	return &resolver{gs: gs, log: log, logger: logger, rules: r}
}

func (r *resolver) emit(event rules.Event) {
	event.Round = r.gs.Round()
	event.Phase = r.gs.Phase()
	r.log.Append(event)
}

// applyActions sorts the collected set and runs validate/apply per action.
// A failed validation drops the action with a reported reason and no state
// change; the pass continues.
func (r *resolver) applyActions(actions []*Action) {
	sortActions(actions)
	for _, action := range actions {
		if err := action.Validate(r.gs); err != nil {
			r.logger.Debug("action rejected",
				zap.String("kind", string(action.Kind)),
				zap.String("actor", action.ActorID),
				zap.Error(err),
			)
			r.emit(rules.Event{
				Type:       rules.EventActionRejected,
				PlayerID:   action.ActorID,
				Message:    fmt.Sprintf("an intended %s came to nothing: %v", action.Kind, err),
				Visibility: []string{action.ActorID},
			})
			continue
		}
		message := action.Apply(r.gs)
		r.emit(rules.Event{
			Type:       actionEventType(action.Kind),
			PlayerID:   action.ActorID,
			TargetID:   firstTarget(action),
			Message:    message,
			Visibility: actionVisibility(r.gs, action),
		})
	}
}

// actionEventType maps the two kinds with a dedicated narrative type; the
// rest share the generic applied-action entry.
func actionEventType(kind ActionKind) rules.EventType {
	switch kind {
	case ActionInspect:
		return rules.EventInspection
	case ActionBallot:
		return rules.EventVoteCast
	default:
		return rules.EventActionApplied
	}
}

func firstTarget(action *Action) string {
	if len(action.Targets) == 0 {
		return ""
	}
	return action.Targets[0]
}

// actionVisibility restricts night intents to the players entitled to know
// them. Wolf kill votes are shared across the pack; everything else is
// private to the actor.
func actionVisibility(gs *GameState, action *Action) []string {
	switch action.Kind {
	case ActionBallot:
		return nil // public
	case ActionKillVote:
		ids := []string{}
		for _, p := range gs.Players {
			if p.Alive && p.Camp() == roles.CampWerewolf {
				ids = append(ids, p.ID)
			}
		}
		return ids
	default:
		return []string{action.ActorID}
	}
}

// resolveKillTarget reduces the pack's individual kill votes to one target by
// plurality, breaking ties by seat order of the target. No votes, no kill.
func (r *resolver) resolveKillTarget() {
	votes := r.gs.scratch.killVotes
	if len(votes) == 0 {
		return
	}
	counts := make(map[string]int, len(votes))
	for _, target := range votes {
		counts[target]++
	}
	max := 0
	for _, count := range counts {
		if count > max {
			max = count
		}
	}
	tied := make([]string, 0, 2)
	for target, count := range counts {
		if count == max {
			tied = append(tied, target)
		}
	}
	sort.Slice(tied, func(i, j int) bool {
		return r.seatOf(tied[i]) < r.seatOf(tied[j])
	})
	r.gs.scratch.killTarget = tied[0]
}

func (r *resolver) seatOf(id string) int {
	for i, p := range r.gs.Players {
		if p.ID == id {
			return i
		}
	}
	return len(r.gs.Players)
}

// runNightCascade drains the recorded intents into deaths. Poison resolves
// first (it ignores save and protect), then the pack kill with its full
// check chain. Triggers and heartbreak chain inside attemptKill.
func (r *resolver) runNightCascade() {
	r.gs.deadThisCascade = make(map[string]bool)
	if target := r.gs.scratch.poisonTarget; target != "" {
		r.attemptKill(target, causePoison)
	}
	r.resolveKillTarget()
	if target := r.gs.scratch.killTarget; target != "" {
		r.attemptKill(target, causeWolfKill)
	}
	if len(r.gs.nightDeaths) == 0 {
		r.emit(rules.Event{
			Type:    rules.EventSurvival,
			Message: "the village wakes to find everyone alive",
		})
	}
}

// attemptKill runs one death candidate through the precedence chain and, on
// an actual death, fires the death triggers. Recursion is bounded because no
// player can die twice within a pass.
func (r *resolver) attemptKill(targetID string, cause deathCause) {
	target, ok := r.gs.Player(targetID)
	if !ok || !target.Alive || r.gs.deadThisCascade[targetID] {
		return
	}

	switch cause {
	case causeWolfKill, causeTrigger:
		if r.gs.scratch.saveTarget == targetID && !r.gs.scratch.saveConsumed {
			r.gs.scratch.saveConsumed = true
			r.emit(rules.Event{
				Type:     rules.EventSurvival,
				TargetID: targetID,
				Message:  fmt.Sprintf("%s was snatched back from death by a bitter draught", target.Name),
			})
			return
		}
		if target.HasStatus(StatusProtected) {
			r.emit(rules.Event{
				Type:     rules.EventSurvival,
				TargetID: targetID,
				Message:  fmt.Sprintf("the blow aimed at %s glanced off the guard's watch", target.Name),
			})
			return
		}
		if target.Role.Consume(roles.AbilityReserve) {
			r.emit(rules.Event{
				Type:     rules.EventSurvival,
				TargetID: targetID,
				Message:  fmt.Sprintf("%s clings to life; the elder's old bones endure one more wound", target.Name),
			})
			return
		}
	case causePoison:
		if target.Role.Consume(roles.AbilityReserve) {
			r.emit(rules.Event{
				Type:     rules.EventSurvival,
				TargetID: targetID,
				Message:  fmt.Sprintf("the poison burns through %s, but the elder's constitution holds", target.Name),
			})
			return
		}
	case causeVote, causeHeartbreak:
		// No protective checks apply.
	}

	r.markDead(target, cause)
}

// markDead flips alive-status, records the death in the phase's death set and
// fires the dead player's triggers in a fixed order: role trigger first, then
// the lover bond.
func (r *resolver) markDead(target *Player, cause deathCause) {
	target.Alive = false
	r.gs.deadThisCascade[target.ID] = true
	if r.gs.Phase() == rules.PhaseNight {
		r.gs.nightDeaths = append(r.gs.nightDeaths, target.ID)
	} else {
		r.gs.dayDeaths = append(r.gs.dayDeaths, target.ID)
	}

	r.logger.Info("player died",
		zap.String("player", target.ID),
		zap.String("role", string(target.Role.ID())),
		zap.Int("round", r.gs.Round()),
		zap.String("phase", r.gs.Phase().String()),
	)
	r.emit(rules.Event{
		Type:     rules.EventDeath,
		TargetID: target.ID,
		Message:  fmt.Sprintf("%s is %s", target.Name, causeText[cause]),
	})
	if r.rules.RevealRoleOnDeath {
		target.SetStatus(StatusRevealed)
		r.emit(rules.Event{
			Type:     rules.EventRoleRevealed,
			TargetID: target.ID,
			Message:  fmt.Sprintf("%s was the %s", target.Name, target.Role.Name()),
		})
	}

	switch target.Role.ID() {
	case roles.Hunter:
		if shot, ok := r.gs.RevengeTarget(target.ID); ok && target.Role.Consume(roles.AbilityRevenge) {
			r.emit(rules.Event{
				Type:     rules.EventActionApplied,
				PlayerID: target.ID,
				TargetID: shot,
				Message:  fmt.Sprintf("with his dying breath, %s pulls the trigger", target.Name),
			})
			r.attemptKill(shot, causeTrigger)
		}
	case roles.WolfBeauty:
		for _, p := range r.gs.Players {
			if p.Alive && p.HasStatus(StatusCharmed) {
				r.emit(rules.Event{
					Type:     rules.EventActionApplied,
					PlayerID: target.ID,
					TargetID: p.ID,
					Message:  fmt.Sprintf("the charm binding %s snaps with its mistress", p.Name),
				})
				r.attemptKill(p.ID, causeTrigger)
			}
		}
	}

	if target.PartnerID != "" {
		if partner, ok := r.gs.Player(target.PartnerID); ok && partner.Alive {
			r.attemptKill(partner.ID, causeHeartbreak)
		}
	}
}

// resolveVote decides the day elimination from the weighted tally. A tie
// yields no elimination unless the revote toggle produced a second tally
// upstream; the idiot check runs before alive-status flips.
func (r *resolver) resolveVote() (eliminated *Player, tied []string) {
	leaders, total := r.gs.Tally.Leaders()
	if len(leaders) == 0 {
		r.emit(rules.Event{
			Type:    rules.EventVoteResolved,
			Message: "no ballots were cast; nobody is eliminated",
		})
		return nil, nil
	}
	if len(leaders) > 1 {
		return nil, leaders
	}

	target, ok := r.gs.Player(leaders[0])
	if !ok || !target.Alive {
		return nil, nil
	}
	r.emit(rules.Event{
		Type:     rules.EventVoteResolved,
		TargetID: target.ID,
		Message:  fmt.Sprintf("the village turns on %s with %d votes", target.Name, total),
	})

	if target.Role.ID() == roles.Idiot && !target.HasStatus(StatusRevealed) {
		target.SetStatus(StatusRevealed)
		target.SetStatus(StatusVoteBanned)
		r.emit(rules.Event{
			Type:     rules.EventSurvival,
			TargetID: target.ID,
			Message:  fmt.Sprintf("%s grins foolishly: the idiot survives, but will never vote again", target.Name),
		})
		return target, nil
	}

	r.gs.deadThisCascade = make(map[string]bool)
	r.attemptKill(target.ID, causeVote)
	return target, nil
}
