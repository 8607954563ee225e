package game

import (
	"strings"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
)

// Reply parsing is deliberately thin: free text in, at most a couple of
// structured commands out. Anything unreadable degrades to a pass; the
// validation and resolution layers never see malformed input.

var passWords = map[string]bool{
	"pass": true, "skip": true, "none": true, "abstain": true, "keep": true,
}

func isPass(reply string) bool {
	return passWords[strings.ToLower(strings.TrimSpace(reply))]
}

// parseTarget finds the first roster name or id mentioned in the reply. When
// candidates is non-empty the match is restricted to those ids (revote).
// Longer names win on overlapping mentions so "Alice B" is not mistaken for
// "Alice".
func parseTarget(reply string, gs *GameState, candidates []string) (string, bool) {
	if isPass(reply) {
		return "", false
	}
	allowed := func(id string) bool {
		if len(candidates) == 0 {
			return true
		}
		for _, c := range candidates {
			if c == id {
				return true
			}
		}
		return false
	}

	lower := strings.ToLower(reply)
	bestID := ""
	bestIdx := -1
	bestLen := 0
	for _, p := range gs.Players {
		if !allowed(p.ID) {
			continue
		}
		for _, token := range []string{normalizeName(p.Name), strings.ToLower(p.ID)} {
			if token == "" {
				continue
			}
			idx := strings.Index(lower, token)
			if idx < 0 {
				continue
			}
			if bestIdx == -1 || idx < bestIdx || (idx == bestIdx && len(token) > bestLen) {
				bestID = p.ID
				bestIdx = idx
				bestLen = len(token)
			}
		}
	}
	if bestID == "" {
		return "", false
	}
	return bestID, true
}

// parseTwoTargets extracts two distinct roster mentions in order (cupid).
func parseTwoTargets(reply string, gs *GameState) (string, string, bool) {
	first, ok := parseTarget(reply, gs, nil)
	if !ok {
		return "", "", false
	}
	firstPlayer, _ := gs.Player(first)
	// Strip the first mention and look again.
	lower := strings.ToLower(reply)
	token := normalizeName(firstPlayer.Name)
	idx := strings.Index(lower, token)
	if idx < 0 {
		token = strings.ToLower(firstPlayer.ID)
		idx = strings.Index(lower, token)
	}
	rest := reply[:idx] + reply[idx+len(token):]
	second, ok := parseTarget(rest, gs, nil)
	if !ok || second == first {
		return "", "", false
	}
	return first, second, true
}

// parseRolePick matches a role name or id in the reply against the spare
// cards (thief).
func parseRolePick(reply string, spare []roles.ID) (roles.ID, bool) {
	if isPass(reply) {
		return "", false
	}
	lower := strings.ToLower(reply)
	for _, id := range spare {
		spec, ok := roles.Lookup(id)
		if !ok {
			continue
		}
		if strings.Contains(lower, strings.ToLower(spec.Name)) ||
			strings.Contains(lower, strings.ToLower(string(id))) {
			return id, true
		}
	}
	return "", false
}

// parseNightReply turns one player's free-text night reply into actions.
// The witch may produce up to two (save and poison); everyone else at most
// one.
func parseNightReply(p *Player, seat int, reply string, gs *GameState, r Rules) []*Action {
	if isPass(reply) {
		return nil
	}
	switch p.Role.ID() {
	case roles.Werewolf:
		if target, ok := parseTarget(reply, gs, nil); ok {
			return []*Action{newKillVoteAction(p, seat, target)}
		}
	case roles.Seer:
		if target, ok := parseTarget(reply, gs, nil); ok {
			return []*Action{newInspectAction(p, seat, target)}
		}
	case roles.Guard:
		if target, ok := parseTarget(reply, gs, nil); ok {
			return []*Action{newProtectAction(p, seat, target)}
		}
	case roles.Witch:
		return parseWitchReply(p, seat, reply, gs, r)
	case roles.Cupid:
		if first, second, ok := parseTwoTargets(reply, gs); ok {
			return []*Action{newLinkAction(p, seat, first, second)}
		}
	case roles.Thief:
		if pick, ok := parseRolePick(reply, gs.SpareRoles); ok {
			return []*Action{newSwapAction(p, seat, pick)}
		}
	case roles.WolfBeauty:
		if target, ok := parseTarget(reply, gs, nil); ok {
			return []*Action{newCharmAction(p, seat, target)}
		}
	case roles.Raven:
		if target, ok := parseTarget(reply, gs, nil); ok {
			return []*Action{newMarkAction(p, seat, target)}
		}
	case roles.Hunter:
		if target, ok := parseTarget(reply, gs, nil); ok {
			return []*Action{newRevengeAction(p, seat, target)}
		}
	}
	return nil
}

// parseWitchReply reads SAVE and POISON lines independently; either, both or
// neither may be present.
func parseWitchReply(p *Player, seat int, reply string, gs *GameState, r Rules) []*Action {
	actions := []*Action{}
	for _, line := range strings.Split(reply, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "save") || strings.Contains(lower, "heal"):
			if target, ok := parseTarget(line, gs, nil); ok {
				actions = append(actions, newSaveAction(p, seat, target, r.WitchSelfSave))
			}
		case strings.Contains(lower, "poison"):
			if target, ok := parseTarget(line, gs, nil); ok {
				actions = append(actions, newPoisonAction(p, seat, target))
			}
		}
	}
	return actions
}
