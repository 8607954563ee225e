package game

import (
	"fmt"
	"strings"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
	"github.com/llmwerewolf/werewolf-server-go/internal/game/rules"
)

// Prompt building. Each prompt is assembled from that player's own context
// only: their role, their private history and the public transcript. Nothing
// from another player's pending response ever leaks in, which is what makes
// concurrent solicitation safe.

func promptHeader(p *Player, gs *GameState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the %s. Round %d, %s.\n", p.Name, p.Role.Name(), gs.Round(), gs.Phase())
	b.WriteString("Players alive: ")
	names := []string{}
	for _, other := range gs.AlivePlayers() {
		names = append(names, other.Name)
	}
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".\n")
	if p.PartnerID != "" {
		if partner, ok := gs.Player(p.PartnerID); ok {
			fmt.Fprintf(&b, "You are in love with %s; if they die, so do you.\n", partner.Name)
		}
	}
	return b.String()
}

// recentPublicNarrative folds the last visible events into the prompt so a
// model-backed responder has the same information a human at the table has.
func recentPublicNarrative(p *Player, log *rules.EventLog, limit int) string {
	if log == nil {
		return ""
	}
	visible := log.Visible(p.ID)
	if len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}
	var b strings.Builder
	for _, event := range visible {
		b.WriteString(event.Message)
		b.WriteString("\n")
	}
	return b.String()
}

func buildNightPrompt(p *Player, gs *GameState, log *rules.EventLog) string {
	var b strings.Builder
	b.WriteString(promptHeader(p, gs))
	b.WriteString(recentPublicNarrative(p, log, 20))

	switch p.Role.ID() {
	case roles.Werewolf:
		b.WriteString("Choose tonight's victim. Reply with a single player name, or PASS.")
	case roles.Seer:
		if check, ok := gs.SeerCheckAt(gs.Round() - 1); ok {
			if target, found := gs.Player(check.TargetID); found {
				fmt.Fprintf(&b, "Last night you learned %s belongs to the %s camp.\n", target.Name, check.Camp)
			}
		}
		b.WriteString("Choose a player to inspect. Reply with a single player name, or PASS.")
	case roles.Witch:
		fmt.Fprintf(&b, "Potions left: healing %d, poison %d.\n",
			p.Role.UsesLeft(roles.AbilitySave), p.Role.UsesLeft(roles.AbilityPoison))
		b.WriteString("Reply with SAVE <name> and/or POISON <name> on separate lines, or PASS.")
	case roles.Guard:
		if last := gs.LastProtectTarget(); last != "" {
			if target, ok := gs.Player(last); ok {
				fmt.Fprintf(&b, "You protected %s last night and may not protect them again tonight.\n", target.Name)
			}
		}
		b.WriteString("Choose a player to protect. Reply with a single player name, or PASS.")
	case roles.Cupid:
		b.WriteString("Choose two players to bind as lovers. Reply with two names, e.g. \"Alice and Bob\".")
	case roles.Thief:
		names := make([]string, 0, len(gs.SpareRoles))
		for _, id := range gs.SpareRoles {
			if spec, ok := roles.Lookup(id); ok {
				names = append(names, spec.Name)
			}
		}
		fmt.Fprintf(&b, "The spare cards are: %s.\n", strings.Join(names, ", "))
		b.WriteString("Reply with the role you take, or KEEP to stay the thief.")
	case roles.WolfBeauty:
		b.WriteString("Choose a player to charm; they die with you. Reply with a single player name, or PASS.")
	case roles.Raven:
		b.WriteString("Choose a player to mark; their next ballot counts twice. Reply with a single player name, or PASS.")
	case roles.Hunter:
		b.WriteString("Declare who you would shoot if you die. Reply with a single player name, or PASS.")
	default:
		b.WriteString("You have no night action. Reply PASS.")
	}
	return b.String()
}

func buildStatementPrompt(p *Player, gs *GameState, log *rules.EventLog) string {
	var b strings.Builder
	b.WriteString(promptHeader(p, gs))
	b.WriteString(recentPublicNarrative(p, log, 30))
	b.WriteString("Day discussion: address the village in one or two sentences.")
	return b.String()
}

func buildVotePrompt(p *Player, gs *GameState, candidates []string) string {
	var b strings.Builder
	b.WriteString(promptHeader(p, gs))
	if len(candidates) > 0 {
		names := []string{}
		for _, id := range candidates {
			if target, ok := gs.Player(id); ok {
				names = append(names, target.Name)
			}
		}
		fmt.Fprintf(&b, "The vote is tied between: %s. Vote again among them.\n", strings.Join(names, ", "))
	}
	b.WriteString("Vote to eliminate a player. Reply with a single player name, or ABSTAIN.")
	return b.String()
}
