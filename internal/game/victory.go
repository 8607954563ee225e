package game

import (
	"fmt"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
)

// VictoryResult is the verdict of one evaluation. It is produced fresh on
// every call and never cached; a result with HasWinner false must not end
// the game.
type VictoryResult struct {
	HasWinner bool
	Camp      roles.Camp
	Lovers    bool
	WinnerIDs []string
	Reason    string
}

// EvaluateVictory checks the layered victory conditions in fixed priority:
// lover victory, then werewolf dominance, then villager victory. The first
// matching rule wins and later rules are not consulted.
func EvaluateVictory(gs *GameState) VictoryResult {
	alive := gs.AlivePlayers()

	if len(alive) == 2 &&
		alive[0].PartnerID == alive[1].ID &&
		alive[1].PartnerID == alive[0].ID {
		return VictoryResult{
			HasWinner: true,
			Camp:      roles.CampNeutral,
			Lovers:    true,
			WinnerIDs: []string{alive[0].ID, alive[1].ID},
			Reason:    fmt.Sprintf("%s and %s stand alone together; love outlasts the village", alive[0].Name, alive[1].Name),
		}
	}

	wolves := 0
	others := 0
	for _, p := range alive {
		if p.Camp() == roles.CampWerewolf {
			wolves++
		} else {
			others++
		}
	}

	if wolves >= others {
		return VictoryResult{
			HasWinner: true,
			Camp:      roles.CampWerewolf,
			WinnerIDs: campMembers(gs, roles.CampWerewolf),
			Reason:    fmt.Sprintf("the pack matches the village, %d against %d; the hunt is over", wolves, others),
		}
	}

	if wolves == 0 {
		return VictoryResult{
			HasWinner: true,
			Camp:      roles.CampVillager,
			WinnerIDs: campMembers(gs, roles.CampVillager),
			Reason:    "the last werewolf is dead; the village sleeps safely",
		}
	}

	return VictoryResult{}
}

// campMembers lists the living members of a camp in seat order.
func campMembers(gs *GameState, camp roles.Camp) []string {
	out := []string{}
	for _, p := range gs.Players {
		if p.Alive && p.Camp() == camp {
			out = append(out, p.ID)
		}
	}
	return out
}
