package repository

import (
	"testing"

	"github.com/llmwerewolf/werewolf-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFromViewCarriesVerdictAndRoster(t *testing.T) {
	view := game.GameView{
		GameID: "game-1",
		Round:  3,
		Verdict: &game.VerdictView{
			Camp:      "VILLAGER",
			Reason:    "every werewolf has been eliminated",
			WinnerIDs: []string{"v1", "v2"},
		},
		Players: []game.PlayerSnapshot{
			{ID: "w1", Name: "Rex", Role: "Werewolf", Camp: "WEREWOLF", Alive: false},
			{ID: "v1", Name: "Milo", Role: "Villager", Camp: "VILLAGER", Alive: true},
		},
	}

	record := RecordFromView(view, nil)

	assert.Equal(t, "game-1", record.GameID)
	assert.Equal(t, 3, record.Rounds)
	assert.Equal(t, "VILLAGER", record.WinnerCamp)
	assert.False(t, record.LoverWin)
	assert.Equal(t, []string{"v1", "v2"}, record.Winners)
	require.Len(t, record.Roster, 2)
	assert.Equal(t, RosterEntry{ID: "w1", Name: "Rex", Role: "Werewolf", Camp: "WEREWOLF", Alive: false}, record.Roster[0])
}

func TestRecordFromViewWithoutVerdictLeavesOutcomeEmpty(t *testing.T) {
	record := RecordFromView(game.GameView{GameID: "game-2"}, nil)
	assert.Empty(t, record.WinnerCamp)
	assert.Empty(t, record.Winners)
}

func TestSummaryNamesTheLoversOverTheirCamp(t *testing.T) {
	record := GameRecord{
		GameID:     "game-3",
		Rounds:     2,
		WinnerCamp: "WEREWOLF",
		LoverWin:   true,
		Reason:     "only the lovers remain",
	}
	line := record.Summary()
	assert.Contains(t, line, "LOVERS")
	assert.NotContains(t, line, "WEREWOLF")
	assert.Contains(t, line, "2 rounds")
}
