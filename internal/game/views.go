package game

import (
	"time"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/rules"
)

// GameView is a read-only snapshot of the game for drivers and observers.
// Role names are concealed unless revealed, owned by the viewer, or the game
// is over.
type GameView struct {
	GameID    string
	Phase     string
	Round     int
	StartedAt time.Time
	Players   []PlayerSnapshot
	Verdict   *VerdictView
}

// PlayerSnapshot is one seat in the view.
type PlayerSnapshot struct {
	ID       string
	Name     string
	Alive    bool
	Revealed bool
	Role     string
	Camp     string
	InLove   bool
}

// VerdictView mirrors VictoryResult for serialization.
type VerdictView struct {
	Camp      string
	Lovers    bool
	WinnerIDs []string
	Reason    string
}

func buildGameView(gameID string, gs *GameState, started time.Time, viewerID string) GameView {
	view := GameView{
		GameID:    gameID,
		StartedAt: started,
	}
	if gs == nil {
		view.Phase = rules.PhaseSetup.String()
		return view
	}
	view.Phase = gs.Phase().String()
	view.Round = gs.Round()

	ended := gs.Phase() == rules.PhaseEnded
	for _, p := range gs.Players {
		snapshot := PlayerSnapshot{
			ID:    p.ID,
			Name:  p.Name,
			Alive: p.Alive,
		}
		disclose := ended || p.ID == viewerID || p.HasStatus(StatusRevealed)
		if disclose {
			snapshot.Revealed = p.HasStatus(StatusRevealed)
			snapshot.Role = p.Role.Name()
			snapshot.Camp = p.Camp().String()
			snapshot.InLove = p.HasStatus(StatusInLove)
		}
		view.Players = append(view.Players, snapshot)
	}
	if gs.Verdict != nil {
		view.Verdict = &VerdictView{
			Camp:      gs.Verdict.Camp.String(),
			Lovers:    gs.Verdict.Lovers,
			WinnerIDs: append([]string(nil), gs.Verdict.WinnerIDs...),
			Reason:    gs.Verdict.Reason,
		}
	}
	return view
}
