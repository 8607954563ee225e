package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
	"github.com/llmwerewolf/werewolf-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Rules are the immutable per-game toggles, resolved from configuration
// before Setup and never changed while a game runs.
type Rules struct {
	RevoteOnTie       bool
	RevealRoleOnDeath bool
	WitchSelfSave     bool
	ResponseTimeout   time.Duration
}

// DefaultRules returns the toggles a bare game uses.
func DefaultRules() Rules {
	return Rules{
		RevealRoleOnDeath: true,
		WitchSelfSave:     true,
		ResponseTimeout:   60 * time.Second,
	}
}

// PlayerSetup is one roster entry handed to Setup: a stable id, a display
// name, the assigned role and the injected response capability (nil means
// the player always passes).
type PlayerSetup struct {
	ID        string
	Name      string
	Role      roles.ID
	Responder Responder
}

// ErrGameOver is returned by RunPhase once the game has ended.
var ErrGameOver = errors.New("game is over")

// WerewolfEngine orchestrates full rounds: night, day discussion, day vote.
// It owns the single authoritative GameState and serializes all resolution
// passes behind its mutex; the only suspension points are the response
// solicitations, which happen before anything is committed.
type WerewolfEngine struct {
	logger *zap.Logger
	rules  Rules

	mu         sync.Mutex
	gameID     string
	state      *GameState
	events     *rules.EventLog
	transcript *Transcript
	started    time.Time
}

// NewWerewolfEngine creates an engine with the given rule toggles.
func NewWerewolfEngine(r Rules, logger *zap.Logger) *WerewolfEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if r.ResponseTimeout <= 0 {
		r.ResponseTimeout = DefaultRules().ResponseTimeout
	}
	return &WerewolfEngine{
		logger: logger,
		rules:  r,
		events: rules.NewEventLog(),
	}
}

// Setup validates the roster and creates the game state. It must be called
// exactly once before the first RunPhase. Spare roles feed the thief's
// first-night swap; a roster containing a thief requires exactly two.
func (e *WerewolfEngine) Setup(roster []PlayerSetup, spare []roles.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != nil {
		return fmt.Errorf("%w: Setup called twice", rules.ErrInvariant)
	}
	if len(roster) < 4 {
		return fmt.Errorf("roster too small: %d players", len(roster))
	}

	players := make([]*Player, 0, len(roster))
	hasThief := false
	for _, entry := range roster {
		role, err := roles.New(entry.Role)
		if err != nil {
			return fmt.Errorf("player %s: %w", entry.ID, err)
		}
		if entry.Role == roles.Thief {
			hasThief = true
		}
		name := entry.Name
		if name == "" {
			name = entry.ID
		}
		players = append(players, &Player{
			ID:        entry.ID,
			Name:      name,
			Role:      role,
			Responder: entry.Responder,
		})
	}
	if hasThief && len(spare) != 2 {
		return fmt.Errorf("a thief needs exactly 2 spare roles, got %d", len(spare))
	}
	for _, id := range spare {
		if _, ok := roles.Lookup(id); !ok {
			return fmt.Errorf("unknown spare role %q", id)
		}
	}

	state, err := NewGameState(players)
	if err != nil {
		return err
	}
	state.SpareRoles = append([]roles.ID(nil), spare...)

	e.gameID = uuid.NewString()
	e.state = state
	e.transcript = NewTranscript(e.gameID)
	e.started = time.Now()

	e.logger.Info("game created",
		zap.String("game_id", e.gameID),
		zap.Int("players", len(players)),
	)
	e.events.Append(rules.Event{
		Type:    rules.EventGameStarted,
		Message: fmt.Sprintf("a game of werewolf begins with %d players", len(players)),
	})
	return nil
}

// GameID returns the engine's game identifier.
func (e *WerewolfEngine) GameID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gameID
}

// Events returns the narrative log for sinks and drivers.
func (e *WerewolfEngine) Events() *rules.EventLog {
	return e.events
}

// Transcript returns the per-phase snapshot record.
func (e *WerewolfEngine) Transcript() *Transcript {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transcript
}

// RunPhase executes the current phase to its boundary and advances the
// machine. It returns the phase that was executed. Once the game is over it
// returns ErrGameOver; a cancelled context aborts before any intent is
// committed, leaving the state at the previous boundary.
func (e *WerewolfEngine) RunPhase(ctx context.Context) (rules.Phase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		return rules.PhaseSetup, errors.New("Setup has not been called")
	}

	phase := e.state.Phase()
	switch phase {
	case rules.PhaseSetup:
		if err := e.state.Phases.Begin(); err != nil {
			return phase, err
		}
		e.enterNight()
		return phase, nil
	case rules.PhaseNight:
		return phase, e.runNight(ctx)
	case rules.PhaseDayDiscussion:
		return phase, e.runDiscussion(ctx)
	case rules.PhaseDayVoting:
		return phase, e.runVote(ctx)
	case rules.PhaseEnded:
		return phase, ErrGameOver
	}
	return phase, fmt.Errorf("%w: unknown phase %s", rules.ErrInvariant, phase)
}

// Run advances phases until the victory evaluator ends the game or the
// context is cancelled. It returns the final verdict.
func (e *WerewolfEngine) Run(ctx context.Context) (VictoryResult, error) {
	for {
		if err := ctx.Err(); err != nil {
			return VictoryResult{}, err
		}
		_, err := e.RunPhase(ctx)
		if errors.Is(err, ErrGameOver) {
			e.mu.Lock()
			verdict := *e.state.Verdict
			e.mu.Unlock()
			return verdict, nil
		}
		if err != nil {
			return VictoryResult{}, err
		}
	}
}

// enterNight is the one place round scratch is reset.
func (e *WerewolfEngine) enterNight() {
	e.state.ResetNightScratch()
	e.emitPhaseChange()
	e.transcript.Record(e.state)
}

func (e *WerewolfEngine) emitPhaseChange() {
	e.events.Append(rules.Event{
		Type:    rules.EventPhaseChanged,
		Round:   e.state.Round(),
		Phase:   e.state.Phase(),
		Message: fmt.Sprintf("round %d: %s", e.state.Round(), e.state.Phase()),
	})
}

func (e *WerewolfEngine) runNight(ctx context.Context) error {
	actions, err := e.collectNightActions(ctx)
	if err != nil {
		return err
	}

	res := newResolver(e.state, e.events, e.logger, e.rules)
	res.applyActions(actions)
	res.runNightCascade()
	e.transcript.Record(e.state)

	if e.checkVictory() {
		return nil
	}
	if _, err := e.state.Phases.Advance(); err != nil {
		return err
	}
	e.emitPhaseChange()
	return nil
}

func (e *WerewolfEngine) runDiscussion(ctx context.Context) error {
	speakers := e.state.AlivePlayers()
	prompts := make(map[string]string, len(speakers))
	for _, p := range speakers {
		prompts[p.ID] = buildStatementPrompt(p, e.state, e.events)
	}
	replies, err := e.solicit(ctx, speakers, prompts)
	if err != nil {
		return err
	}
	for _, p := range speakers {
		reply, ok := replies[p.ID]
		if !ok || reply == "" {
			continue
		}
		e.events.Append(rules.Event{
			Type:     rules.EventStatement,
			Round:    e.state.Round(),
			Phase:    e.state.Phase(),
			PlayerID: p.ID,
			Message:  fmt.Sprintf("%s: %s", p.Name, reply),
		})
	}
	if _, err := e.state.Phases.Advance(); err != nil {
		return err
	}
	e.emitPhaseChange()
	return nil
}

func (e *WerewolfEngine) runVote(ctx context.Context) error {
	res := newResolver(e.state, e.events, e.logger, e.rules)

	_, tied, err := e.voteOnce(ctx, res, nil)
	if err != nil {
		return err
	}
	if len(tied) > 0 && e.rules.RevoteOnTie {
		e.events.Append(rules.Event{
			Type:    rules.EventVoteResolved,
			Round:   e.state.Round(),
			Phase:   e.state.Phase(),
			Message: "the vote is tied; the village votes again among the tied",
		})
		e.state.Tally.Reset()
		_, tied, err = e.voteOnce(ctx, res, tied)
		if err != nil {
			return err
		}
	}
	if len(tied) > 0 {
		e.events.Append(rules.Event{
			Type:    rules.EventVoteResolved,
			Round:   e.state.Round(),
			Phase:   e.state.Phase(),
			Message: "the vote is tied; nobody is eliminated today",
		})
	}
	e.transcript.Record(e.state)

	if e.checkVictory() {
		return nil
	}
	if _, err := e.state.Phases.Advance(); err != nil {
		return err
	}
	e.enterNight()
	return nil
}

// voteOnce solicits ballots (restricted to candidates on a revote), applies
// them and resolves the tally.
func (e *WerewolfEngine) voteOnce(ctx context.Context, res *resolver, candidates []string) (*Player, []string, error) {
	voters := []*Player{}
	prompts := make(map[string]string)
	for _, p := range e.state.AlivePlayers() {
		if !p.CanVote() {
			continue
		}
		voters = append(voters, p)
		prompts[p.ID] = buildVotePrompt(p, e.state, candidates)
	}
	replies, err := e.solicit(ctx, voters, prompts)
	if err != nil {
		return nil, nil, err
	}

	actions := []*Action{}
	for seat, p := range e.state.Players {
		reply, ok := replies[p.ID]
		if !ok {
			continue
		}
		target, ok := parseTarget(reply, e.state, candidates)
		if !ok {
			e.emitPass(p, "cast no readable ballot")
			continue
		}
		actions = append(actions, newBallotAction(p, seat, target))
	}
	res.applyActions(actions)
	eliminated, tied := res.resolveVote()
	return eliminated, tied, nil
}

func (e *WerewolfEngine) checkVictory() bool {
	verdict := EvaluateVictory(e.state)
	if !verdict.HasWinner {
		return false
	}
	e.state.Verdict = &verdict
	if err := e.state.Phases.End(); err != nil {
		// End is only called from resolved boundaries; a failure here is a
		// programming error and must not be swallowed.
		e.logger.Fatal("failed to end game", zap.Error(err))
	}
	e.events.Append(rules.Event{
		Type:    rules.EventGameEnded,
		Round:   e.state.Round(),
		Phase:   rules.PhaseEnded,
		Message: verdict.Reason,
	})
	for _, p := range e.state.Players {
		e.events.Append(rules.Event{
			Type:     rules.EventRoleRevealed,
			Round:    e.state.Round(),
			Phase:    rules.PhaseEnded,
			TargetID: p.ID,
			Message:  fmt.Sprintf("%s was the %s", p.Name, p.Role.Name()),
		})
	}
	e.transcript.Record(e.state)
	e.logger.Info("game ended",
		zap.String("game_id", e.gameID),
		zap.String("winner", verdict.Camp.String()),
		zap.Bool("lovers", verdict.Lovers),
		zap.Int("rounds", e.state.Round()),
	)
	return true
}

func (e *WerewolfEngine) emitPass(p *Player, why string) {
	e.events.Append(rules.Event{
		Type:       rules.EventResponsePassed,
		Round:      e.state.Round(),
		Phase:      e.state.Phase(),
		PlayerID:   p.ID,
		Message:    fmt.Sprintf("%s %s this phase", p.Name, why),
		Visibility: []string{p.ID},
	})
}

// solicit queries every listed player concurrently, each call bounded by the
// configured timeout. A timeout or responder failure degrades to an implicit
// pass; only cancellation of the parent context aborts the phase. Nothing is
// committed to game state here, so wall-clock completion order cannot affect
// the outcome.
func (e *WerewolfEngine) solicit(ctx context.Context, players []*Player, prompts map[string]string) (map[string]string, error) {
	type result struct {
		id    string
		reply string
		err   error
	}

	results := make(chan result, len(players))
	var wg sync.WaitGroup
	for _, p := range players {
		responder := p.Responder
		prompt := prompts[p.ID]
		if responder == nil {
			results <- result{id: p.ID, err: errors.New("no responder attached")}
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, e.rules.ResponseTimeout)
			defer cancel()
			reply, err := responder.Respond(callCtx, prompt)
			results <- result{id: id, reply: reply, err: err}
		}(p.ID)
	}
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	replies := make(map[string]string, len(players))
	for r := range results {
		if r.err != nil {
			e.logger.Warn("responder failed; treating as pass",
				zap.String("player", r.id),
				zap.Error(r.err),
			)
			continue
		}
		replies[r.id] = r.reply
	}
	return replies, nil
}

// collectNightActions builds prompts for every night-eligible player,
// solicits them in parallel, then parses the replies into the action set.
func (e *WerewolfEngine) collectNightActions(ctx context.Context) ([]*Action, error) {
	eligible := []*Player{}
	prompts := make(map[string]string)
	round := e.state.Round()
	for _, p := range e.state.Players {
		if !p.canActAtNight(round) {
			continue
		}
		eligible = append(eligible, p)
		prompts[p.ID] = buildNightPrompt(p, e.state, e.events)
	}

	replies, err := e.solicit(ctx, eligible, prompts)
	if err != nil {
		return nil, err
	}

	actions := []*Action{}
	for seat, p := range e.state.Players {
		reply, ok := replies[p.ID]
		if !ok {
			continue
		}
		parsed := parseNightReply(p, seat, reply, e.state, e.rules)
		if len(parsed) == 0 {
			e.emitPass(p, "let the night pass quietly")
			continue
		}
		actions = append(actions, parsed...)
	}
	return actions, nil
}

// View returns the observer snapshot; see views.go for the player-scoped
// variant.
func (e *WerewolfEngine) View() GameView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return buildGameView(e.gameID, e.state, e.started, "")
}

// PlayerView returns the snapshot as seen by one player: their own role is
// always visible, others only once revealed or after the game ends.
func (e *WerewolfEngine) PlayerView(playerID string) GameView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return buildGameView(e.gameID, e.state, e.started, playerID)
}
