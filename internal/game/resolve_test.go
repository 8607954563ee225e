package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
	"github.com/llmwerewolf/werewolf-server-go/internal/game/rules"
)

type seatSpec struct {
	id   string
	name string
	role roles.ID
}

// newNightState builds a state positioned at night of round one.
func newNightState(t *testing.T, seats ...seatSpec) *GameState {
	t.Helper()
	players := make([]*Player, 0, len(seats))
	for _, s := range seats {
		players = append(players, &Player{ID: s.id, Name: s.name, Role: roles.MustNew(s.role)})
	}
	gs, err := NewGameState(players)
	require.NoError(t, err)
	require.NoError(t, gs.Phases.Begin())
	gs.ResetNightScratch()
	return gs
}

func newTestResolver(t *testing.T, gs *GameState, r Rules) *resolver {
	t.Helper()
	return newResolver(gs, rules.NewEventLog(), zaptest.NewLogger(t), r)
}

func seatOf(t *testing.T, gs *GameState, id string) (*Player, int) {
	t.Helper()
	for i, p := range gs.Players {
		if p.ID == id {
			return p, i
		}
	}
	t.Fatalf("no seat for %s", id)
	return nil, 0
}

func TestProtectionCancelsWolfKill(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"g1", "Gideon", roles.Guard},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	guard, guardSeat := seatOf(t, gs, "g1")
	res.applyActions([]*Action{
		newKillVoteAction(wolf, wolfSeat, "v1"),
		newProtectAction(guard, guardSeat, "v1"),
	})
	res.runNightCascade()

	victim, _ := gs.Player("v1")
	assert.True(t, victim.Alive)
	assert.Empty(t, gs.NightDeaths())
}

func TestSaveCancelsOnlyTheMatchingKill(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"x1", "Wanda", roles.Witch},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	witch, witchSeat := seatOf(t, gs, "x1")
	// The witch guesses wrong: the potion is poured over Pia while the pack
	// takes Milo.
	res.applyActions([]*Action{
		newKillVoteAction(wolf, wolfSeat, "v1"),
		newSaveAction(witch, witchSeat, "v2", true),
	})
	res.runNightCascade()

	milo, _ := gs.Player("v1")
	assert.False(t, milo.Alive)
	assert.Equal(t, 0, witch.Role.UsesLeft(roles.AbilitySave), "a wasted potion is still spent")
}

func TestSaveCancelsMatchingKill(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"x1", "Wanda", roles.Witch},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	witch, witchSeat := seatOf(t, gs, "x1")
	res.applyActions([]*Action{
		newKillVoteAction(wolf, wolfSeat, "v1"),
		newSaveAction(witch, witchSeat, "v1", true),
	})
	res.runNightCascade()

	milo, _ := gs.Player("v1")
	assert.True(t, milo.Alive)
	assert.Empty(t, gs.NightDeaths())
}

func TestPoisonBypassesSaveAndProtection(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"x1", "Wanda", roles.Witch},
		seatSpec{"g1", "Gideon", roles.Guard},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	witch, witchSeat := seatOf(t, gs, "x1")
	guard, guardSeat := seatOf(t, gs, "g1")
	res.applyActions([]*Action{
		newProtectAction(guard, guardSeat, "v1"),
		newPoisonAction(witch, witchSeat, "v1"),
	})
	res.runNightCascade()

	milo, _ := gs.Player("v1")
	assert.False(t, milo.Alive, "poison ignores protection")
	assert.Equal(t, []string{"v1"}, gs.NightDeaths())
}

func TestElderReserveAbsorbsOneWolfKill(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"e1", "Elsa", roles.Elder},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	res.applyActions([]*Action{newKillVoteAction(wolf, wolfSeat, "e1")})
	res.runNightCascade()

	elder, _ := gs.Player("e1")
	assert.True(t, elder.Alive, "the first wound is absorbed")

	// Second night, same target: the reserve life is gone.
	gs.Phases.Advance()
	gs.Phases.Advance()
	gs.Phases.Advance()
	gs.ResetNightScratch()
	res.applyActions([]*Action{newKillVoteAction(wolf, wolfSeat, "e1")})
	res.runNightCascade()
	assert.False(t, elder.Alive)
}

func TestElderReserveAbsorbsPoisonToo(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"x1", "Wanda", roles.Witch},
		seatSpec{"e1", "Elsa", roles.Elder},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	witch, witchSeat := seatOf(t, gs, "x1")
	res.applyActions([]*Action{newPoisonAction(witch, witchSeat, "e1")})
	res.runNightCascade()

	elder, _ := gs.Player("e1")
	assert.True(t, elder.Alive)
	assert.Equal(t, 0, elder.Role.UsesLeft(roles.AbilityReserve))
}

func TestHunterRevengeFiresFromTheGrave(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"h1", "Hugo", roles.Hunter},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	hunter, hunterSeat := seatOf(t, gs, "h1")
	res.applyActions([]*Action{
		newRevengeAction(hunter, hunterSeat, "w1"),
		newKillVoteAction(wolf, wolfSeat, "h1"),
	})
	res.runNightCascade()

	assert.False(t, hunter.Alive)
	assert.False(t, wolf.Alive, "the standing declaration fires on death")
	assert.ElementsMatch(t, []string{"h1", "w1"}, gs.NightDeaths())
}

func TestHunterShotIsStoppedByProtection(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"h1", "Hugo", roles.Hunter},
		seatSpec{"g1", "Gideon", roles.Guard},
		seatSpec{"v1", "Milo", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	hunter, hunterSeat := seatOf(t, gs, "h1")
	guard, guardSeat := seatOf(t, gs, "g1")
	res.applyActions([]*Action{
		newRevengeAction(hunter, hunterSeat, "w1"),
		newProtectAction(guard, guardSeat, "w1"),
		newKillVoteAction(wolf, wolfSeat, "h1"),
	})
	res.runNightCascade()

	assert.False(t, hunter.Alive)
	assert.True(t, wolf.Alive, "revenge is a normal trigger kill and respects protection")
}

func TestWolfBeautyDeathTakesTheCharmed(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"b1", "Bella", roles.WolfBeauty},
		seatSpec{"x1", "Wanda", roles.Witch},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	beauty, beautySeat := seatOf(t, gs, "b1")
	witch, witchSeat := seatOf(t, gs, "x1")
	res.applyActions([]*Action{
		newCharmAction(beauty, beautySeat, "v1"),
		newPoisonAction(witch, witchSeat, "b1"),
	})
	res.runNightCascade()

	milo, _ := gs.Player("v1")
	assert.False(t, beauty.Alive)
	assert.False(t, milo.Alive, "the charm bond kills with its mistress")
}

func TestLoverHeartbreakIsUnconditional(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"g1", "Gideon", roles.Guard},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	require.NoError(t, gs.LinkLovers("v1", "v2"))
	res := newTestResolver(t, gs, DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	guard, guardSeat := seatOf(t, gs, "g1")
	// Protecting the partner does not help: heartbreak skips every check.
	res.applyActions([]*Action{
		newProtectAction(guard, guardSeat, "v2"),
		newKillVoteAction(wolf, wolfSeat, "v1"),
	})
	res.runNightCascade()

	milo, _ := gs.Player("v1")
	pia, _ := gs.Player("v2")
	assert.False(t, milo.Alive)
	assert.False(t, pia.Alive)
}

func TestHeartbreakChainsIntoTheRevengeShot(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"h1", "Hugo", roles.Hunter},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	require.NoError(t, gs.LinkLovers("v1", "h1"))
	res := newTestResolver(t, gs, DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	hunter, hunterSeat := seatOf(t, gs, "h1")
	// The pack takes Milo, heartbreak takes his hunter partner, and the
	// hunter's standing shot still fires and takes Rex with him.
	res.applyActions([]*Action{
		newRevengeAction(hunter, hunterSeat, "w1"),
		newKillVoteAction(wolf, wolfSeat, "v1"),
	})
	res.runNightCascade()

	assert.False(t, hunter.Alive)
	assert.False(t, wolf.Alive)
	assert.ElementsMatch(t, []string{"v1", "h1", "w1"}, gs.NightDeaths())
}

func TestNobodyDiesTwiceInOneCascade(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"x1", "Wanda", roles.Witch},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	require.NoError(t, gs.LinkLovers("v1", "v2"))
	res := newTestResolver(t, gs, DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	witch, witchSeat := seatOf(t, gs, "x1")
	// Poison takes Milo, heartbreak takes Pia, then the pack kill lands on the
	// already fallen Pia and must be a no-op.
	res.applyActions([]*Action{
		newKillVoteAction(wolf, wolfSeat, "v2"),
		newPoisonAction(witch, witchSeat, "v1"),
	})
	res.runNightCascade()

	assert.Len(t, gs.NightDeaths(), 2)
}

func TestPackKillPluralityAndSeatTiebreak(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"w2", "Fang", roles.Werewolf},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	res := newTestResolver(t, gs, DefaultRules())

	w1, s1 := seatOf(t, gs, "w1")
	w2, s2 := seatOf(t, gs, "w2")
	res.applyActions([]*Action{
		newKillVoteAction(w1, s1, "v2"),
		newKillVoteAction(w2, s2, "v1"),
	})
	res.runNightCascade()

	// Split pack: the earlier seat among the tied targets falls.
	milo, _ := gs.Player("v1")
	pia, _ := gs.Player("v2")
	assert.False(t, milo.Alive)
	assert.True(t, pia.Alive)
}

func TestGuardMayNotRepeatProtection(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"g1", "Gideon", roles.Guard},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
		seatSpec{"w1", "Rex", roles.Werewolf},
	)
	guard, guardSeat := seatOf(t, gs, "g1")

	res := newTestResolver(t, gs, DefaultRules())
	res.applyActions([]*Action{newProtectAction(guard, guardSeat, "v1")})

	// Next night the same target is illegal and the action is dropped.
	gs.Phases.Advance()
	gs.Phases.Advance()
	gs.Phases.Advance()
	gs.ResetNightScratch()
	repeat := newProtectAction(guard, guardSeat, "v1")
	assert.Error(t, repeat.Validate(gs))

	other := newProtectAction(guard, guardSeat, "v2")
	assert.NoError(t, other.Validate(gs))
}

func TestWolvesDoNotHuntTheirOwn(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"b1", "Bella", roles.WolfBeauty},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	wolf, wolfSeat := seatOf(t, gs, "w1")
	assert.Error(t, newKillVoteAction(wolf, wolfSeat, "b1").Validate(gs))
}

func toVotingPhase(t *testing.T, gs *GameState) {
	t.Helper()
	if _, err := gs.Phases.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := gs.Phases.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
}

func TestIdiotSurvivesTheVoteOnce(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"i1", "Igor", roles.Idiot},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
		seatSpec{"w1", "Rex", roles.Werewolf},
	)
	toVotingPhase(t, gs)
	res := newTestResolver(t, gs, DefaultRules())

	milo, miloSeat := seatOf(t, gs, "v1")
	pia, piaSeat := seatOf(t, gs, "v2")
	res.applyActions([]*Action{
		newBallotAction(milo, miloSeat, "i1"),
		newBallotAction(pia, piaSeat, "i1"),
	})
	eliminated, tied := res.resolveVote()

	idiot, _ := gs.Player("i1")
	require.NotNil(t, eliminated)
	assert.Empty(t, tied)
	assert.True(t, idiot.Alive)
	assert.True(t, idiot.HasStatus(StatusRevealed))
	assert.False(t, idiot.CanVote())

	// A revealed idiot gets no second reprieve.
	gs.Tally.Reset()
	res.applyActions([]*Action{
		newBallotAction(milo, miloSeat, "i1"),
		newBallotAction(pia, piaSeat, "i1"),
	})
	res.resolveVote()
	assert.False(t, idiot.Alive)
}

func TestRevealedIdiotBallotIsRejected(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"i1", "Igor", roles.Idiot},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
		seatSpec{"w1", "Rex", roles.Werewolf},
	)
	toVotingPhase(t, gs)
	idiot, idiotSeat := seatOf(t, gs, "i1")
	idiot.SetStatus(StatusVoteBanned)
	assert.Error(t, newBallotAction(idiot, idiotSeat, "v1").Validate(gs))
}

func TestRavenMarkDoublesTheBallot(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"r1", "Corvin", roles.Raven},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
		seatSpec{"w1", "Rex", roles.Werewolf},
	)
	res := newTestResolver(t, gs, DefaultRules())

	raven, ravenSeat := seatOf(t, gs, "r1")
	res.applyActions([]*Action{newMarkAction(raven, ravenSeat, "v1")})

	toVotingPhase(t, gs)
	milo, miloSeat := seatOf(t, gs, "v1")
	rex, rexSeat := seatOf(t, gs, "w1")
	res.applyActions([]*Action{
		newBallotAction(milo, miloSeat, "w1"), // marked: weight 2
		newBallotAction(rex, rexSeat, "v1"),
	})
	eliminated, tied := res.resolveVote()

	require.NotNil(t, eliminated)
	assert.Empty(t, tied)
	assert.Equal(t, "w1", eliminated.ID)
}

func TestVoteKillSkipsNightProtections(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"e1", "Elsa", roles.Elder},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
		seatSpec{"w1", "Rex", roles.Werewolf},
	)
	toVotingPhase(t, gs)
	res := newTestResolver(t, gs, DefaultRules())

	milo, miloSeat := seatOf(t, gs, "v1")
	pia, piaSeat := seatOf(t, gs, "v2")
	res.applyActions([]*Action{
		newBallotAction(milo, miloSeat, "e1"),
		newBallotAction(pia, piaSeat, "e1"),
	})
	res.resolveVote()

	elder, _ := gs.Player("e1")
	assert.False(t, elder.Alive, "the reserve life does not apply to the vote")
	assert.Equal(t, []string{"e1"}, gs.DayDeaths())
}

func TestTiedVoteEliminatesNobody(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
		seatSpec{"v3", "Sol", roles.Villager},
		seatSpec{"w1", "Rex", roles.Werewolf},
	)
	toVotingPhase(t, gs)
	res := newTestResolver(t, gs, DefaultRules())

	milo, miloSeat := seatOf(t, gs, "v1")
	pia, piaSeat := seatOf(t, gs, "v2")
	res.applyActions([]*Action{
		newBallotAction(milo, miloSeat, "w1"),
		newBallotAction(pia, piaSeat, "v1"),
	})
	eliminated, tied := res.resolveVote()

	assert.Nil(t, eliminated)
	assert.ElementsMatch(t, []string{"v1", "w1"}, tied)
	for _, p := range gs.Players {
		assert.True(t, p.Alive)
	}
}

func TestThiefSwapConsumesSpareCard(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"t1", "Taro", roles.Thief},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
		seatSpec{"w1", "Rex", roles.Werewolf},
	)
	gs.SpareRoles = []roles.ID{roles.Werewolf, roles.Villager}
	res := newTestResolver(t, gs, DefaultRules())

	thief, thiefSeat := seatOf(t, gs, "t1")
	res.applyActions([]*Action{newSwapAction(thief, thiefSeat, roles.Werewolf)})

	assert.Equal(t, roles.Werewolf, thief.Role.ID())
	assert.Equal(t, roles.CampWerewolf, thief.Camp())
	assert.Equal(t, []roles.ID{roles.Villager}, gs.SpareRoles)
}

func TestRejectedActionLeavesStateUntouched(t *testing.T) {
	gs := newNightState(t,
		seatSpec{"w1", "Rex", roles.Werewolf},
		seatSpec{"b1", "Bella", roles.WolfBeauty},
		seatSpec{"v1", "Milo", roles.Villager},
		seatSpec{"v2", "Pia", roles.Villager},
	)
	log := rules.NewEventLog()
	res := newResolver(gs, log, zaptest.NewLogger(t), DefaultRules())

	wolf, wolfSeat := seatOf(t, gs, "w1")
	res.applyActions([]*Action{newKillVoteAction(wolf, wolfSeat, "b1")})
	res.runNightCascade()

	bella, _ := gs.Player("b1")
	assert.True(t, bella.Alive)
	rejected := 0
	for _, e := range log.All() {
		if e.Type == rules.EventActionRejected {
			rejected++
		}
	}
	assert.Equal(t, 1, rejected)
}
