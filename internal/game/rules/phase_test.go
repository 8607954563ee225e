package rules

import (
	"errors"
	"testing"
)

func TestPhaseSequence(t *testing.T) {
	pm := NewPhaseManager()

	if pm.Current() != PhaseSetup {
		t.Fatalf("expected SETUP, got %s", pm.Current())
	}
	if pm.Round() != 0 {
		t.Fatalf("expected round 0 during setup, got %d", pm.Round())
	}

	if err := pm.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if pm.Current() != PhaseNight || pm.Round() != 1 {
		t.Fatalf("expected NIGHT round 1, got %s round %d", pm.Current(), pm.Round())
	}

	expected := []Phase{PhaseDayDiscussion, PhaseDayVoting, PhaseNight, PhaseDayDiscussion}
	for i, want := range expected {
		got, err := pm.Advance()
		if err != nil {
			t.Fatalf("advance %d failed: %v", i, err)
		}
		if got != want {
			t.Fatalf("advance %d: expected %s, got %s", i, want, got)
		}
	}
	if pm.Round() != 2 {
		t.Fatalf("expected round 2 after one full cycle, got %d", pm.Round())
	}
}

func TestPhaseRoundIncrementsOnlyOnVotingToNight(t *testing.T) {
	pm := NewPhaseManager()
	if err := pm.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	rounds := []int{1, 1, 2, 2, 2, 3}
	for i, want := range rounds {
		if pm.Round() != want {
			t.Fatalf("step %d: expected round %d, got %d", i, want, pm.Round())
		}
		if _, err := pm.Advance(); err != nil {
			t.Fatalf("advance %d failed: %v", i, err)
		}
	}
}

func TestPhaseBeginTwiceIsInvariantViolation(t *testing.T) {
	pm := NewPhaseManager()
	if err := pm.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := pm.Begin(); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant on second Begin, got %v", err)
	}
}

func TestPhaseAdvanceBeforeBegin(t *testing.T) {
	pm := NewPhaseManager()
	if _, err := pm.Advance(); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
}

func TestPhaseEndedIsTerminal(t *testing.T) {
	pm := NewPhaseManager()
	if err := pm.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := pm.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if _, err := pm.Advance(); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant advancing from ENDED, got %v", err)
	}
	if err := pm.End(); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant ending twice, got %v", err)
	}
}

func TestPhaseEndFromSetupIsIllegal(t *testing.T) {
	pm := NewPhaseManager()
	if err := pm.End(); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
}
