package rules

import "sort"

// Ballot records one voter's current choice and its weight. A weight of 2
// corresponds to the double-vote mark; everything else counts once.
type Ballot struct {
	Voter  string
	Target string
	Weight int
}

// VoteTally accumulates day-vote ballots. One ballot per voter; casting again
// replaces the previous ballot (last write wins when revoting is allowed).
type VoteTally struct {
	ballots map[string]Ballot
	order   []string // voter ids in first-cast order, for deterministic output
}

// NewVoteTally creates an empty tally.
func NewVoteTally() *VoteTally {
	return &VoteTally{ballots: make(map[string]Ballot)}
}

// Cast records or replaces the voter's ballot. Weights below one are
// normalized to one.
func (t *VoteTally) Cast(voter, target string, weight int) {
	if weight < 1 {
		weight = 1
	}
	if _, seen := t.ballots[voter]; !seen {
		t.order = append(t.order, voter)
	}
	t.ballots[voter] = Ballot{Voter: voter, Target: target, Weight: weight}
}

// Reset clears all ballots, keeping the tally usable for a revote.
func (t *VoteTally) Reset() {
	t.ballots = make(map[string]Ballot)
	t.order = nil
}

// Ballots returns the recorded ballots in first-cast order.
func (t *VoteTally) Ballots() []Ballot {
	out := make([]Ballot, 0, len(t.ballots))
	for _, voter := range t.order {
		out = append(out, t.ballots[voter])
	}
	return out
}

// Counts returns the weighted total per target.
func (t *VoteTally) Counts() map[string]int {
	counts := make(map[string]int, len(t.ballots))
	for _, ballot := range t.ballots {
		counts[ballot.Target] += ballot.Weight
	}
	return counts
}

// Leaders returns the targets holding the maximum weighted total, sorted for
// reproducibility, together with that total. An empty tally yields no
// leaders and a total of zero.
func (t *VoteTally) Leaders() ([]string, int) {
	counts := t.Counts()
	max := 0
	for _, count := range counts {
		if count > max {
			max = count
		}
	}
	if max == 0 {
		return nil, 0
	}
	leaders := make([]string, 0, 2)
	for target, count := range counts {
		if count == max {
			leaders = append(leaders, target)
		}
	}
	sort.Strings(leaders)
	return leaders, max
}
