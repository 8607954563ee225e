package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PhaseSnapshot captures the state at one resolved phase boundary. The
// sequence of snapshots is the game's audit trail: it backs the end-of-game
// reveal and the archive record. It is not a save/resume mechanism.
type PhaseSnapshot struct {
	Round       int
	Phase       string
	Alive       map[string]bool
	NightDeaths []string
	DayDeaths   []string
	Taken       time.Time
}

// Transcript is the append-only sequence of phase snapshots for one game.
type Transcript struct {
	GameID string

	mu        sync.RWMutex
	snapshots []PhaseSnapshot
}

// NewTranscript creates an empty transcript.
func NewTranscript(gameID string) *Transcript {
	return &Transcript{GameID: gameID}
}

// Record appends a snapshot of the current state.
func (t *Transcript) Record(gs *GameState) {
	alive := make(map[string]bool, len(gs.Players))
	for _, p := range gs.Players {
		alive[p.ID] = p.Alive
	}
	snapshot := PhaseSnapshot{
		Round:       gs.Round(),
		Phase:       gs.Phase().String(),
		Alive:       alive,
		NightDeaths: gs.NightDeaths(),
		DayDeaths:   gs.DayDeaths(),
		Taken:       time.Now(),
	}
	t.mu.Lock()
	t.snapshots = append(t.snapshots, snapshot)
	t.mu.Unlock()
}

// Snapshots returns a copy of the recorded sequence.
func (t *Transcript) Snapshots() []PhaseSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]PhaseSnapshot, len(t.snapshots))
	copy(out, t.snapshots)
	return out
}

// SaveToFile writes the transcript as gzipped gob for offline audit.
func (t *Transcript) SaveToFile(dir string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.transcript.gz", t.GameID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create transcript file: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	defer zw.Close()
	if err := gob.NewEncoder(zw).Encode(t.snapshots); err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return path, nil
}

// LoadTranscript reads a transcript written by SaveToFile.
func LoadTranscript(path string) ([]PhaseSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	defer zr.Close()

	var snapshots []PhaseSnapshot
	if err := gob.NewDecoder(zr).Decode(&snapshots); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return snapshots, nil
}
