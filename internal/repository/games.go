package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/llmwerewolf/werewolf-server-go/internal/game"
	"go.uber.org/zap"
)

// RosterEntry is one archived seat with its revealed role.
type RosterEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Camp  string `json:"camp"`
	Alive bool   `json:"alive"`
}

// GameRecord is the archived form of one finished game.
type GameRecord struct {
	GameID     string
	Rounds     int
	WinnerCamp string
	LoverWin   bool
	Reason     string
	Winners    []string
	Roster     []RosterEntry
	Transcript []game.PhaseSnapshot
}

// Summary renders one line for archive listings.
func (record GameRecord) Summary() string {
	outcome := record.WinnerCamp
	if record.LoverWin {
		outcome = "LOVERS"
	}
	return fmt.Sprintf("%s  %d rounds  %s  %s", record.GameID, record.Rounds, outcome, record.Reason)
}

// GameRepository stores finished-game records.
type GameRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGameRepository creates a repository over the shared pool.
func NewGameRepository(db *DB, logger *zap.Logger) *GameRepository {
	return &GameRepository{db: db, logger: logger}
}

// RecordFromView builds an archive record from the final game view and
// transcript. The view must come from an ended game so role names are
// disclosed.
func RecordFromView(view game.GameView, transcript []game.PhaseSnapshot) GameRecord {
	record := GameRecord{
		GameID:     view.GameID,
		Rounds:     view.Round,
		Transcript: transcript,
	}
	if view.Verdict != nil {
		record.WinnerCamp = view.Verdict.Camp
		record.LoverWin = view.Verdict.Lovers
		record.Reason = view.Verdict.Reason
		record.Winners = view.Verdict.WinnerIDs
	}
	for _, p := range view.Players {
		record.Roster = append(record.Roster, RosterEntry{
			ID:    p.ID,
			Name:  p.Name,
			Role:  p.Role,
			Camp:  p.Camp,
			Alive: p.Alive,
		})
	}
	return record
}

// Save inserts the record.
func (r *GameRepository) Save(ctx context.Context, record GameRecord) error {
	winners, err := json.Marshal(record.Winners)
	if err != nil {
		return fmt.Errorf("marshal winners: %w", err)
	}
	roster, err := json.Marshal(record.Roster)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	transcript, err := json.Marshal(record.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO game_records
			(game_id, rounds, winner_camp, lover_win, reason, winners, roster, transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.GameID, record.Rounds, record.WinnerCamp, record.LoverWin,
		record.Reason, winners, roster, transcript,
	)
	if err != nil {
		return fmt.Errorf("insert game record: %w", err)
	}
	r.logger.Info("game archived",
		zap.String("game_id", record.GameID),
		zap.String("winner", record.WinnerCamp),
	)
	return nil
}

// Recent returns the latest archived records, newest first.
func (r *GameRepository) Recent(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.pool.Query(ctx, `
		SELECT game_id, rounds, winner_camp, lover_win, reason, winners, roster, transcript
		FROM game_records
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query game records: %w", err)
	}
	defer rows.Close()

	var records []GameRecord
	for rows.Next() {
		var record GameRecord
		var winners, roster, transcript []byte
		if err := rows.Scan(&record.GameID, &record.Rounds, &record.WinnerCamp,
			&record.LoverWin, &record.Reason, &winners, &roster, &transcript); err != nil {
			return nil, fmt.Errorf("scan game record: %w", err)
		}
		if err := json.Unmarshal(winners, &record.Winners); err != nil {
			return nil, fmt.Errorf("decode winners: %w", err)
		}
		if err := json.Unmarshal(roster, &record.Roster); err != nil {
			return nil, fmt.Errorf("decode roster: %w", err)
		}
		if err := json.Unmarshal(transcript, &record.Transcript); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
