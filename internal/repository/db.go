// Package repository archives finished games in PostgreSQL. It is optional:
// when no database URL is configured the engine simply never calls it. It
// does not persist running games.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/llmwerewolf/werewolf-server-go/internal/config"
	"go.uber.org/zap"
)

// DB wraps a pgx connection pool.
type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDB connects a pool using the configured URL and verifies the schema.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{pool: pool, logger: logger}
	if err := db.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Stats exposes pool statistics for startup logging.
func (db *DB) Stats() *pgxpool.Stat {
	return db.pool.Stat()
}

const schema = `
CREATE TABLE IF NOT EXISTS game_records (
	game_id     TEXT PRIMARY KEY,
	finished_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	rounds      INT NOT NULL,
	winner_camp TEXT NOT NULL,
	lover_win   BOOLEAN NOT NULL,
	reason      TEXT NOT NULL,
	winners     JSONB NOT NULL,
	roster      JSONB NOT NULL,
	transcript  JSONB NOT NULL
)`

func (db *DB) ensureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
