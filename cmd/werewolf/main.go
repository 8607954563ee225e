package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/llmwerewolf/werewolf-server-go/internal/config"
	"github.com/llmwerewolf/werewolf-server-go/internal/game"
	"github.com/llmwerewolf/werewolf-server-go/internal/repository"
	"github.com/llmwerewolf/werewolf-server-go/internal/setup"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath  = flag.String("config", "config/game.yaml", "path to configuration file")
	recentCount = flag.Int("recent", 0, "list the N most recently archived games and exit")
	version     = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *recentCount > 0 {
		listRecentGames(cfg, *recentCount, logger)
		return
	}

	logger.Info("starting werewolf",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.Int("players", len(cfg.Players)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	engine, err := setup.BuildEngine(cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up game", zap.Error(err))
	}

	verdict, err := engine.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("game cancelled; state left at the last resolved phase")
		return
	}
	if err != nil {
		logger.Fatal("game aborted", zap.Error(err))
	}

	printOutcome(engine, verdict)

	if cfg.Game.TranscriptDir != "" {
		path, err := engine.Transcript().SaveToFile(cfg.Game.TranscriptDir)
		if err != nil {
			logger.Warn("failed to save transcript", zap.Error(err))
		} else {
			logger.Info("transcript saved", zap.String("path", path))
		}
	}

	if cfg.Database.URL != "" {
		archiveGame(ctx, cfg, engine, logger)
	}
}

func printOutcome(engine *game.WerewolfEngine, verdict game.VictoryResult) {
	fmt.Println()
	fmt.Println(verdict.Reason)
	view := engine.View()

	fmt.Println("\nSurvivors:")
	for _, p := range view.Players {
		if p.Alive {
			fmt.Printf("- %s (%s)\n", p.Name, p.Role)
		}
	}
	fmt.Println("\nEliminated:")
	for _, p := range view.Players {
		if !p.Alive {
			fmt.Printf("- %s (%s)\n", p.Name, p.Role)
		}
	}
}

func archiveGame(ctx context.Context, cfg *config.Config, engine *game.WerewolfEngine, logger *zap.Logger) {
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := repository.NewDB(dbCtx, cfg.Database, logger)
	if err != nil {
		logger.Warn("failed to connect to archive database", zap.Error(err))
		return
	}
	defer db.Close()

	stats := db.Stats()
	logger.Info("archive database connected",
		zap.Int32("total_conns", stats.TotalConns()),
	)

	repo := repository.NewGameRepository(db, logger)
	record := repository.RecordFromView(engine.View(), engine.Transcript().Snapshots())
	if err := repo.Save(dbCtx, record); err != nil {
		logger.Warn("failed to archive game", zap.Error(err))
	}
}

// listRecentGames prints one summary line per archived game, newest first.
func listRecentGames(cfg *config.Config, limit int, logger *zap.Logger) {
	if cfg.Database.URL == "" {
		logger.Fatal("no archive database configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to archive database", zap.Error(err))
	}
	defer db.Close()

	repo := repository.NewGameRepository(db, logger)
	records, err := repo.Recent(ctx, limit)
	if err != nil {
		logger.Fatal("failed to list archived games", zap.Error(err))
	}
	if len(records) == 0 {
		fmt.Println("no archived games")
		return
	}
	for _, record := range records {
		fmt.Println(record.Summary())
	}
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
