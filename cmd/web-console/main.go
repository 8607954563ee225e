// Command web-console runs one configured game behind the websocket observer
// server. Connect a browser or any websocket client to /ws, send
// {"command":"step"} to advance a phase or {"command":"run"} to play the game
// out, and watch the narrative stream back.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/llmwerewolf/werewolf-server-go/internal/config"
	"github.com/llmwerewolf/werewolf-server-go/internal/server"
	"github.com/llmwerewolf/werewolf-server-go/internal/setup"
	"go.uber.org/zap"
)

var configPath = flag.String("config", "config/game.yaml", "path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	engine, err := setup.BuildEngine(cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up game", zap.Error(err))
	}

	srv := server.New(engine, logger)
	logger.Info("web console listening",
		zap.String("addr", cfg.Web.Addr),
		zap.String("game_id", engine.GameID()),
	)
	if err := http.ListenAndServe(cfg.Web.Addr, srv.Handler()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
