// Package setup turns a loaded configuration into a ready game engine. Both
// the command-line driver and the web console build their engine here so the
// two cannot drift apart.
package setup

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/llmwerewolf/werewolf-server-go/internal/agent"
	"github.com/llmwerewolf/werewolf-server-go/internal/config"
	"github.com/llmwerewolf/werewolf-server-go/internal/game"
	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
	"go.uber.org/zap"
)

// BuildEngine resolves the preset, shuffles role assignments and wires each
// player's responder.
func BuildEngine(cfg *config.Config, logger *zap.Logger) (*game.WerewolfEngine, error) {
	var preset config.Preset
	var err error
	if cfg.Game.Preset != "" {
		preset, err = config.GetPreset(cfg.Game.Preset)
	} else {
		preset, err = config.PresetForCount(len(cfg.Players))
	}
	if err != nil {
		return nil, err
	}
	if len(preset.Roles) != len(cfg.Players) {
		return nil, fmt.Errorf("preset %s expects %d players, configuration has %d",
			preset.Name, len(preset.Roles), len(cfg.Players))
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	assigned := append([]roles.ID(nil), preset.Roles...)
	rng.Shuffle(len(assigned), func(i, j int) {
		assigned[i], assigned[j] = assigned[j], assigned[i]
	})

	roster := make([]game.PlayerSetup, 0, len(cfg.Players))
	for i, pc := range cfg.Players {
		responder, err := agent.New(agent.Config{
			Name:        pc.Name,
			Model:       pc.Model,
			BaseURL:     pc.BaseURL,
			APIKeyEnv:   pc.APIKeyEnv,
			Temperature: pc.Temperature,
			MaxTokens:   pc.MaxTokens,
			Seed:        seed + int64(i),
		})
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", pc.Name, err)
		}
		roster = append(roster, game.PlayerSetup{
			ID:        fmt.Sprintf("player_%d", i+1),
			Name:      pc.Name,
			Role:      assigned[i],
			Responder: responder,
		})
	}

	engine := game.NewWerewolfEngine(game.Rules{
		RevoteOnTie:       cfg.Game.RevoteOnTie,
		RevealRoleOnDeath: cfg.Game.RevealRoleOnDeath,
		WitchSelfSave:     cfg.Game.WitchSelfSave,
		ResponseTimeout:   cfg.Game.ResponseTimeout,
	}, logger)
	if err := engine.Setup(roster, preset.Spare); err != nil {
		return nil, err
	}
	return engine, nil
}
