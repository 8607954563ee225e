package config

import (
	"fmt"

	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
)

// Preset is a named role list for a fixed player count. Spare roles are only
// present in thief variants; the thief picks from them on the first night.
type Preset struct {
	Name  string
	Roles []roles.ID
	Spare []roles.ID
}

var presets = map[string]Preset{
	"6-players": {
		Name: "6-players",
		Roles: []roles.ID{
			roles.Werewolf, roles.Werewolf,
			roles.Guard, roles.Witch,
			roles.Villager, roles.Villager,
		},
	},
	"8-players": {
		Name: "8-players",
		Roles: []roles.ID{
			roles.Werewolf, roles.Werewolf,
			roles.Seer, roles.Witch, roles.Hunter, roles.Guard,
			roles.Villager, roles.Villager,
		},
	},
	"9-players": {
		Name: "9-players",
		Roles: []roles.ID{
			roles.Werewolf, roles.Werewolf, roles.Werewolf,
			roles.Seer, roles.Witch, roles.Hunter,
			roles.Villager, roles.Villager, roles.Villager,
		},
	},
	"9-players-cupid": {
		Name: "9-players-cupid",
		Roles: []roles.ID{
			roles.Werewolf, roles.Werewolf,
			roles.Seer, roles.Witch, roles.Hunter, roles.Cupid,
			roles.Villager, roles.Villager, roles.Villager,
		},
	},
	"12-players": {
		Name: "12-players",
		Roles: []roles.ID{
			roles.Werewolf, roles.Werewolf, roles.Werewolf, roles.WolfBeauty,
			roles.Seer, roles.Witch, roles.Hunter, roles.Guard,
			roles.Idiot, roles.Elder, roles.Raven,
			roles.Villager,
		},
	},
	"12-players-thief": {
		Name: "12-players-thief",
		Roles: []roles.ID{
			roles.Werewolf, roles.Werewolf, roles.Werewolf,
			roles.Seer, roles.Witch, roles.Hunter, roles.Guard,
			roles.Cupid, roles.Thief,
			roles.Villager, roles.Villager, roles.Villager,
		},
		Spare: []roles.ID{roles.Werewolf, roles.Villager},
	},
}

// GetPreset resolves a preset by name.
func GetPreset(name string) (Preset, error) {
	preset, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	return preset, nil
}

// defaultPresets are consulted in order when only a player count is known.
var defaultPresets = []string{"6-players", "8-players", "9-players", "12-players"}

// PresetForCount returns the default preset for a player count.
func PresetForCount(count int) (Preset, error) {
	for _, name := range defaultPresets {
		if preset := presets[name]; len(preset.Roles) == count {
			return preset, nil
		}
	}
	return Preset{}, fmt.Errorf("no preset for %d players", count)
}
