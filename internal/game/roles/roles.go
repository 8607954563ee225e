// Package roles defines the closed set of Werewolf roles and their static
// capability metadata: camp membership, night resolution priority, phase
// eligibility and limited-use ability budgets. Behavior that needs the live
// game state (action production, validation) lives in the game package.
package roles

import "fmt"

// Camp is a player's faction alignment for victory-condition membership.
type Camp int

const (
	CampVillager Camp = iota
	CampWerewolf
	CampNeutral
)

var campNames = map[Camp]string{
	CampVillager: "VILLAGER",
	CampWerewolf: "WEREWOLF",
	CampNeutral:  "NEUTRAL",
}

func (c Camp) String() string {
	if name, ok := campNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CAMP_%d", int(c))
}

// ID identifies a role kind.
type ID string

const (
	Werewolf   ID = "werewolf"
	Villager   ID = "villager"
	Seer       ID = "seer"
	Witch      ID = "witch"
	Hunter     ID = "hunter"
	Guard      ID = "guard"
	Cupid      ID = "cupid"
	Thief      ID = "thief"
	Elder      ID = "elder"
	Idiot      ID = "idiot"
	WolfBeauty ID = "wolf_beauty"
	Raven      ID = "raven"
)

// Ability names the limited-use abilities tracked per role instance.
type Ability string

const (
	AbilitySave    Ability = "save"
	AbilityPoison  Ability = "poison"
	AbilityRevenge Ability = "revenge"
	AbilityLink    Ability = "link"
	AbilitySwap    Ability = "swap"
	AbilityReserve Ability = "reserve" // elder extra life
)

// Spec is the static capability record for one role kind.
type Spec struct {
	ID            ID
	Name          string
	Camp          Camp
	NightPriority int // 0 = never acts at night
	ActsAtNight   bool
	FirstNight    bool // night action available on the first night only
	Uses          map[Ability]int
}

// Night resolution ranks. Higher resolves first; ties cannot occur between
// kinds because every acting role owns a distinct rank.
const (
	PriorityThief       = 100
	PriorityCupid       = 95
	PriorityGuard       = 90
	PriorityWerewolf    = 80
	PriorityWolfBeauty  = 75
	PrioritySeer        = 70
	PriorityWitchSave   = 60
	PriorityWitchPoison = 55
	PriorityRaven       = 50
	PriorityHunter      = 40
)

var specs = map[ID]Spec{
	Werewolf: {ID: Werewolf, Name: "Werewolf", Camp: CampWerewolf, NightPriority: PriorityWerewolf, ActsAtNight: true},
	Villager: {ID: Villager, Name: "Villager", Camp: CampVillager},
	Seer:     {ID: Seer, Name: "Seer", Camp: CampVillager, NightPriority: PrioritySeer, ActsAtNight: true},
	Witch: {ID: Witch, Name: "Witch", Camp: CampVillager, NightPriority: PriorityWitchSave, ActsAtNight: true,
		Uses: map[Ability]int{AbilitySave: 1, AbilityPoison: 1}},
	Hunter: {ID: Hunter, Name: "Hunter", Camp: CampVillager, NightPriority: PriorityHunter, ActsAtNight: true,
		Uses: map[Ability]int{AbilityRevenge: 1}},
	Guard: {ID: Guard, Name: "Guard", Camp: CampVillager, NightPriority: PriorityGuard, ActsAtNight: true},
	Cupid: {ID: Cupid, Name: "Cupid", Camp: CampVillager, NightPriority: PriorityCupid, ActsAtNight: true,
		FirstNight: true, Uses: map[Ability]int{AbilityLink: 1}},
	Thief: {ID: Thief, Name: "Thief", Camp: CampNeutral, NightPriority: PriorityThief, ActsAtNight: true,
		FirstNight: true, Uses: map[Ability]int{AbilitySwap: 1}},
	Elder: {ID: Elder, Name: "Elder", Camp: CampVillager,
		Uses: map[Ability]int{AbilityReserve: 1}},
	Idiot:      {ID: Idiot, Name: "Idiot", Camp: CampVillager},
	WolfBeauty: {ID: WolfBeauty, Name: "Wolf Beauty", Camp: CampWerewolf, NightPriority: PriorityWolfBeauty, ActsAtNight: true},
	Raven:      {ID: Raven, Name: "Raven", Camp: CampVillager, NightPriority: PriorityRaven, ActsAtNight: true},
}

// Lookup returns the static spec for a role id.
func Lookup(id ID) (Spec, bool) {
	spec, ok := specs[id]
	return spec, ok
}

// All returns every known role id. The order is unspecified.
func All() []ID {
	out := make([]ID, 0, len(specs))
	for id := range specs {
		out = append(out, id)
	}
	return out
}

// Role is one player's owned role instance: the static spec plus mutable
// remaining-uses counters. A dead player keeps its Role for the end-of-game
// reveal.
type Role struct {
	Spec Spec
	uses map[Ability]int
}

// New creates a role instance for the given id.
func New(id ID) (*Role, error) {
	spec, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", id)
	}
	role := &Role{Spec: spec}
	if len(spec.Uses) > 0 {
		role.uses = make(map[Ability]int, len(spec.Uses))
		for ability, count := range spec.Uses {
			role.uses[ability] = count
		}
	}
	return role, nil
}

// MustNew is New for statically known role ids; it panics on unknown ids.
func MustNew(id ID) *Role {
	role, err := New(id)
	if err != nil {
		panic(err)
	}
	return role
}

// ID returns the role kind.
func (r *Role) ID() ID { return r.Spec.ID }

// Name returns the display name.
func (r *Role) Name() string { return r.Spec.Name }

// Camp returns the role's faction.
func (r *Role) Camp() Camp { return r.Spec.Camp }

// UsesLeft returns the remaining budget for a limited ability. Abilities the
// role does not track report zero.
func (r *Role) UsesLeft(ability Ability) int {
	return r.uses[ability]
}

// Consume spends one use of the ability. It reports false when the budget is
// exhausted, leaving the counter untouched.
func (r *Role) Consume(ability Ability) bool {
	if r.uses[ability] <= 0 {
		return false
	}
	r.uses[ability]--
	return true
}

// Become replaces the role spec in place, preserving nothing of the previous
// role. This backs the thief's first-night swap.
func (r *Role) Become(id ID) error {
	next, err := New(id)
	if err != nil {
		return err
	}
	r.Spec = next.Spec
	r.uses = next.uses
	return nil
}
