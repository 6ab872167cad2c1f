package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item kinds. An item definition is exactly one of these.
const (
	ItemKindWeapon  = "weapon"
	ItemKindAbility = "ability"
	ItemKindArmor   = "armor"
	ItemKindRing    = "ring"
)

// Ability kinds.
const (
	AbilityDamage   = "damage"
	AbilityBuff     = "buff"
	AbilityHeal     = "heal"
	AbilityTeleport = "teleport"
)

// WeaponDef describes the firing pattern of a weapon item.
type WeaponDef struct {
	MinDamage       int     `yaml:"min_damage"`
	MaxDamage       int     `yaml:"max_damage"`
	RateOfFire      float64 `yaml:"rate_of_fire"` // shots per second
	NumProjectiles  int     `yaml:"num_projectiles"`
	ArcGapDeg       float64 `yaml:"arc_gap_deg"`
	Range           float64 `yaml:"range"` // tiles
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	Pierce          bool    `yaml:"pierce"`
}

// AbilityDef describes an equippable active ability.
type AbilityDef struct {
	Kind      string  `yaml:"kind"` // damage, buff, heal, teleport
	MPCost    int     `yaml:"mp_cost"`
	Cooldown  float64 `yaml:"cooldown"` // seconds
	Magnitude int     `yaml:"magnitude"`
	Radius    float64 `yaml:"radius"`
	Stat      string  `yaml:"stat"`     // buff only
	Duration  float64 `yaml:"duration"` // buff only, seconds
	Range     float64 `yaml:"range"`    // teleport only
}

// ItemDef holds static data for one item loaded from YAML.
type ItemDef struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Kind    string      `yaml:"kind"`
	SubType string      `yaml:"sub_type"` // weapon/ability/armor type matched against class
	Weapon  *WeaponDef  `yaml:"weapon,omitempty"`
	Ability *AbilityDef `yaml:"ability,omitempty"`
	Defense int         `yaml:"defense,omitempty"` // armor only
	Stat    string      `yaml:"stat,omitempty"`    // ring only
	Amount  int         `yaml:"amount,omitempty"`  // ring only
}

type itemListFile struct {
	Items []ItemDef `yaml:"items"`
}

// ItemTable holds all item definitions indexed by id.
type ItemTable struct {
	defs map[string]*ItemDef
}

// LoadItemTable loads item definitions from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	t := &ItemTable{defs: make(map[string]*ItemDef, len(f.Items))}
	for i := range f.Items {
		it := &f.Items[i]
		t.defs[it.ID] = it
	}
	return t, nil
}

// Get returns the item definition for id, or nil.
func (t *ItemTable) Get(id string) *ItemDef {
	return t.defs[id]
}

// Count returns the number of loaded items.
func (t *ItemTable) Count() int {
	return len(t.defs)
}

// Search returns items whose id or name contains the filter, case-insensitive.
// An empty filter matches everything.
func (t *ItemTable) Search(filter string) []*ItemDef {
	filter = strings.ToLower(filter)
	var out []*ItemDef
	for _, it := range t.defs {
		if filter == "" ||
			strings.Contains(strings.ToLower(it.ID), filter) ||
			strings.Contains(strings.ToLower(it.Name), filter) {
			out = append(out, it)
		}
	}
	return out
}
