package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Enemy behaviors.
const (
	BehaviorWander     = "wander"
	BehaviorChase      = "chase"
	BehaviorOrbit      = "orbit"
	BehaviorStationary = "stationary"
)

// AttackDef describes one ranged attack in an enemy's repertoire.
type AttackDef struct {
	Damage          int     `yaml:"damage"`
	RateOfFire      float64 `yaml:"rate_of_fire"` // volleys per second
	NumProjectiles  int     `yaml:"num_projectiles"`
	ArcGapDeg       float64 `yaml:"arc_gap_deg"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	Range           float64 `yaml:"range"` // tiles
	Predictive      bool    `yaml:"predictive"`
}

// PhaseDef gates a boss's attacks by hp threshold. Phases are declared
// in descending hp_percent order.
type PhaseDef struct {
	HPPercent      float64 `yaml:"hp_percent"`
	AttackIndices  []int   `yaml:"attack_indices"`
	AttackDuration float64 `yaml:"attack_duration"` // seconds
	RestDuration   float64 `yaml:"rest_duration"`   // seconds
}

// LootEntry is one independent drop roll on enemy death.
type LootEntry struct {
	ItemID    string  `yaml:"item_id"`
	Chance    float64 `yaml:"chance"` // 0..1
	Soulbound bool    `yaml:"soulbound"`
}

// EnemyDef holds static data for an enemy type loaded from YAML.
type EnemyDef struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	HP         int         `yaml:"hp"`
	Defense    int         `yaml:"defense"`
	Speed      float64     `yaml:"speed"` // tiles per second
	Radius     float64     `yaml:"radius"`
	XP         int         `yaml:"xp"`
	Behavior   string      `yaml:"behavior"`
	Range      float64     `yaml:"range"`       // behavior engagement range
	OrbitSpeed float64     `yaml:"orbit_speed"` // radians per second
	Attacks    []AttackDef `yaml:"attacks"`
	Phases     []PhaseDef  `yaml:"phases,omitempty"`
	Loot       []LootEntry `yaml:"loot,omitempty"`
	// When set, death rolls PortalChance to open a dungeon of PortalDungeon.
	PortalDungeon string  `yaml:"portal_dungeon,omitempty"`
	PortalChance  float64 `yaml:"portal_chance,omitempty"`
}

type enemyListFile struct {
	Enemies []EnemyDef `yaml:"enemies"`
}

// EnemyTable holds all enemy definitions indexed by id.
type EnemyTable struct {
	defs map[string]*EnemyDef
}

// LoadEnemyTable loads enemy definitions from a YAML file.
func LoadEnemyTable(path string) (*EnemyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read enemy_list: %w", err)
	}
	var f enemyListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse enemy_list: %w", err)
	}
	t := &EnemyTable{defs: make(map[string]*EnemyDef, len(f.Enemies))}
	for i := range f.Enemies {
		e := &f.Enemies[i]
		t.defs[e.ID] = e
	}
	return t, nil
}

// Get returns the enemy definition for id, or nil.
func (t *EnemyTable) Get(id string) *EnemyDef {
	return t.defs[id]
}

// Count returns the number of loaded enemy types.
func (t *EnemyTable) Count() int {
	return len(t.defs)
}
