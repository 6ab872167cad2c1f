package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DungeonDef holds the generation parameters for one dungeon type.
type DungeonDef struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	BossEnemy   string   `yaml:"boss_enemy"`
	MinionIDs   []string `yaml:"minion_ids"`
	GuardianIDs []string `yaml:"guardian_ids"`
	MinRooms    int      `yaml:"min_rooms"`
	MaxRooms    int      `yaml:"max_rooms"`
	// Spawns per second for the per-room regions, used only for the
	// initial bulk spawn sizing and region metadata.
	MinionRate   float64 `yaml:"minion_rate"`
	GuardianRate float64 `yaml:"guardian_rate"`
	BossRate     float64 `yaml:"boss_rate"`
}

type dungeonListFile struct {
	Dungeons []DungeonDef `yaml:"dungeons"`
}

// DungeonTable holds all dungeon definitions indexed by id.
type DungeonTable struct {
	defs map[string]*DungeonDef
}

// LoadDungeonTable loads dungeon definitions from a YAML file.
func LoadDungeonTable(path string) (*DungeonTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dungeon_list: %w", err)
	}
	var f dungeonListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse dungeon_list: %w", err)
	}
	t := &DungeonTable{defs: make(map[string]*DungeonDef, len(f.Dungeons))}
	for i := range f.Dungeons {
		d := &f.Dungeons[i]
		t.defs[d.ID] = d
	}
	return t, nil
}

// Get returns the dungeon definition for id, or nil.
func (t *DungeonTable) Get(id string) *DungeonDef {
	return t.defs[id]
}

// Count returns the number of loaded dungeon types.
func (t *DungeonTable) Count() int {
	return len(t.defs)
}
