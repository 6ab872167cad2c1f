package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Stats is the six-stat block shared by class baselines and growth rows.
type Stats struct {
	Attack    int `yaml:"attack"`
	Defense   int `yaml:"defense"`
	Speed     int `yaml:"speed"`
	Dexterity int `yaml:"dexterity"`
	Vitality  int `yaml:"vitality"`
	Wisdom    int `yaml:"wisdom"`
}

// ClassDef holds static data for a playable class loaded from YAML.
type ClassDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	WeaponType  string `yaml:"weapon_type"`
	AbilityType string `yaml:"ability_type"`
	ArmorType   string `yaml:"armor_type"`
	BaseHP      int    `yaml:"base_hp"`
	BaseMP      int    `yaml:"base_mp"`
	HPPerLevel  int    `yaml:"hp_per_level"`
	MPPerLevel  int    `yaml:"mp_per_level"`
	BaseStats   Stats  `yaml:"base_stats"`
	StatGrowth  Stats  `yaml:"stat_growth"`
	// Item ids placed into equipment slots 0..3 on character creation.
	StartingEquipment []string `yaml:"starting_equipment"`
}

type classListFile struct {
	Classes []ClassDef `yaml:"classes"`
}

// ClassTable holds all class definitions indexed by id.
type ClassTable struct {
	defs map[string]*ClassDef
}

// LoadClassTable loads class definitions from a YAML file.
func LoadClassTable(path string) (*ClassTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class_list: %w", err)
	}
	var f classListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse class_list: %w", err)
	}
	t := &ClassTable{defs: make(map[string]*ClassDef, len(f.Classes))}
	for i := range f.Classes {
		c := &f.Classes[i]
		t.defs[c.ID] = c
	}
	return t, nil
}

// Get returns the class definition for id, or nil.
func (t *ClassTable) Get(id string) *ClassDef {
	return t.defs[id]
}

// Count returns the number of loaded classes.
func (t *ClassTable) Count() int {
	return len(t.defs)
}

// All returns every class definition. Order is unspecified.
func (t *ClassTable) All() []*ClassDef {
	out := make([]*ClassDef, 0, len(t.defs))
	for _, c := range t.defs {
		out = append(out, c)
	}
	return out
}
