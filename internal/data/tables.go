package data

import (
	"fmt"
	"path/filepath"
)

// Tables bundles every content table loaded at startup. Read-only after
// LoadTables returns; safe to share across goroutines.
type Tables struct {
	Classes  *ClassTable
	Items    *ItemTable
	Enemies  *EnemyTable
	Dungeons *DungeonTable
}

// LoadTables loads all content tables from dir.
func LoadTables(dir string) (*Tables, error) {
	classes, err := LoadClassTable(filepath.Join(dir, "class_list.yaml"))
	if err != nil {
		return nil, err
	}
	items, err := LoadItemTable(filepath.Join(dir, "item_list.yaml"))
	if err != nil {
		return nil, err
	}
	enemies, err := LoadEnemyTable(filepath.Join(dir, "enemy_list.yaml"))
	if err != nil {
		return nil, err
	}
	dungeons, err := LoadDungeonTable(filepath.Join(dir, "dungeon_list.yaml"))
	if err != nil {
		return nil, err
	}
	t := &Tables{Classes: classes, Items: items, Enemies: enemies, Dungeons: dungeons}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate cross-checks references between tables so bad content fails
// at startup instead of mid-tick.
func (t *Tables) validate() error {
	for _, c := range t.Classes.All() {
		for _, itemID := range c.StartingEquipment {
			if itemID != "" && t.Items.Get(itemID) == nil {
				return fmt.Errorf("class %s: unknown starting item %q", c.ID, itemID)
			}
		}
	}
	for id, e := range t.Enemies.defs {
		for _, l := range e.Loot {
			if t.Items.Get(l.ItemID) == nil {
				return fmt.Errorf("enemy %s: unknown loot item %q", id, l.ItemID)
			}
		}
		if e.PortalDungeon != "" && t.Dungeons.Get(e.PortalDungeon) == nil {
			return fmt.Errorf("enemy %s: unknown portal dungeon %q", id, e.PortalDungeon)
		}
		for i, p := range e.Phases {
			if i > 0 && p.HPPercent >= e.Phases[i-1].HPPercent {
				return fmt.Errorf("enemy %s: phases must descend by hp_percent", id)
			}
			for _, ai := range p.AttackIndices {
				if ai < 0 || ai >= len(e.Attacks) {
					return fmt.Errorf("enemy %s: phase attack index %d out of range", id, ai)
				}
			}
		}
	}
	for id, d := range t.Dungeons.defs {
		if t.Enemies.Get(d.BossEnemy) == nil {
			return fmt.Errorf("dungeon %s: unknown boss enemy %q", id, d.BossEnemy)
		}
		for _, m := range append(append([]string{}, d.MinionIDs...), d.GuardianIDs...) {
			if t.Enemies.Get(m) == nil {
				return fmt.Errorf("dungeon %s: unknown enemy %q", id, m)
			}
		}
	}
	return nil
}
