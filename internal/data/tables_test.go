package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTablesShippedContent(t *testing.T) {
	tables, err := LoadTables("../../data/yaml")
	require.NoError(t, err)

	assert.Equal(t, 4, tables.Classes.Count())
	assert.Greater(t, tables.Items.Count(), 0)
	assert.Greater(t, tables.Enemies.Count(), 0)
	assert.Greater(t, tables.Dungeons.Count(), 0)

	wizard := tables.Classes.Get("wizard")
	require.NotNil(t, wizard)
	assert.Equal(t, "staff", wizard.WeaponType)

	staff := tables.Items.Get("starter_staff")
	require.NotNil(t, staff)
	require.NotNil(t, staff.Weapon)
	assert.Equal(t, ItemKindWeapon, staff.Kind)

	boss := tables.Enemies.Get("cube_overlord")
	require.NotNil(t, boss)
	require.NotEmpty(t, boss.Phases)
	// Declared descending so phase lookup can take the last match.
	for i := 1; i < len(boss.Phases); i++ {
		assert.Less(t, boss.Phases[i].HPPercent, boss.Phases[i-1].HPPercent)
	}
}

func TestValidateCatchesDanglingReferences(t *testing.T) {
	tables, err := LoadTables("../../data/yaml")
	require.NoError(t, err)

	broken := &EnemyDef{
		ID: "broken", HP: 10,
		Loot: []LootEntry{{ItemID: "no_such_item", Chance: 1}},
	}
	tables.Enemies.defs["broken"] = broken
	defer delete(tables.Enemies.defs, "broken")

	assert.Error(t, tables.validate())
}

func TestItemSearch(t *testing.T) {
	tables, err := LoadTables("../../data/yaml")
	require.NoError(t, err)

	rings := tables.Items.Search("ring_of")
	assert.Len(t, rings, 5)

	byName := tables.Items.Search("demon blade")
	require.Len(t, byName, 1)
	assert.Equal(t, "demon_blade", byName[0].ID)

	assert.Len(t, tables.Items.Search(""), tables.Items.Count())
}
