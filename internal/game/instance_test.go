package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmgo/server/internal/data"
	"github.com/realmgo/server/internal/tilemap"
)

func injectShot(inst *Instance, ownerID string, pos tilemap.Vec2, dmg int, pierce bool, now time.Time) *Projectile {
	pr := NewProjectile(ownerID, SidePlayer, pos, tilemap.Vec2{}, dmg, pierce, 10, now)
	inst.Projectiles[pr.ID] = pr
	return pr
}

func TestCombatDamageFloorsAtOne(t *testing.T) {
	inst, _ := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	e := NewEnemy(loadTables(t).Enemies.Get("pirate"), tilemap.Vec2{X: 20, Y: 20}) // defense 2
	inst.Enemies[e.ID] = e

	injectShot(inst, "shooter", e.Pos, 1, false, now)
	inst.resolveCombat(now)
	assert.Equal(t, 99, e.HP, "damage below defense still lands 1")

	injectShot(inst, "shooter", e.Pos, 30, false, now)
	inst.resolveCombat(now)
	assert.Equal(t, 99-28, e.HP)
}

func TestNonPierceStopsAtFirstTarget(t *testing.T) {
	inst, _ := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	pos := tilemap.Vec2{X: 20, Y: 20}
	a := NewEnemy(loadTables(t).Enemies.Get("snake"), pos)
	b := NewEnemy(loadTables(t).Enemies.Get("snake"), pos)
	inst.Enemies[a.ID] = a
	inst.Enemies[b.ID] = b

	pr := injectShot(inst, "shooter", pos, 10, false, now)
	inst.resolveCombat(now)

	assert.True(t, pr.Remove)
	assert.Equal(t, 1, pr.HitCount())
	assert.Equal(t, 110, a.HP+b.HP, "exactly one snake took the 10")
}

func TestPierceHitsEachTargetOnce(t *testing.T) {
	inst, _ := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	pos := tilemap.Vec2{X: 20, Y: 20}
	a := NewEnemy(loadTables(t).Enemies.Get("snake"), pos)
	b := NewEnemy(loadTables(t).Enemies.Get("snake"), pos)
	inst.Enemies[a.ID] = a
	inst.Enemies[b.ID] = b

	pr := injectShot(inst, "shooter", pos, 10, true, now)
	inst.resolveCombat(now)
	require.False(t, pr.Remove)
	assert.Equal(t, 50, a.HP)
	assert.Equal(t, 50, b.HP)

	// A second pass must not double-hit.
	inst.resolveCombat(now)
	assert.Equal(t, 50, a.HP)
	assert.Equal(t, 50, b.HP)
	assert.Equal(t, 2, pr.HitCount())
}

func TestOverlappingShotsKillPlayerOnce(t *testing.T) {
	inst, hooks := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	p := newTestPlayer(t, "wizard")
	inst.AddPlayer(p)
	p.Pos = tilemap.Vec2{X: 20, Y: 20}
	p.HP = 1

	// Two enemy shots overlap the player in the same tick. The first
	// kill flags the corpse; the second must not hit it again.
	for i := 0; i < 2; i++ {
		pr := NewProjectile("attacker", SideEnemy, p.Pos, tilemap.Vec2{}, 50, false, 10, now)
		inst.Projectiles[pr.ID] = pr
	}
	inst.resolveCombat(now)

	require.Len(t, hooks.deaths, 1, "one death per player per tick")
	assert.Len(t, hooks.sentOfType("death"), 1)
	assert.Zero(t, p.HP)
}

func TestKillCreditsExpAndRemovesEnemy(t *testing.T) {
	inst, hooks := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	p := newTestPlayer(t, "wizard")
	inst.AddPlayer(p)
	p.Pos = tilemap.Vec2{X: 20, Y: 20}

	e := NewEnemy(loadTables(t).Enemies.Get("pirate"), tilemap.Vec2{X: 28, Y: 20})
	inst.Enemies[e.ID] = e
	e.HP = 1

	injectShot(inst, p.ID, e.Pos, 10, false, now)
	inst.Update(0.05, 1, now)

	assert.Empty(t, inst.Enemies)
	assert.Equal(t, int64(1), p.Counters.EnemiesKilled)
	assert.Equal(t, 20, p.Exp, "pirate is worth 20 xp")

	deaths := hooks.sentOfType("death")
	require.Len(t, deaths, 1)
	assert.Equal(t, "enemy", deaths[0].Data.(DeathEvent).Kind)
}

func TestSoulboundLootGoesToQualifiersOnly(t *testing.T) {
	inst, hooks := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	a := newTestPlayer(t, "wizard")
	b := newTestPlayer(t, "knight")
	inst.AddPlayer(a)
	inst.AddPlayer(b)
	a.Pos = tilemap.Vec2{X: 20, Y: 20}
	b.Pos = tilemap.Vec2{X: 21, Y: 20}

	def := &data.EnemyDef{
		ID: "hoarder", Name: "Hoarder", HP: 100, XP: 10, Radius: 0.5,
		Behavior: data.BehaviorStationary,
		Loot: []data.LootEntry{
			{ItemID: "demon_blade", Chance: 1, Soulbound: true},
			{ItemID: "chainmail", Chance: 1},
		},
	}
	e := NewEnemy(def, tilemap.Vec2{X: 20.5, Y: 20})
	inst.Enemies[e.ID] = e

	// Threshold is ceil(100 * 0.05) = 5 damage. A qualifies, B does not.
	e.CreditDamage(a.ID, 20)
	e.CreditDamage(b.ID, 3)
	e.HP = 0
	inst.handleEnemyDeath(e, a.ID, now)

	var private, public *LootBag
	for _, bag := range inst.Loot {
		if bag.Soulbound {
			private = bag
		} else {
			public = bag
		}
	}
	require.NotNil(t, private)
	require.NotNil(t, public)
	assert.Equal(t, []string{"demon_blade"}, private.Items)
	assert.Equal(t, a.ID, private.OwnerID)
	assert.True(t, private.VisibleTo(a.ID))
	assert.False(t, private.VisibleTo(b.ID))
	assert.Equal(t, []string{"chainmail"}, public.Items)
	assert.True(t, public.VisibleTo(b.ID))

	// The soulbound spawn announcement went only to A.
	for _, msg := range hooks.sentOfType("lootSpawn") {
		if msg.Data.(LootSpawnEvent).Soulbound {
			assert.Equal(t, a.ID, msg.PlayerID)
		}
	}
}

func TestPickupLootRules(t *testing.T) {
	inst, _ := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	p := newTestPlayer(t, "wizard")
	other := newTestPlayer(t, "knight")
	inst.AddPlayer(p)
	inst.AddPlayer(other)
	p.Pos = tilemap.Vec2{X: 20, Y: 20}

	// Out of pickup range.
	far := NewLootBag(tilemap.Vec2{X: 25, Y: 20}, []string{"ring_of_attack"}, "", false, now)
	inst.Loot[far.ID] = far
	assert.False(t, inst.TryPickupLoot(p, far.ID))

	// Someone else's soulbound bag.
	bound := NewLootBag(p.Pos, []string{"demon_blade"}, other.ID, true, now)
	inst.Loot[bound.ID] = bound
	assert.False(t, inst.TryPickupLoot(p, bound.ID))

	// Full inventory.
	near := NewLootBag(p.Pos, []string{"ring_of_attack"}, "", false, now)
	inst.Loot[near.ID] = near
	for i := range p.Inventory {
		p.Inventory[i] = "ring_of_speed"
	}
	assert.False(t, inst.TryPickupLoot(p, near.ID))

	// Success into the first empty slot; the emptied bag removes itself.
	p.Inventory[2] = ""
	assert.True(t, inst.TryPickupLoot(p, near.ID))
	assert.Equal(t, "ring_of_attack", p.Inventory[2])
	assert.True(t, near.Remove)
	assert.True(t, p.Dirty)
}

func TestDropItemMergesIntoOwnNearbyBag(t *testing.T) {
	inst, _ := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	p := newTestPlayer(t, "wizard")
	q := newTestPlayer(t, "knight")
	inst.AddPlayer(p)
	inst.AddPlayer(q)
	p.Pos = tilemap.Vec2{X: 20, Y: 20}
	q.Pos = p.Pos

	inst.DropItem(p, "ring_of_attack", now)
	inst.DropItem(p, "ring_of_speed", now)
	require.Len(t, inst.Loot, 1, "second drop merges into the first bag")
	for _, bag := range inst.Loot {
		assert.ElementsMatch(t, []string{"ring_of_attack", "ring_of_speed"}, bag.Items)
	}

	// A different owner at the same spot gets a separate bag.
	inst.DropItem(q, "ring_of_defense", now)
	assert.Len(t, inst.Loot, 2)
}

func TestSafeZoneSkipsCombat(t *testing.T) {
	inst, _ := newTestInstance(t, KindNexus, openRoom(20, 20))
	require.True(t, inst.SafeZone)
	now := time.Now()

	p := newTestPlayer(t, "wizard")
	inst.AddPlayer(p)
	p.Pos = tilemap.Vec2{X: 10, Y: 10}
	p.HP = p.EffectiveMaxHP()
	hp := p.HP

	pr := NewProjectile("mob", SideEnemy, p.Pos, tilemap.Vec2{}, 50, false, 10, now)
	inst.Projectiles[pr.ID] = pr

	inst.Update(0.05, 1, now)
	assert.Equal(t, hp, p.HP)
}

func TestAbilityDamageHitsRadius(t *testing.T) {
	inst, _ := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	p := newTestPlayer(t, "wizard") // fireblast: 80 damage, radius 3, 30 mp
	inst.AddPlayer(p)
	p.Pos = tilemap.Vec2{X: 20, Y: 20}
	mp := p.MP

	in := NewEnemy(loadTables(t).Enemies.Get("pirate"), tilemap.Vec2{X: 22, Y: 20})
	out := NewEnemy(loadTables(t).Enemies.Get("pirate"), tilemap.Vec2{X: 28, Y: 20})
	inst.Enemies[in.ID] = in
	inst.Enemies[out.ID] = out

	inst.ExecuteAbility(p, now)
	assert.Equal(t, 20, in.HP)
	assert.Equal(t, 100, out.HP)
	assert.Equal(t, mp-30, p.MP)

	// Cooldown: an immediate second cast is a no-op.
	inst.ExecuteAbility(p, now)
	assert.Equal(t, 20, in.HP)
	assert.Equal(t, mp-30, p.MP)
}

func TestSnapshotAOIAndCadence(t *testing.T) {
	inst, hooks := newTestInstance(t, KindRealm, openRoom(40, 40))
	now := time.Now()

	p := newTestPlayer(t, "wizard")
	inst.AddPlayer(p)
	p.Pos = tilemap.Vec2{X: 20, Y: 20}

	near := NewEnemy(loadTables(t).Enemies.Get("snake"), tilemap.Vec2{X: 25, Y: 20})
	far := NewEnemy(loadTables(t).Enemies.Get("snake"), tilemap.Vec2{X: 38, Y: 38})
	inst.Enemies[near.ID] = near
	inst.Enemies[far.ID] = far

	hidden := NewLootBag(tilemap.Vec2{X: 21, Y: 20}, []string{"demon_blade"}, "someone-else", true, now)
	inst.Loot[hidden.ID] = hidden

	inst.Update(0.05, 2, now)
	snaps := hooks.sentOfType("snapshot")
	require.Len(t, snaps, 1)
	snap := snaps[0].Data.(*Snapshot)

	require.Len(t, snap.Enemies, 1)
	assert.Equal(t, near.ID, snap.Enemies[0].ID)
	assert.Empty(t, snap.Loot, "foreign soulbound bag filtered out")
	assert.Equal(t, p.ID, snap.SelfID)

	// Odd ticks skip snapshots: 10 Hz over a 20 Hz loop.
	inst.Update(0.05, 3, now.Add(50*time.Millisecond))
	assert.Len(t, hooks.sentOfType("snapshot"), 1)
}

func TestEnqueueRunsAtTickHead(t *testing.T) {
	inst, _ := newTestInstance(t, KindRealm, openRoom(20, 20))
	ran := false
	inst.Enqueue(func(i *Instance) { ran = i == inst })
	inst.Update(0.05, 1, time.Now())
	assert.True(t, ran)
}

func TestUpdatePanicIsContained(t *testing.T) {
	inst, _ := newTestInstance(t, KindRealm, openRoom(20, 20))
	now := time.Now()

	// A corrupt enemy with no definition blows up mid-tick.
	bad := &Enemy{Entity: newEntity(tilemap.Vec2{X: 10, Y: 10}, 0.4)}
	inst.Enemies[bad.ID] = bad

	stale := NewLootBag(tilemap.Vec2{X: 10, Y: 10}, []string{"chainmail"}, "", false, now)
	stale.Remove = true
	inst.Loot[stale.ID] = stale

	assert.NotPanics(t, func() { inst.Update(0.05, 1, now) })
	assert.Empty(t, inst.Loot, "cleanup still ran after the panic")
	assert.NotPanics(t, func() { inst.Update(0.05, 2, now) })
}

func TestRealmSpawnsTopUpRegion(t *testing.T) {
	m := openRoom(30, 30)
	region := &tilemap.SpawnRegion{
		X: 2, Y: 2, W: 10, H: 10,
		EnemyWeights: map[string]float64{"snake": 1},
		MaxAlive:     3, Rate: 5,
	}
	m.SpawnRegions = append(m.SpawnRegions, region)
	inst, _ := newTestInstance(t, KindRealm, m)

	now := time.Now()
	for i := 0; i < 60; i++ { // 3 seconds
		inst.Update(0.05, uint64(2*i+1), now)
		now = now.Add(50 * time.Millisecond)
	}
	assert.Len(t, inst.Enemies, 3)
}

func TestDungeonSpawnsOnceThenInert(t *testing.T) {
	m := openRoom(30, 30)
	region := &tilemap.SpawnRegion{
		X: 2, Y: 2, W: 10, H: 10,
		EnemyWeights: map[string]float64{"snake": 1},
		MaxAlive:     3, Rate: 5,
	}
	m.SpawnRegions = append(m.SpawnRegions, region)
	inst, _ := newTestInstance(t, KindDungeon, m)
	inst.Dungeon = &DungeonMeta{DefID: "demon_lair"}

	inst.BulkSpawn()
	require.Len(t, inst.Enemies, 3)
	assert.True(t, inst.Dungeon.InitialSpawnDone)

	// Kill one; the scheduler must not backfill.
	for _, e := range inst.Enemies {
		e.Remove = true
		break
	}
	now := time.Now()
	for i := 0; i < 60; i++ {
		inst.Update(0.05, uint64(2*i+1), now)
		now = now.Add(50 * time.Millisecond)
	}
	assert.Len(t, inst.Enemies, 2)
}
