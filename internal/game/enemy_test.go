package game

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmgo/server/internal/data"
	"github.com/realmgo/server/internal/tilemap"
)

func phasedBossDef() *data.EnemyDef {
	return &data.EnemyDef{
		ID: "test_boss", Name: "Test Boss",
		HP: 1000, Defense: 0, Speed: 1, Radius: 1, XP: 100,
		Behavior: data.BehaviorStationary, Range: 14,
		Attacks: []data.AttackDef{
			{Damage: 10, RateOfFire: 1, NumProjectiles: 1, ProjectileSpeed: 10, Range: 10},
			{Damage: 50, RateOfFire: 0.5, NumProjectiles: 1, ProjectileSpeed: 10, Range: 10},
		},
		Phases: []data.PhaseDef{
			{HPPercent: 100, AttackIndices: []int{0}, AttackDuration: 3, RestDuration: 2},
			{HPPercent: 66, AttackIndices: []int{0, 1}, AttackDuration: 4, RestDuration: 1.5},
		},
	}
}

func TestPhaseSelectionByHPPercent(t *testing.T) {
	e := NewEnemy(phasedBossDef(), tilemap.Vec2{})

	e.updatePhase(0.05)
	assert.Equal(t, 0, e.phaseIndex)
	assert.True(t, e.attackAllowed(0))
	assert.False(t, e.attackAllowed(1), "attack 1 gated until phase 2")

	// Drop below the 66% threshold.
	e.HP = 600
	e.updatePhase(0.05)
	assert.Equal(t, 1, e.phaseIndex)
	assert.True(t, e.attackAllowed(0))
	assert.True(t, e.attackAllowed(1))
}

func TestPhaseAttackRestCycle(t *testing.T) {
	e := NewEnemy(phasedBossDef(), tilemap.Vec2{})

	// First phase: 3 s attacking, then 2 s resting, repeating.
	attacking, resting := 0, 0
	for i := 0; i < 200; i++ { // 10 seconds at 20 Hz
		e.updatePhase(0.05)
		if e.resting {
			resting++
		} else {
			attacking++
		}
	}
	// Two full 3 s attack windows in 10 s (3+2+3+2).
	assert.InDelta(t, 120, attacking, 5)
	assert.InDelta(t, 80, resting, 5)
}

func TestPhaseResetOnTransition(t *testing.T) {
	e := NewEnemy(phasedBossDef(), tilemap.Vec2{})
	// Run into the rest window of phase 0.
	for i := 0; i < 70; i++ { // 3.5 s
		e.updatePhase(0.05)
	}
	require.True(t, e.resting)

	e.HP = 100
	e.updatePhase(0.05)
	assert.Equal(t, 1, e.phaseIndex)
	assert.False(t, e.resting, "phase transition restarts the attack window")
}

func TestFanAnglesOddCentersOnAim(t *testing.T) {
	gap := 10 * math.Pi / 180
	angles := fanAngles(1.5, 3, gap)
	require.Len(t, angles, 3)
	assert.InDelta(t, 1.5, angles[1], 1e-9)
	assert.InDelta(t, 1.5-gap, angles[0], 1e-9)
	assert.InDelta(t, 1.5+gap, angles[2], 1e-9)
}

func TestFanAnglesEvenLeavesCorridor(t *testing.T) {
	gap := 10 * math.Pi / 180
	angles := fanAngles(0, 4, gap)
	require.Len(t, angles, 4)
	for _, a := range angles {
		assert.Greater(t, math.Abs(a), gap/4, "no projectile flies straight at the aim line")
	}
	// Symmetric around the aim.
	assert.InDelta(t, angles[0], -angles[3], 1e-9)
	assert.InDelta(t, angles[1], -angles[2], 1e-9)
}

func TestFanAnglesSingle(t *testing.T) {
	angles := fanAngles(0.7, 1, 0.2)
	require.Len(t, angles, 1)
	assert.InDelta(t, 0.7, angles[0], 1e-9)
}

func TestAcquireTargetNearestWithinRange(t *testing.T) {
	m := openRoom(40, 40)
	inst, _ := newTestInstance(t, KindRealm, m)

	near := newTestPlayer(t, "wizard")
	near.Pos = tilemap.Vec2{X: 22, Y: 20}
	inst.AddPlayer(near)
	near.Pos = tilemap.Vec2{X: 22, Y: 20}

	far := newTestPlayer(t, "knight")
	inst.AddPlayer(far)
	far.Pos = tilemap.Vec2{X: 30, Y: 20}

	e := NewEnemy(loadTables(t).Enemies.Get("pirate"), tilemap.Vec2{X: 20, Y: 20})
	target := e.acquireTarget(inst.Players)
	require.NotNil(t, target)
	assert.Equal(t, near.ID, target.ID)

	// Nobody within 15 tiles: no target.
	near.Pos = tilemap.Vec2{X: 38, Y: 38}
	far.Pos = tilemap.Vec2{X: 2, Y: 38}
	assert.Nil(t, e.acquireTarget(inst.Players))
	assert.Equal(t, "", e.TargetID)
}

func TestChaseHoldsBackHalfAttackRange(t *testing.T) {
	m := openRoom(40, 40)
	inst, _ := newTestInstance(t, KindRealm, m)

	p := newTestPlayer(t, "wizard")
	inst.AddPlayer(p)
	p.Pos = tilemap.Vec2{X: 20, Y: 20}

	def := loadTables(t).Enemies.Get("pirate") // attack range 6 -> hold 3
	e := NewEnemy(def, tilemap.Vec2{X: 24, Y: 20})
	inst.Enemies[e.ID] = e

	now := time.Now()
	for i := 0; i < 200; i++ {
		e.update(0.05, now, inst)
		now = now.Add(50 * time.Millisecond)
	}
	dist := e.DistTo(&p.Entity)
	assert.GreaterOrEqual(t, dist, 2.9, "chaser should hold back")
	assert.LessOrEqual(t, dist, 4.1)
}
