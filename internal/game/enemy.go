package game

import (
	"math"
	"time"

	"github.com/realmgo/server/internal/data"
	"github.com/realmgo/server/internal/tilemap"
)

const enemyAggroRange = 15.0

// Enemy is one live mob. All fields are game-loop-private.
type Enemy struct {
	Entity
	Def   *data.EnemyDef
	HP    int
	MaxHP int

	// TargetID is a weak reference by id; the player may leave or die
	// at any tick boundary.
	TargetID string

	lastFire     []time.Time // parallel to Def.Attacks
	wanderTarget tilemap.Vec2
	wanderTimer  float64
	orbitAngle   float64

	phaseIndex int
	phaseTimer float64
	resting    bool

	// DamageByPlayer credits attackers for soulbound-drop qualification.
	DamageByPlayer map[string]int

	// HomeRegion points back at the spawn region that produced this
	// enemy, for the scheduler's population cap. Nil for scripted spawns.
	HomeRegion *tilemap.SpawnRegion
}

// NewEnemy builds a live enemy from its definition.
func NewEnemy(def *data.EnemyDef, pos tilemap.Vec2) *Enemy {
	return &Enemy{
		Entity:         newEntity(pos, def.Radius),
		Def:            def,
		HP:             def.HP,
		MaxHP:          def.HP,
		lastFire:       make([]time.Time, len(def.Attacks)),
		DamageByPlayer: make(map[string]int),
	}
}

// CreditDamage records attribution for a non-zero hit.
func (e *Enemy) CreditDamage(playerID string, dmg int) {
	if dmg > 0 {
		e.DamageByPlayer[playerID] += dmg
	}
}

// CurrentPhase returns the active phase, or nil for phaseless enemies.
func (e *Enemy) CurrentPhase() *data.PhaseDef {
	if len(e.Def.Phases) == 0 {
		return nil
	}
	return &e.Def.Phases[e.phaseIndex]
}

// updatePhase recomputes the phase from hp% and advances the
// attack/rest cycle. Phases are declared descending by threshold; the
// current phase is the last whose threshold >= hp%.
func (e *Enemy) updatePhase(dt float64) {
	if len(e.Def.Phases) == 0 {
		return
	}
	hpPct := 100 * float64(e.HP) / float64(e.MaxHP)
	idx := 0
	for i, ph := range e.Def.Phases {
		if ph.HPPercent >= hpPct {
			idx = i
		}
	}
	if idx != e.phaseIndex {
		e.phaseIndex = idx
		e.phaseTimer = 0
		e.resting = false
	}
	ph := &e.Def.Phases[e.phaseIndex]
	e.phaseTimer += dt
	if e.resting {
		if e.phaseTimer >= ph.RestDuration {
			e.resting = false
			e.phaseTimer = 0
		}
	} else if e.phaseTimer >= ph.AttackDuration {
		e.resting = true
		e.phaseTimer = 0
	}
}

// attackAllowed applies phase gating to an attack index.
func (e *Enemy) attackAllowed(idx int) bool {
	ph := e.CurrentPhase()
	if ph == nil {
		return true
	}
	if e.resting {
		return false
	}
	for _, ai := range ph.AttackIndices {
		if ai == idx {
			return true
		}
	}
	return false
}

// acquireTarget picks the nearest player within aggro range.
func (e *Enemy) acquireTarget(players map[string]*Player) *Player {
	var best *Player
	bestDist := enemyAggroRange
	for _, p := range players {
		if d := e.DistTo(&p.Entity); d <= bestDist {
			best = p
			bestDist = d
		}
	}
	if best == nil {
		e.TargetID = ""
		return nil
	}
	e.TargetID = best.ID
	return best
}

// update runs behavior, phase, and attack scheduling for one tick.
// Spawned projectiles go through inst.
func (e *Enemy) update(dt float64, now time.Time, inst *Instance) {
	target := e.acquireTarget(inst.Players)
	e.updatePhase(dt)

	switch e.Def.Behavior {
	case data.BehaviorChase:
		e.chase(dt, target, inst)
	case data.BehaviorOrbit:
		e.orbit(dt, target, inst)
	case data.BehaviorStationary:
		// no movement
	default:
		e.wander(dt, inst)
	}

	if target != nil {
		e.fireAttacks(now, target, inst)
	}
}

// wander picks a point within ±3 tiles and steps toward it one axis at
// a time. Axis-sign steps are intentional; the jitter reads as idle
// milling to players.
func (e *Enemy) wander(dt float64, inst *Instance) {
	e.wanderTimer -= dt
	if e.wanderTimer <= 0 {
		e.wanderTarget = tilemap.Vec2{
			X: e.Pos.X + (inst.rng.Float64()*6 - 3),
			Y: e.Pos.Y + (inst.rng.Float64()*6 - 3),
		}
		e.wanderTimer = 1 + inst.rng.Float64()*2
	}
	step := e.Def.Speed * dt
	d := e.wanderTarget.Sub(e.Pos)
	next := e.Pos
	if math.Abs(d.X) > 0.1 {
		next.X += math.Copysign(step, d.X)
	}
	if math.Abs(d.Y) > 0.1 {
		next.Y += math.Copysign(step, d.Y)
	}
	if next != e.Pos && inst.Map.CanOccupy(next, e.Radius) {
		e.Pos = next
	} else if next != e.Pos {
		e.wanderTimer = 0 // stuck, repick next tick
	}
}

// chase closes distance but holds back half the first attack's range,
// at least 2 tiles.
func (e *Enemy) chase(dt float64, target *Player, inst *Instance) {
	if target == nil || e.DistTo(&target.Entity) > e.Def.Range {
		e.wander(dt, inst)
		return
	}
	holdBack := 2.0
	if len(e.Def.Attacks) > 0 {
		holdBack = math.Max(2, e.Def.Attacks[0].Range*0.5)
	}
	dist := e.DistTo(&target.Entity)
	if dist <= holdBack {
		return
	}
	dir := target.Pos.Sub(e.Pos).Normalized()
	next := e.Pos.Add(dir.Scale(e.Def.Speed * dt))
	if inst.Map.CanOccupy(next, e.Radius) {
		e.Pos = next
	}
}

// orbit circles the target at Def.Range, closing first when too far.
func (e *Enemy) orbit(dt float64, target *Player, inst *Instance) {
	if target == nil {
		e.wander(dt, inst)
		return
	}
	dist := e.DistTo(&target.Entity)
	if dist > e.Def.Range+1 {
		dir := target.Pos.Sub(e.Pos).Normalized()
		next := e.Pos.Add(dir.Scale(e.Def.Speed * dt))
		if inst.Map.CanOccupy(next, e.Radius) {
			e.Pos = next
		}
		return
	}
	e.orbitAngle += e.Def.OrbitSpeed * dt
	anchor := target.Pos.Add(tilemap.Vec2{
		X: e.Def.Range * math.Cos(e.orbitAngle),
		Y: e.Def.Range * math.Sin(e.orbitAngle),
	})
	dir := anchor.Sub(e.Pos).Normalized()
	next := e.Pos.Add(dir.Scale(e.Def.Speed * dt))
	if inst.Map.CanOccupy(next, e.Radius) {
		e.Pos = next
	}
}

// fireAttacks runs every off-cooldown, phase-allowed attack whose range
// covers the target.
func (e *Enemy) fireAttacks(now time.Time, target *Player, inst *Instance) {
	dist := e.DistTo(&target.Entity)
	for i := range e.Def.Attacks {
		atk := &e.Def.Attacks[i]
		if atk.RateOfFire <= 0 || dist > atk.Range || !e.attackAllowed(i) {
			continue
		}
		if now.Sub(e.lastFire[i]).Seconds() < 1/atk.RateOfFire {
			continue
		}
		e.lastFire[i] = now
		aim := e.aimAngle(now, atk, target)
		inst.spawnEnemyVolley(e, atk, aim, now)
	}
}

// aimAngle points at the target, or at its extrapolated position for
// predictive attacks using the latest observed input direction.
func (e *Enemy) aimAngle(now time.Time, atk *data.AttackDef, target *Player) float64 {
	aimAt := target.Pos
	if atk.Predictive && atk.ProjectileSpeed > 0 {
		tof := e.DistTo(&target.Entity) / atk.ProjectileSpeed
		in := target.CurrentInput()
		move := tilemap.Vec2{X: in.MoveX, Y: in.MoveY}.Normalized()
		aimAt = target.Pos.Add(move.Scale(target.EffectiveSpeed(now) * tof))
	}
	d := aimAt.Sub(e.Pos)
	return math.Atan2(d.Y, d.X)
}

// fanAngles spreads n projectiles symmetrically around aim with gap
// radians between neighbors. Odd counts center one projectile on the
// aim line; even counts straddle it by half a gap on each side, leaving
// a corridor straight at the target.
func fanAngles(aim float64, n int, gapRad float64) []float64 {
	if n <= 0 {
		return nil
	}
	angles := make([]float64, n)
	for i := 0; i < n; i++ {
		angles[i] = aim + (float64(i)-float64(n)/2+0.5)*gapRad
	}
	return angles
}
