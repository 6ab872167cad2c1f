package game

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/data"
	"github.com/realmgo/server/internal/scripting"
	"github.com/realmgo/server/internal/tilemap"
)

// Command is a deferred mutation applied at the head of the next tick.
type Command func(*Instance)

// Deps is the shared read-only environment every instance runs against.
type Deps struct {
	Tables  *data.Tables
	Scripts *scripting.Engine
	Hooks   Hooks
	Log     *zap.Logger
}

// DungeonMeta is the extra state a dungeon instance carries.
type DungeonMeta struct {
	DefID            string
	BossRoomCenter   tilemap.Vec2
	SourceInstance   string
	BossKilled       bool
	InitialSpawnDone bool

	playerSpawn tilemap.Vec2
	spawnCached bool
}

// Instance simulates one world. All entity state is accessed only from
// the game loop goroutine; the command queue is the sole cross-goroutine
// entry point.
type Instance struct {
	ID       string
	Kind     string
	Map      *tilemap.Map
	SafeZone bool

	Players     map[string]*Player
	Enemies     map[string]*Enemy
	Projectiles map[string]*Projectile
	Loot        map[string]*LootBag
	Portals     map[string]*Portal
	Chests      map[string]*VaultChest

	Dungeon *DungeonMeta

	regionTimers []float64
	rng          *rand.Rand

	cmdMu    sync.Mutex
	commands []Command

	deps Deps
	log  *zap.Logger
}

// NewInstance builds an instance over an immutable map. Nexus and vault
// kinds are safe zones.
func NewInstance(id, kind string, m *tilemap.Map, deps Deps) *Instance {
	return &Instance{
		ID:           id,
		Kind:         kind,
		Map:          m,
		SafeZone:     kind == KindNexus || kind == KindVault,
		Players:      make(map[string]*Player),
		Enemies:      make(map[string]*Enemy),
		Projectiles:  make(map[string]*Projectile),
		Loot:         make(map[string]*LootBag),
		Portals:      make(map[string]*Portal),
		Chests:       make(map[string]*VaultChest),
		regionTimers: make([]float64, len(m.SpawnRegions)),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		deps:         deps,
		log:          deps.Log.With(zap.String("instance", id)),
	}
}

// Enqueue schedules a command for the head of the next tick. Safe from
// any goroutine.
func (inst *Instance) Enqueue(cmd Command) {
	inst.cmdMu.Lock()
	inst.commands = append(inst.commands, cmd)
	inst.cmdMu.Unlock()
}

func (inst *Instance) drainCommands() {
	inst.cmdMu.Lock()
	cmds := inst.commands
	inst.commands = nil
	inst.cmdMu.Unlock()
	for _, cmd := range cmds {
		cmd(inst)
	}
}

// PlayerCount returns the number of resident players.
func (inst *Instance) PlayerCount() int { return len(inst.Players) }

// AlivePlayerCount returns the resident players not flagged for
// removal. A dying player stays in Players until cleanup, so this is
// the count that decides whether an instance is actually occupied.
func (inst *Instance) AlivePlayerCount() int {
	n := 0
	for _, p := range inst.Players {
		if !p.Remove {
			n++
		}
	}
	return n
}

// AddPlayer places p at the map spawn and takes ownership. Dungeons
// cache the first arrival's spawn and reuse it for everyone after.
func (inst *Instance) AddPlayer(p *Player) {
	pos := inst.Map.SpawnPoint
	if inst.Dungeon != nil {
		if !inst.Dungeon.spawnCached {
			inst.Dungeon.playerSpawn = pos
			inst.Dungeon.spawnCached = true
		}
		pos = inst.Dungeon.playerSpawn
	}
	p.Pos = pos
	p.Instance = inst
	inst.Players[p.ID] = p
}

// RemovePlayer detaches and returns the player for the caller to persist.
func (inst *Instance) RemovePlayer(id string) *Player {
	p, ok := inst.Players[id]
	if !ok {
		return nil
	}
	delete(inst.Players, id)
	if p.Instance == inst {
		p.Instance = nil
	}
	return p
}

// TryEnterPortal returns the portal iff p stands within interact range.
// It never moves the player; transfer is the orchestrator's job.
func (inst *Instance) TryEnterPortal(p *Player, portalID string) *Portal {
	po, ok := inst.Portals[portalID]
	if !ok || po.Remove {
		return nil
	}
	if p.Pos.Dist(po.Pos) > config.PortalInteractRange {
		return nil
	}
	return po
}

// TryPickupLoot moves the bag's first item into p's inventory. Fails
// silently on range, ownership, or capacity violations.
func (inst *Instance) TryPickupLoot(p *Player, lootID string) bool {
	bag, ok := inst.Loot[lootID]
	if !ok || bag.Remove {
		return false
	}
	if p.Pos.Dist(bag.Pos) > config.PickupRange {
		return false
	}
	if bag.Soulbound && bag.OwnerID != p.ID {
		return false
	}
	slot := p.FirstEmptyInventorySlot()
	if slot < 0 {
		return false
	}
	item, ok := bag.TakeFirst()
	if !ok {
		return false
	}
	p.Inventory[slot] = item
	p.Dirty = true
	return true
}

// DropItem places itemID on the ground at p's feet, merging into a
// nearby bag already owned by p when possible.
func (inst *Instance) DropItem(p *Player, itemID string, now time.Time) {
	for _, bag := range inst.Loot {
		if bag.Remove || bag.OwnerID != p.ID || bag.Soulbound {
			continue
		}
		if bag.Pos.Dist(p.Pos) < 0.5 && bag.TryAdd(itemID) {
			return
		}
	}
	bag := NewLootBag(p.Pos, []string{itemID}, p.ID, false, now)
	inst.Loot[bag.ID] = bag
	inst.Broadcast("lootSpawn", LootSpawnEvent{
		BagID: bag.ID, X: bag.Pos.X, Y: bag.Pos.Y, Items: bag.Items,
	})
}

// SpawnEnemy creates an enemy by definition id. Returns nil for unknown ids.
func (inst *Instance) SpawnEnemy(defID string, pos tilemap.Vec2) *Enemy {
	def := inst.deps.Tables.Enemies.Get(defID)
	if def == nil {
		return nil
	}
	e := NewEnemy(def, pos)
	inst.Enemies[e.ID] = e
	return e
}

// AddPortal registers a portal entity.
func (inst *Instance) AddPortal(po *Portal) {
	inst.Portals[po.ID] = po
}

// AddChest registers a vault chest.
func (inst *Instance) AddChest(c *VaultChest) {
	inst.Chests[c.ID] = c
}

// Broadcast sends one message to every resident player.
func (inst *Instance) Broadcast(msgType string, payload any) {
	for id := range inst.Players {
		inst.deps.Hooks.Send(id, msgType, payload)
	}
}

// broadcastNearby sends to players within AOI of pos.
func (inst *Instance) broadcastNearby(pos tilemap.Vec2, msgType string, payload any) {
	for id, p := range inst.Players {
		if p.Pos.Dist(pos) <= config.AOIRadius {
			inst.deps.Hooks.Send(id, msgType, payload)
		}
	}
}

// Update runs one simulation step. The pipeline order is fixed:
// commands, entity tick, combat, spawn, cleanup, snapshot. A panic in
// the middle stages is contained to this instance; cleanup and the
// next tick still run.
func (inst *Instance) Update(dt float64, tick uint64, now time.Time) {
	inst.drainCommands()

	func() {
		defer func() {
			if r := recover(); r != nil {
				inst.log.Error("instance update panic", zap.Any("panic", r), zap.Uint64("tick", tick))
			}
		}()
		inst.tickEntities(dt, now)
		if !inst.SafeZone {
			inst.resolveCombat(now)
			inst.runSpawns(dt)
		}
	}()

	inst.cleanup()
	if tick%2 == 0 {
		inst.emitSnapshots(tick)
	}
}

func (inst *Instance) tickEntities(dt float64, now time.Time) {
	for _, p := range inst.Players {
		p.update(dt, now, inst.Map, inst.SafeZone)
		in := p.CurrentInput()
		if in.Shooting && p.CanShoot(now) {
			inst.PlayerShoot(p, in.AimAngle, now)
		}
	}
	for _, e := range inst.Enemies {
		e.update(dt, now, inst)
	}
	for _, pr := range inst.Projectiles {
		pr.update(dt, now, inst.Map)
	}
	for _, b := range inst.Loot {
		b.update(now)
	}
	for _, po := range inst.Portals {
		po.update(now)
	}
}

// PlayerShoot fires the equipped weapon's fan if the cooldown allows.
func (inst *Instance) PlayerShoot(p *Player, aim float64, now time.Time) {
	w := p.Weapon()
	if w == nil || w.Weapon == nil || !p.CanShoot(now) {
		return
	}
	def := w.Weapon
	p.markShot(now)

	lifetime := 0.0
	if def.ProjectileSpeed > 0 {
		lifetime = def.Range / def.ProjectileSpeed
	}
	gap := def.ArcGapDeg * math.Pi / 180
	for _, angle := range fanAngles(aim, def.NumProjectiles, gap) {
		roll := float64(def.MinDamage) + inst.rng.Float64()*float64(def.MaxDamage-def.MinDamage)
		dmg := inst.deps.Scripts.ShotDamage(roll, p.EffectiveAttack(now))
		vel := tilemap.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(def.ProjectileSpeed)
		pr := NewProjectile(p.ID, SidePlayer, p.Pos, vel, dmg, def.Pierce, lifetime, now)
		inst.Projectiles[pr.ID] = pr
	}
}

// spawnEnemyVolley fires one attack's fan from e toward aim.
func (inst *Instance) spawnEnemyVolley(e *Enemy, atk *data.AttackDef, aim float64, now time.Time) {
	lifetime := 0.0
	if atk.ProjectileSpeed > 0 {
		lifetime = atk.Range / atk.ProjectileSpeed
	}
	gap := atk.ArcGapDeg * math.Pi / 180
	for _, angle := range fanAngles(aim, atk.NumProjectiles, gap) {
		vel := tilemap.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(atk.ProjectileSpeed)
		pr := NewProjectile(e.ID, SideEnemy, e.Pos, vel, atk.Damage, false, lifetime, now)
		inst.Projectiles[pr.ID] = pr
	}
}

// ExecuteAbility applies the player's equipped ability and broadcasts
// its visual event. Cooldown and MP were already checked and spent by
// the caller path via AbilityReady/spendAbility.
func (inst *Instance) ExecuteAbility(p *Player, now time.Time) {
	item := p.AbilityItem()
	if item == nil || item.Ability == nil || !p.AbilityReady(now) {
		return
	}
	ab := item.Ability
	p.spendAbility(now)

	in := p.CurrentInput()
	switch ab.Kind {
	case data.AbilityDamage:
		if !inst.SafeZone {
			for _, e := range inst.Enemies {
				if e.Pos.Dist(p.Pos) <= ab.Radius {
					inst.damageEnemy(e, ab.Magnitude, p.ID, now)
				}
			}
		}
	case data.AbilityBuff:
		p.Buffs = append(p.Buffs, Buff{
			Stat:      ab.Stat,
			Amount:    ab.Magnitude,
			ExpiresAt: now.Add(time.Duration(ab.Duration * float64(time.Second))),
		})
	case data.AbilityHeal:
		p.HP += ab.Magnitude
		p.ClampVitals()
	case data.AbilityTeleport:
		dir := tilemap.Vec2{X: math.Cos(in.AimAngle), Y: math.Sin(in.AimAngle)}
		// Walk the aim line back from max range to the first legal spot.
		for dist := ab.Range; dist > 0; dist -= 0.5 {
			dest := p.Pos.Add(dir.Scale(dist))
			if inst.Map.CanOccupy(dest, p.Radius) {
				p.Pos = dest
				break
			}
		}
	}

	inst.broadcastNearby(p.Pos, "abilityEffect", AbilityEffectEvent{
		PlayerID: p.ID, Kind: ab.Kind,
		X: p.Pos.X, Y: p.Pos.Y, Radius: ab.Radius,
	})
}

// resolveCombat tests every live projectile against opposed-side bodies.
func (inst *Instance) resolveCombat(now time.Time) {
	for _, pr := range inst.Projectiles {
		if pr.Remove {
			continue
		}
		switch pr.Side {
		case SidePlayer:
			for _, e := range inst.Enemies {
				if pr.Remove {
					break
				}
				if e.Remove || !pr.Overlaps(&e.Entity) {
					continue
				}
				if !pr.RegisterHit(e.ID) {
					continue
				}
				dmg := inst.deps.Scripts.DamageToEnemy(pr.Damage, e.Def.Defense)
				inst.damageEnemy(e, dmg, pr.OwnerID, now)
			}
		case SideEnemy:
			for _, victim := range inst.Players {
				if pr.Remove {
					break
				}
				if victim.Remove || !pr.Overlaps(&victim.Entity) {
					continue
				}
				if !pr.RegisterHit(victim.ID) {
					continue
				}
				dmg := inst.deps.Scripts.DamageToPlayer(pr.Damage, victim.EffectiveDefense(now))
				inst.damagePlayer(victim, dmg, now)
			}
		}
	}
}

func (inst *Instance) damagePlayer(victim *Player, dmg int, now time.Time) {
	victim.HP -= dmg
	victim.LastHit = now
	victim.Counters.DamageTaken += int64(dmg)
	victim.Dirty = true
	inst.deps.Hooks.Send(victim.ID, "damage", DamageEvent{
		TargetID: victim.ID, Amount: dmg, HP: victim.HP,
	})
	if victim.HP <= 0 {
		victim.HP = 0
		inst.Broadcast("death", DeathEvent{EntityID: victim.ID, Kind: "player"})
		inst.deps.Hooks.OnPlayerDeath(inst, victim)
	}
}

func (inst *Instance) damageEnemy(e *Enemy, dmg int, attackerID string, now time.Time) {
	if e.Remove {
		return
	}
	e.HP -= dmg
	e.CreditDamage(attackerID, dmg)
	if attacker, ok := inst.Players[attackerID]; ok {
		attacker.Counters.DamageDealt += int64(dmg)
	}
	inst.broadcastNearby(e.Pos, "damage", DamageEvent{TargetID: e.ID, Amount: dmg, HP: e.HP})
	if e.HP <= 0 {
		inst.handleEnemyDeath(e, attackerID, now)
	}
}

func (inst *Instance) handleEnemyDeath(e *Enemy, killerID string, now time.Time) {
	e.Remove = true
	inst.broadcastNearby(e.Pos, "death", DeathEvent{EntityID: e.ID, Kind: "enemy"})

	if killer, ok := inst.Players[killerID]; ok {
		killer.Counters.EnemiesKilled++
		if killer.GainExp(e.Def.XP, inst.deps.Scripts.ExpToNext) {
			inst.deps.Hooks.Send(killer.ID, "levelUp", LevelUpEvent{
				Level: killer.Level, MaxHP: killer.EffectiveMaxHP(), MaxMP: killer.EffectiveMaxMP(),
			})
		}
	}

	inst.rollLoot(e, now)

	if e.Def.PortalDungeon != "" && inst.rng.Float64() < e.Def.PortalChance {
		inst.deps.Hooks.OnPortalDrop(inst, e.Def.PortalDungeon, e.Pos)
	}

	if inst.Dungeon != nil && !inst.Dungeon.BossKilled {
		if def := inst.deps.Tables.Dungeons.Get(inst.Dungeon.DefID); def != nil && def.BossEnemy == e.Def.ID {
			inst.Dungeon.BossKilled = true
			for _, p := range inst.Players {
				p.Counters.DungeonsCleared++
			}
			inst.deps.Hooks.OnBossKilled(inst, e.Pos)
		}
	}
}

// rollLoot rolls every loot entry independently. Soulbound results
// spawn one private bag per qualifying attacker; the rest share a
// public bag.
func (inst *Instance) rollLoot(e *Enemy, now time.Time) {
	threshold := int(math.Ceil(float64(e.MaxHP) * config.SoulboundThreshold))
	var qualifiers []string
	for playerID, dealt := range e.DamageByPlayer {
		if dealt >= threshold {
			qualifiers = append(qualifiers, playerID)
		}
	}

	var public []string
	soulbound := make(map[string][]string) // playerID -> items
	for _, entry := range e.Def.Loot {
		if inst.rng.Float64() >= entry.Chance {
			continue
		}
		if entry.Soulbound {
			for _, q := range qualifiers {
				soulbound[q] = append(soulbound[q], entry.ItemID)
			}
		} else {
			public = append(public, entry.ItemID)
		}
	}

	if len(public) > 0 {
		bag := NewLootBag(e.Pos, public, "", false, now)
		inst.Loot[bag.ID] = bag
		inst.broadcastNearby(e.Pos, "lootSpawn", LootSpawnEvent{
			BagID: bag.ID, X: bag.Pos.X, Y: bag.Pos.Y, Items: bag.Items,
		})
	}
	for playerID, items := range soulbound {
		bag := NewLootBag(e.Pos, items, playerID, true, now)
		inst.Loot[bag.ID] = bag
		inst.deps.Hooks.Send(playerID, "lootSpawn", LootSpawnEvent{
			BagID: bag.ID, X: bag.Pos.X, Y: bag.Pos.Y, Items: bag.Items, Soulbound: true,
		})
	}
}

// runSpawns advances each region's timer and tops up population.
// Dungeons go inert once the initial bulk spawn has happened.
func (inst *Instance) runSpawns(dt float64) {
	if inst.Dungeon != nil && inst.Dungeon.InitialSpawnDone {
		return
	}
	for i, region := range inst.Map.SpawnRegions {
		if region.Rate <= 0 {
			continue
		}
		inst.regionTimers[i] += dt
		if inst.regionTimers[i] < 1/region.Rate {
			continue
		}
		inst.regionTimers[i] = 0
		if inst.regionPopulation(region) >= region.MaxAlive {
			continue
		}
		inst.spawnInRegion(region)
	}
}

func (inst *Instance) regionPopulation(region *tilemap.SpawnRegion) int {
	count := 0
	for _, e := range inst.Enemies {
		if !e.Remove && e.HomeRegion == region {
			count++
		}
	}
	return count
}

func (inst *Instance) spawnInRegion(region *tilemap.SpawnRegion) *Enemy {
	defID := region.PickEnemy(inst.rng)
	if defID == "" {
		return nil
	}
	def := inst.deps.Tables.Enemies.Get(defID)
	if def == nil {
		return nil
	}
	pos, ok := inst.Map.RandomWalkableIn(inst.rng, region.X, region.Y, region.W, region.H, def.Radius)
	if !ok {
		return nil
	}
	e := inst.SpawnEnemy(defID, pos)
	if e != nil {
		e.HomeRegion = region
	}
	return e
}

// BulkSpawn fills every region to capacity at once, then latches the
// scheduler off for dungeons. Called by the orchestrator right after
// dungeon creation.
func (inst *Instance) BulkSpawn() {
	for _, region := range inst.Map.SpawnRegions {
		for inst.regionPopulation(region) < region.MaxAlive {
			if inst.spawnInRegion(region) == nil {
				break
			}
		}
	}
	if inst.Dungeon != nil {
		inst.Dungeon.InitialSpawnDone = true
	}
}

// cleanup drains remove-flagged entities from every container.
func (inst *Instance) cleanup() {
	for id, p := range inst.Players {
		if p.Remove {
			delete(inst.Players, id)
		}
	}
	for id, e := range inst.Enemies {
		if e.Remove {
			delete(inst.Enemies, id)
		}
	}
	for id, pr := range inst.Projectiles {
		if pr.Remove {
			delete(inst.Projectiles, id)
		}
	}
	for id, b := range inst.Loot {
		if b.Remove {
			delete(inst.Loot, id)
		}
	}
	for id, po := range inst.Portals {
		if po.Remove {
			delete(inst.Portals, id)
		}
	}
}

func (inst *Instance) emitSnapshots(tick uint64) {
	for _, p := range inst.Players {
		snap := inst.buildSnapshot(p, tick, inst.deps.Scripts.ExpToNext)
		inst.deps.Hooks.Send(p.ID, "snapshot", snap)
	}
}
