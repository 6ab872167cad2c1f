package game

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/data"
	"github.com/realmgo/server/internal/tilemap"
)

// Equipment slot indices.
const (
	SlotWeapon  = 0
	SlotAbility = 1
	SlotArmor   = 2
	SlotRing    = 3
)

// Input is the latest movement/aim state reported by the client.
// Written by the session goroutine, read by the game loop; published
// through an atomic pointer so a torn read is impossible.
type Input struct {
	MoveX, MoveY float64
	AimAngle     float64
	Shooting     bool
}

// Buff is a temporary stat bonus.
type Buff struct {
	Stat      string
	Amount    int
	ExpiresAt time.Time
}

// Counters accumulate lifetime statistics for a character.
type Counters struct {
	DamageDealt     int64
	DamageTaken     int64
	ShotsFired      int64
	AbilitiesUsed   int64
	EnemiesKilled   int64
	DungeonsCleared int64
	TimePlayed      time.Duration
}

// Player is the resident runtime form of a character. Owned by its
// instance while resident; the persistence store owns the durable record.
type Player struct {
	Entity
	CharacterID int64
	AccountID   int64
	Name        string
	Class       *data.ClassDef

	Level int
	Exp   int
	HP    int
	MP    int
	Stats data.Stats

	Equipment [config.EquipSlots]string
	Inventory [config.InventorySize]string

	Buffs    []Buff
	Counters Counters

	LastHit         time.Time
	lastShot        time.Time
	abilityReadyAt  time.Time
	hpRegenAcc      float64
	mpRegenAcc      float64
	input           atomic.Pointer[Input]
	// Dirty is set whenever persisted state changes; the autosave sweep
	// only writes dirty players.
	Dirty bool

	// Instance is a back-reference to the owning instance. Non-owning:
	// the instance container holds the entity.
	Instance *Instance

	tables *data.Tables
}

// NewPlayer builds a resident player from a persisted character record.
func NewPlayer(tables *data.Tables, characterID, accountID int64, name string, class *data.ClassDef,
	level, exp, hp, mp int, stats data.Stats, equipment [config.EquipSlots]string, inventory [config.InventorySize]string) *Player {
	p := &Player{
		Entity:      newEntity(tilemap.Vec2{}, config.PlayerRadius),
		CharacterID: characterID,
		AccountID:   accountID,
		Name:        name,
		Class:       class,
		Level:       level,
		Exp:         exp,
		HP:          hp,
		MP:          mp,
		Stats:       stats,
		Equipment:   equipment,
		Inventory:   inventory,
		tables:      tables,
	}
	p.input.Store(&Input{})
	p.ClampVitals()
	return p
}

// SetInput publishes the latest client input.
func (p *Player) SetInput(in Input) {
	p.input.Store(&in)
}

// CurrentInput returns the most recently published input.
func (p *Player) CurrentInput() Input {
	return *p.input.Load()
}

func (p *Player) itemInSlot(slot int) *data.ItemDef {
	if slot < 0 || slot >= config.EquipSlots || p.Equipment[slot] == "" {
		return nil
	}
	return p.tables.Items.Get(p.Equipment[slot])
}

// Weapon returns the equipped weapon definition, or nil.
func (p *Player) Weapon() *data.ItemDef { return p.itemInSlot(SlotWeapon) }

// AbilityItem returns the equipped ability definition, or nil.
func (p *Player) AbilityItem() *data.ItemDef { return p.itemInSlot(SlotAbility) }

func (p *Player) ringBonus(stat string) int {
	ring := p.itemInSlot(SlotRing)
	if ring == nil || ring.Stat != stat {
		return 0
	}
	return ring.Amount
}

func (p *Player) buffBonus(stat string, now time.Time) int {
	total := 0
	for _, b := range p.Buffs {
		if b.Stat == stat && now.Before(b.ExpiresAt) {
			total += b.Amount
		}
	}
	return total
}

// EffectiveStat is the base stat plus ring and active buff bonuses.
func (p *Player) EffectiveStat(stat string, now time.Time) int {
	base := 0
	switch stat {
	case "attack":
		base = p.Stats.Attack
	case "defense":
		base = p.Stats.Defense
	case "speed":
		base = p.Stats.Speed
	case "dexterity":
		base = p.Stats.Dexterity
	case "vitality":
		base = p.Stats.Vitality
	case "wisdom":
		base = p.Stats.Wisdom
	}
	return base + p.ringBonus(stat) + p.buffBonus(stat, now)
}

// EffectiveAttack includes ring and buff bonuses.
func (p *Player) EffectiveAttack(now time.Time) int {
	return p.EffectiveStat("attack", now)
}

// EffectiveDefense adds equipped armor on top of the defense stat.
func (p *Player) EffectiveDefense(now time.Time) int {
	def := p.EffectiveStat("defense", now)
	if armor := p.itemInSlot(SlotArmor); armor != nil {
		def += armor.Defense
	}
	return def
}

// EffectiveSpeed in tiles per second.
func (p *Player) EffectiveSpeed(now time.Time) float64 {
	return 4 +
		float64(p.Stats.Speed)*0.1 +
		float64(p.ringBonus("speed"))*0.1 +
		float64(p.buffBonus("speed", now))*0.1
}

// EffectiveMaxHP scales with class and level.
func (p *Player) EffectiveMaxHP() int {
	return p.Class.BaseHP + p.Class.HPPerLevel*(p.Level-1)
}

// EffectiveMaxMP scales with class and level.
func (p *Player) EffectiveMaxMP() int {
	return p.Class.BaseMP + p.Class.MPPerLevel*(p.Level-1)
}

// ClampVitals clamps hp/mp into [0, effective max]. Called after any
// equipment or level change.
func (p *Player) ClampVitals() {
	if maxHP := p.EffectiveMaxHP(); p.HP > maxHP {
		p.HP = maxHP
	}
	if p.HP < 0 {
		p.HP = 0
	}
	if maxMP := p.EffectiveMaxMP(); p.MP > maxMP {
		p.MP = maxMP
	}
	if p.MP < 0 {
		p.MP = 0
	}
}

// update advances movement, buffs, and regen for one tick.
func (p *Player) update(dt float64, now time.Time, m *tilemap.Map, safeZone bool) {
	in := p.CurrentInput()

	// Clamp move vector to unit length with a small slack for client
	// float error, then renormalize.
	move := tilemap.Vec2{X: in.MoveX, Y: in.MoveY}
	if l := move.Len(); l > 1.1 {
		move = tilemap.Vec2{}
	} else if l > 1 {
		move = move.Normalized()
	}

	if move.X != 0 || move.Y != 0 {
		speed := p.EffectiveSpeed(now)
		step := move.Scale(speed * dt)
		p.moveWithSlide(step, m)
	}

	p.expireBuffs(now)
	p.regen(dt, now, safeZone)
	p.Counters.TimePlayed += time.Duration(dt * float64(time.Second))
}

// moveWithSlide tries the full diagonal step, then x-only, then y-only,
// so players slide along walls instead of sticking.
func (p *Player) moveWithSlide(step tilemap.Vec2, m *tilemap.Map) {
	if next := p.Pos.Add(step); m.CanOccupy(next, p.Radius) {
		p.Pos = next
		return
	}
	if next := (tilemap.Vec2{X: p.Pos.X + step.X, Y: p.Pos.Y}); step.X != 0 && m.CanOccupy(next, p.Radius) {
		p.Pos = next
		return
	}
	if next := (tilemap.Vec2{X: p.Pos.X, Y: p.Pos.Y + step.Y}); step.Y != 0 && m.CanOccupy(next, p.Radius) {
		p.Pos = next
	}
}

func (p *Player) expireBuffs(now time.Time) {
	kept := p.Buffs[:0]
	for _, b := range p.Buffs {
		if now.Before(b.ExpiresAt) {
			kept = append(kept, b)
		}
	}
	p.Buffs = kept
}

// regen accrues fractional hp/mp into accumulators and applies whole
// points. Safe zones regen at 20% of max per second instead.
func (p *Player) regen(dt float64, now time.Time, safeZone bool) {
	var hpRate, mpRate float64
	if safeZone {
		hpRate = float64(p.EffectiveMaxHP()) * 0.20
		mpRate = float64(p.EffectiveMaxMP()) * 0.20
	} else {
		hpRate = 1 + float64(p.EffectiveStat("vitality", now))*0.12
		mpRate = 0.5 + float64(p.EffectiveStat("wisdom", now))*0.06
	}
	p.hpRegenAcc += hpRate * dt
	p.mpRegenAcc += mpRate * dt
	if whole := math.Floor(p.hpRegenAcc); whole >= 1 {
		p.HP += int(whole)
		p.hpRegenAcc -= whole
	}
	if whole := math.Floor(p.mpRegenAcc); whole >= 1 {
		p.MP += int(whole)
		p.mpRegenAcc -= whole
	}
	p.ClampVitals()
}

// CanShoot reports whether the weapon cooldown has elapsed.
func (p *Player) CanShoot(now time.Time) bool {
	w := p.Weapon()
	if w == nil || w.Weapon == nil || w.Weapon.RateOfFire <= 0 {
		return false
	}
	return now.Sub(p.lastShot).Seconds() >= 1/w.Weapon.RateOfFire
}

func (p *Player) markShot(now time.Time) {
	p.lastShot = now
	p.Counters.ShotsFired++
}

// AbilityReady reports whether the ability cooldown has elapsed and MP
// suffices.
func (p *Player) AbilityReady(now time.Time) bool {
	item := p.AbilityItem()
	if item == nil || item.Ability == nil {
		return false
	}
	return now.After(p.abilityReadyAt) && p.MP >= item.Ability.MPCost
}

func (p *Player) spendAbility(now time.Time) {
	item := p.AbilityItem()
	p.MP -= item.Ability.MPCost
	p.abilityReadyAt = now.Add(time.Duration(item.Ability.Cooldown * float64(time.Second)))
	p.Counters.AbilitiesUsed++
	p.Dirty = true
}

// GainExp accrues exp and applies any level-ups. Returns true when at
// least one level was gained.
func (p *Player) GainExp(amount int, expToNext func(level int) int) bool {
	if p.Level >= config.MaxLevel {
		return false
	}
	p.Exp += amount
	p.Dirty = true
	leveled := false
	for p.Level < config.MaxLevel && p.Exp >= expToNext(p.Level) {
		p.Exp = 0
		p.Level++
		g := p.Class.StatGrowth
		p.Stats.Attack += g.Attack
		p.Stats.Defense += g.Defense
		p.Stats.Speed += g.Speed
		p.Stats.Dexterity += g.Dexterity
		p.Stats.Vitality += g.Vitality
		p.Stats.Wisdom += g.Wisdom
		p.HP = p.EffectiveMaxHP()
		p.MP = p.EffectiveMaxMP()
		leveled = true
	}
	return leveled
}

// slotItemID reads the unified slot space: 0..3 equipment, 4..11 inventory.
func (p *Player) slotItemID(slot int) (string, bool) {
	switch {
	case slot >= 0 && slot < config.EquipSlots:
		return p.Equipment[slot], true
	case slot >= config.EquipSlots && slot < config.EquipSlots+config.InventorySize:
		return p.Inventory[slot-config.EquipSlots], true
	default:
		return "", false
	}
}

func (p *Player) setSlotItemID(slot int, id string) {
	switch {
	case slot >= 0 && slot < config.EquipSlots:
		p.Equipment[slot] = id
	case slot >= config.EquipSlots && slot < config.EquipSlots+config.InventorySize:
		p.Inventory[slot-config.EquipSlots] = id
	}
}

// canEquip checks class compatibility for placing item into an
// equipment slot. Empty item ids always fit.
func (p *Player) canEquip(slot int, itemID string) bool {
	if itemID == "" {
		return true
	}
	item := p.tables.Items.Get(itemID)
	if item == nil {
		return false
	}
	switch slot {
	case SlotWeapon:
		return item.Kind == data.ItemKindWeapon && item.SubType == p.Class.WeaponType
	case SlotAbility:
		return item.Kind == data.ItemKindAbility && item.SubType == p.Class.AbilityType
	case SlotArmor:
		return item.Kind == data.ItemKindArmor && item.SubType == p.Class.ArmorType
	case SlotRing:
		return item.Kind == data.ItemKindRing
	}
	return true
}

// SwapSlots exchanges two slots in the unified slot space, enforcing
// equipment compatibility. Returns false and leaves state untouched on
// any violation. Vitals are clamped after a successful swap.
func (p *Player) SwapSlots(from, to int) bool {
	if from == to {
		return false
	}
	a, okA := p.slotItemID(from)
	b, okB := p.slotItemID(to)
	if !okA || !okB {
		return false
	}
	if from < config.EquipSlots && !p.canEquip(from, b) {
		return false
	}
	if to < config.EquipSlots && !p.canEquip(to, a) {
		return false
	}
	p.setSlotItemID(from, b)
	p.setSlotItemID(to, a)
	p.ClampVitals()
	p.Dirty = true
	return true
}

// FirstEmptyInventorySlot returns an index into Inventory, or -1.
func (p *Player) FirstEmptyInventorySlot() int {
	for i, id := range p.Inventory {
		if id == "" {
			return i
		}
	}
	return -1
}
