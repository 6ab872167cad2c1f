package game

import (
	"github.com/realmgo/server/internal/config"
)

// Snapshot views carry only the fields clients render. Encoded with
// msgpack on the way out.

type PlayerView struct {
	ID      string  `msgpack:"id"`
	Name    string  `msgpack:"name"`
	ClassID string  `msgpack:"classId"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	HP      int     `msgpack:"hp"`
	MaxHP   int     `msgpack:"maxHp"`
	MP      int     `msgpack:"mp"`
	MaxMP   int     `msgpack:"maxMp"`
	Level   int     `msgpack:"level"`
}

type EnemyView struct {
	ID    string  `msgpack:"id"`
	DefID string  `msgpack:"defId"`
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	HP    int     `msgpack:"hp"`
	MaxHP int     `msgpack:"maxHp"`
}

type ProjectileView struct {
	ID   string  `msgpack:"id"`
	Side string  `msgpack:"side"`
	X    float64 `msgpack:"x"`
	Y    float64 `msgpack:"y"`
	VelX float64 `msgpack:"velX"`
	VelY float64 `msgpack:"velY"`
}

type LootView struct {
	ID        string   `msgpack:"id"`
	X         float64  `msgpack:"x"`
	Y         float64  `msgpack:"y"`
	Items     []string `msgpack:"items"`
	Soulbound bool     `msgpack:"soulbound"`
}

type PortalView struct {
	ID         string  `msgpack:"id"`
	X          float64 `msgpack:"x"`
	Y          float64 `msgpack:"y"`
	Name       string  `msgpack:"name"`
	TargetKind string  `msgpack:"targetKind"`
	Visible    bool    `msgpack:"visible"`
}

type ChestView struct {
	ID string  `msgpack:"id"`
	X  float64 `msgpack:"x"`
	Y  float64 `msgpack:"y"`
}

// Snapshot is one 10 Hz AOI-filtered world view for a single client.
type Snapshot struct {
	Tick        uint64           `msgpack:"tick"`
	SelfID      string           `msgpack:"selfId"`
	Players     []PlayerView     `msgpack:"players"`
	Enemies     []EnemyView      `msgpack:"enemies"`
	Projectiles []ProjectileView `msgpack:"projectiles"`
	Loot        []LootView       `msgpack:"loot"`
	Portals     []PortalView     `msgpack:"portals"`
	Chests      []ChestView      `msgpack:"chests"`
	// Self carries the viewer's private state (exp, inventory).
	Self SelfView `msgpack:"self"`
}

// SelfView is the viewer's own full state, never replicated to others.
type SelfView struct {
	Exp       int                          `msgpack:"exp"`
	ExpToNext int                          `msgpack:"expToNext"`
	Equipment [config.EquipSlots]string    `msgpack:"equipment"`
	Inventory [config.InventorySize]string `msgpack:"inventory"`
}

// buildSnapshot gathers every entity within the AOI radius of viewer,
// filtering soulbound bags the viewer does not own.
func (inst *Instance) buildSnapshot(viewer *Player, tick uint64, expToNext func(int) int) *Snapshot {
	snap := &Snapshot{Tick: tick, SelfID: viewer.ID}
	for _, p := range inst.Players {
		if viewer.Pos.Dist(p.Pos) > config.AOIRadius {
			continue
		}
		snap.Players = append(snap.Players, PlayerView{
			ID: p.ID, Name: p.Name, ClassID: p.Class.ID,
			X: p.Pos.X, Y: p.Pos.Y,
			HP: p.HP, MaxHP: p.EffectiveMaxHP(),
			MP: p.MP, MaxMP: p.EffectiveMaxMP(),
			Level: p.Level,
		})
	}
	for _, e := range inst.Enemies {
		if viewer.Pos.Dist(e.Pos) > config.AOIRadius {
			continue
		}
		snap.Enemies = append(snap.Enemies, EnemyView{
			ID: e.ID, DefID: e.Def.ID,
			X: e.Pos.X, Y: e.Pos.Y,
			HP: e.HP, MaxHP: e.MaxHP,
		})
	}
	for _, pr := range inst.Projectiles {
		if viewer.Pos.Dist(pr.Pos) > config.AOIRadius {
			continue
		}
		snap.Projectiles = append(snap.Projectiles, ProjectileView{
			ID: pr.ID, Side: pr.Side,
			X: pr.Pos.X, Y: pr.Pos.Y,
			VelX: pr.Vel.X, VelY: pr.Vel.Y,
		})
	}
	for _, b := range inst.Loot {
		if viewer.Pos.Dist(b.Pos) > config.AOIRadius || !b.VisibleTo(viewer.ID) {
			continue
		}
		snap.Loot = append(snap.Loot, LootView{
			ID: b.ID, X: b.Pos.X, Y: b.Pos.Y,
			Items: b.Items, Soulbound: b.Soulbound,
		})
	}
	for _, po := range inst.Portals {
		if viewer.Pos.Dist(po.Pos) > config.AOIRadius {
			continue
		}
		snap.Portals = append(snap.Portals, PortalView{
			ID: po.ID, X: po.Pos.X, Y: po.Pos.Y,
			Name: po.DisplayName, TargetKind: po.TargetKind,
			Visible: po.Visible,
		})
	}
	for _, c := range inst.Chests {
		if viewer.Pos.Dist(c.Pos) > config.AOIRadius {
			continue
		}
		snap.Chests = append(snap.Chests, ChestView{ID: c.ID, X: c.Pos.X, Y: c.Pos.Y})
	}
	snap.Self = SelfView{
		Exp:       viewer.Exp,
		ExpToNext: expToNext(viewer.Level),
		Equipment: viewer.Equipment,
		Inventory: viewer.Inventory,
	}
	return snap
}
