package game

import (
	"github.com/google/uuid"

	"github.com/realmgo/server/internal/tilemap"
)

// Instance kinds.
const (
	KindNexus   = "nexus"
	KindRealm   = "realm"
	KindDungeon = "dungeon"
	KindVault   = "vault"
)

// Entity is the kernel embedded by every concrete entity. An entity
// lives in exactly one instance's container; (instance id, entity id)
// is the reference.
type Entity struct {
	ID     string
	Pos    tilemap.Vec2
	Radius float64
	// Remove marks the entity for drain during the cleanup stage.
	Remove bool
}

func newEntity(pos tilemap.Vec2, radius float64) Entity {
	return Entity{ID: uuid.NewString(), Pos: pos, Radius: radius}
}

// Overlaps reports circle-circle overlap with another entity.
func (e *Entity) Overlaps(o *Entity) bool {
	r := e.Radius + o.Radius
	d := e.Pos.Sub(o.Pos)
	return d.X*d.X+d.Y*d.Y <= r*r
}

// DistTo returns the distance to another entity's center.
func (e *Entity) DistTo(o *Entity) float64 {
	return e.Pos.Dist(o.Pos)
}
