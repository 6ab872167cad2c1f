package game

import (
	"time"

	"github.com/realmgo/server/internal/tilemap"
)

// Projectile sides.
const (
	SidePlayer = "player"
	SideEnemy  = "enemy"
)

// Cap on unique targets a piercing projectile can remember. Long-lived
// piercers would otherwise grow the hit set without bound.
const maxHitSet = 64

// Projectile is one ballistic shot. Dies on wall contact or when its
// lifetime runs out.
type Projectile struct {
	Entity
	OwnerID string
	Side    string
	Vel     tilemap.Vec2
	Damage  int
	Pierce  bool

	Lifetime float64 // seconds
	SpawnAt  time.Time

	hitSet map[string]struct{}
}

// NewProjectile builds a projectile at pos moving along vel.
func NewProjectile(ownerID, side string, pos, vel tilemap.Vec2, damage int, pierce bool, lifetime float64, now time.Time) *Projectile {
	return &Projectile{
		Entity:   newEntity(pos, 0.15),
		OwnerID:  ownerID,
		Side:     side,
		Vel:      vel,
		Damage:   damage,
		Pierce:   pierce,
		Lifetime: lifetime,
		SpawnAt:  now,
		hitSet:   make(map[string]struct{}),
	}
}

// update moves the projectile and expires it on walls or lifetime.
func (pr *Projectile) update(dt float64, now time.Time, m *tilemap.Map) {
	pr.Pos = pr.Pos.Add(pr.Vel.Scale(dt))
	if m.TileAt(pr.Pos).BlocksProjectiles() {
		pr.Remove = true
		return
	}
	if now.Sub(pr.SpawnAt).Seconds() >= pr.Lifetime {
		pr.Remove = true
	}
}

// RegisterHit records a target. Returns false if the target was already
// hit (or the set is full), in which case no damage applies.
func (pr *Projectile) RegisterHit(targetID string) bool {
	if _, seen := pr.hitSet[targetID]; seen {
		return false
	}
	if len(pr.hitSet) >= maxHitSet {
		return false
	}
	pr.hitSet[targetID] = struct{}{}
	if !pr.Pierce {
		pr.Remove = true
	}
	return true
}

// HitCount returns how many distinct targets were hit.
func (pr *Projectile) HitCount() int { return len(pr.hitSet) }
