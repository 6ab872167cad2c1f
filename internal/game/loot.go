package game

import (
	"time"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/tilemap"
)

const lootBagCapacity = 8

// LootBag holds dropped items on the ground. Soulbound bags carry an
// owner and are replicated only to that owner.
type LootBag struct {
	Entity
	Items     []string
	DespawnAt time.Time
	OwnerID   string
	Soulbound bool
}

// NewLootBag spawns a bag with the standard 60-second despawn.
// Soulbound requires an owner.
func NewLootBag(pos tilemap.Vec2, items []string, ownerID string, soulbound bool, now time.Time) *LootBag {
	return &LootBag{
		Entity:    newEntity(pos, 0.4),
		Items:     items,
		DespawnAt: now.Add(config.LootBagTTL),
		OwnerID:   ownerID,
		Soulbound: soulbound,
	}
}

// VisibleTo applies the soulbound filter.
func (b *LootBag) VisibleTo(playerID string) bool {
	return !b.Soulbound || b.OwnerID == playerID
}

// TakeFirst pops the first item. An emptied bag removes itself.
func (b *LootBag) TakeFirst() (string, bool) {
	if len(b.Items) == 0 {
		return "", false
	}
	item := b.Items[0]
	b.Items = b.Items[1:]
	if len(b.Items) == 0 {
		b.Remove = true
	}
	return item, true
}

// TryAdd appends an item if capacity allows.
func (b *LootBag) TryAdd(itemID string) bool {
	if len(b.Items) >= lootBagCapacity {
		return false
	}
	b.Items = append(b.Items, itemID)
	return true
}

func (b *LootBag) update(now time.Time) {
	if now.After(b.DespawnAt) || len(b.Items) == 0 {
		b.Remove = true
	}
}
