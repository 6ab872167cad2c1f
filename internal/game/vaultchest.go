package game

import "github.com/realmgo/server/internal/tilemap"

// VaultChest is the static interaction point inside a vault instance.
type VaultChest struct {
	Entity
}

// NewVaultChest places a chest at pos.
func NewVaultChest(pos tilemap.Vec2) *VaultChest {
	return &VaultChest{Entity: newEntity(pos, 0.5)}
}
