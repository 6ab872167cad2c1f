package tilemap

// Tile is one cell's terrain code. Values are stable wire identifiers:
// clients receive the raw grid in instanceChange payloads.
type Tile uint8

const (
	TileVoid Tile = iota
	TileFloor
	TileWall
	TileWater
	TileLava
	TileSpawn
	TileBossFloor
)

// Walkable reports whether entities may occupy the tile.
func (t Tile) Walkable() bool {
	switch t {
	case TileFloor, TileSpawn, TileBossFloor, TileWater:
		return true
	default:
		return false
	}
}

// BlocksProjectiles reports whether the tile kills projectiles on contact.
func (t Tile) BlocksProjectiles() bool {
	return t == TileWall || t == TileVoid
}
