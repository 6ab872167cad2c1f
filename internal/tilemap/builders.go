package tilemap

import "math/rand"

// NewNexus builds the safe hub: a walled square room with anchor points
// for the realm and vault portals.
func NewNexus() *Map {
	const size = 24
	m := newBlank(size, size)
	m.setRect(0, 0, size, size, TileWall)
	m.setRect(1, 1, size-2, size-2, TileFloor)
	m.SpawnPoint = Vec2{X: size / 2, Y: size/2 + 4}
	return m
}

// NexusRealmPortalPos is where the nexus→realm portal stands.
func NexusRealmPortalPos() Vec2 { return Vec2{X: 12, Y: 6} }

// NexusVaultPortalPos is where the nexus→vault portal stands.
func NexusVaultPortalPos() Vec2 { return Vec2{X: 18, Y: 12} }

// NewRealm builds the open hostile map: bordered floor with scattered
// water lakes, lava patches, rock outcrops, and one spawn region per
// quadrant.
func NewRealm(seed int64) *Map {
	const size = 128
	rng := rand.New(rand.NewSource(seed))
	m := newBlank(size, size)
	m.setRect(0, 0, size, size, TileWall)
	m.setRect(1, 1, size-2, size-2, TileFloor)

	// Terrain features, kept away from the center spawn area.
	for i := 0; i < 10; i++ {
		m.blob(rng, TileWater, 3, 8)
	}
	for i := 0; i < 6; i++ {
		m.blob(rng, TileLava, 2, 5)
	}
	for i := 0; i < 14; i++ {
		m.blob(rng, TileWall, 1, 4)
	}

	center := size / 2
	m.setRect(center-4, center-4, 8, 8, TileFloor)
	m.SpawnPoint = Vec2{X: float64(center), Y: float64(center)}

	half := size / 2
	quads := [4][2]int{{1, 1}, {half, 1}, {1, half}, {half, half}}
	for _, q := range quads {
		m.SpawnRegions = append(m.SpawnRegions, &SpawnRegion{
			X: q[0], Y: q[1], W: half - 1, H: half - 1,
			EnemyWeights: map[string]float64{
				"pirate":    0.4,
				"snake":     0.3,
				"dark_mage": 0.2,
				"demon":     0.1,
			},
			MaxAlive: 20,
			Rate:     0.5,
		})
	}
	return m
}

// blob stamps a random rectangle of tile t somewhere in the interior.
func (m *Map) blob(rng *rand.Rand, t Tile, minSize, maxSize int) {
	w := minSize + rng.Intn(maxSize-minSize+1)
	h := minSize + rng.Intn(maxSize-minSize+1)
	x := 2 + rng.Intn(m.Width-w-4)
	y := 2 + rng.Intn(m.Height-h-4)
	// Never bury the map center.
	cx, cy := m.Width/2, m.Height/2
	if x < cx+6 && x+w > cx-6 && y < cy+6 && y+h > cy-6 {
		return
	}
	m.setRect(x, y, w, h, t)
}

// NewVault builds the tiny private room holding the vault chest.
func NewVault() *Map {
	const size = 10
	m := newBlank(size, size)
	m.setRect(0, 0, size, size, TileWall)
	m.setRect(1, 1, size-2, size-2, TileFloor)
	m.SpawnPoint = Vec2{X: size / 2, Y: size - 3}
	return m
}

// VaultChestPos is where the chest stands inside a vault instance.
func VaultChestPos() Vec2 { return Vec2{X: 5, Y: 3} }
