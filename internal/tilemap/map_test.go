package tilemap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRoomMap builds a w×h map fully floored except a wall border.
func testRoomMap(w, h int) *Map {
	m := newBlank(w, h)
	m.setRect(0, 0, w, h, TileWall)
	m.setRect(1, 1, w-2, h-2, TileFloor)
	return m
}

func TestTileWalkability(t *testing.T) {
	assert.True(t, TileFloor.Walkable())
	assert.True(t, TileSpawn.Walkable())
	assert.True(t, TileBossFloor.Walkable())
	assert.True(t, TileWater.Walkable())
	assert.False(t, TileWall.Walkable())
	assert.False(t, TileLava.Walkable())
	assert.False(t, TileVoid.Walkable())
}

func TestAtOutOfBoundsIsVoid(t *testing.T) {
	m := testRoomMap(8, 8)
	assert.Equal(t, TileVoid, m.At(-1, 0))
	assert.Equal(t, TileVoid, m.At(0, -1))
	assert.Equal(t, TileVoid, m.At(8, 0))
	assert.Equal(t, TileVoid, m.At(0, 99))
}

func TestCanOccupyFivePointSampling(t *testing.T) {
	m := testRoomMap(10, 10)
	// Dead center of a floor tile.
	assert.True(t, m.CanOccupy(Vec2{5, 5}, 0.35))
	// Center walkable but a corner pokes into the wall at x=9.
	assert.False(t, m.CanOccupy(Vec2{8.8, 5}, 0.35))
	// Squarely inside the wall.
	assert.False(t, m.CanOccupy(Vec2{0.5, 0.5}, 0.35))
}

func TestRandomWalkableIn(t *testing.T) {
	m := testRoomMap(20, 20)
	rng := rand.New(rand.NewSource(1))

	pos, ok := m.RandomWalkableIn(rng, 2, 2, 10, 10, 0.35)
	require.True(t, ok)
	assert.True(t, m.CanOccupy(pos, 0.35))
	assert.GreaterOrEqual(t, pos.X, 2.0)
	assert.Less(t, pos.X, 12.0)

	// A rect that is solid wall gives up after the attempt cap.
	solid := newBlank(10, 10)
	solid.setRect(0, 0, 10, 10, TileWall)
	_, ok = solid.RandomWalkableIn(rng, 0, 0, 10, 10, 0.35)
	assert.False(t, ok)
}

func TestSpawnRegionPickEnemy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	region := &SpawnRegion{
		X: 0, Y: 0, W: 4, H: 4,
		EnemyWeights: map[string]float64{"pirate": 1},
	}
	assert.Equal(t, "pirate", region.PickEnemy(rng))

	empty := &SpawnRegion{EnemyWeights: map[string]float64{}}
	assert.Equal(t, "", empty.PickEnemy(rng))
}

func TestVecHelpers(t *testing.T) {
	v := Vec2{3, 4}
	assert.InDelta(t, 5.0, v.Len(), 1e-9)
	assert.Equal(t, Vec2{}, Vec2{}.Normalized())
	n := v.Normalized()
	assert.InDelta(t, 1.0, n.Len(), 1e-9)
	assert.InDelta(t, 5.0, Vec2{0, 0}.Dist(v), 1e-9)
}

func TestBuildersProduceWalkableSpawns(t *testing.T) {
	nexus := NewNexus()
	assert.True(t, nexus.CanOccupy(nexus.SpawnPoint, 0.35))
	assert.Empty(t, nexus.SpawnRegions)

	realm := NewRealm(42)
	assert.True(t, realm.CanOccupy(realm.SpawnPoint, 0.35))
	assert.Len(t, realm.SpawnRegions, 4)

	vault := NewVault()
	assert.True(t, vault.CanOccupy(vault.SpawnPoint, 0.35))
	assert.True(t, vault.IsWalkable(VaultChestPos()))
}
