package tilemap

import (
	"math"
	"math/rand"
)

// SpawnRegion describes a rectangle the spawn scheduler populates.
type SpawnRegion struct {
	X, Y, W, H int
	// EnemyWeights maps enemy def id to relative weight.
	EnemyWeights map[string]float64
	MaxAlive     int
	Rate         float64 // spawns per second
}

// Contains reports whether the world position lies inside the region.
func (r *SpawnRegion) Contains(x, y float64) bool {
	return x >= float64(r.X) && x < float64(r.X+r.W) &&
		y >= float64(r.Y) && y < float64(r.Y+r.H)
}

// PickEnemy samples an enemy id from the weight table, or "" when empty.
func (r *SpawnRegion) PickEnemy(rng *rand.Rand) string {
	var total float64
	for _, w := range r.EnemyWeights {
		total += w
	}
	if total <= 0 {
		return ""
	}
	roll := rng.Float64() * total
	for id, w := range r.EnemyWeights {
		roll -= w
		if roll <= 0 {
			return id
		}
	}
	return ""
}

// Map is an immutable tile grid plus spawn metadata. Shared read-only
// between the instance and outbound instanceChange payloads.
type Map struct {
	Width, Height int
	Tiles         []Tile // row-major, len = Width*Height
	SpawnRegions  []*SpawnRegion

	// SpawnPoint is where arriving players are placed by default.
	SpawnPoint Vec2
}

// Vec2 is a position in tile units.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the Euclidean length.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// Normalized returns the unit vector, or zero for a zero vector.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// At returns the tile at integer coordinates, TileVoid when out of bounds.
func (m *Map) At(x, y int) Tile {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return TileVoid
	}
	return m.Tiles[y*m.Width+x]
}

// TileAt returns the tile under a world position.
func (m *Map) TileAt(pos Vec2) Tile {
	return m.At(int(math.Floor(pos.X)), int(math.Floor(pos.Y)))
}

// IsWalkable reports whether the tile under pos is walkable.
func (m *Map) IsWalkable(pos Vec2) bool {
	return m.TileAt(pos).Walkable()
}

// CanOccupy samples the center and the four radius corners; a body may
// occupy pos only if all five points land on walkable tiles.
func (m *Map) CanOccupy(pos Vec2, radius float64) bool {
	points := [5]Vec2{
		pos,
		{pos.X - radius, pos.Y - radius},
		{pos.X + radius, pos.Y - radius},
		{pos.X - radius, pos.Y + radius},
		{pos.X + radius, pos.Y + radius},
	}
	for _, p := range points {
		if !m.IsWalkable(p) {
			return false
		}
	}
	return true
}

// RandomWalkableIn samples a walkable position inside the rect, giving up
// after 20 attempts.
func (m *Map) RandomWalkableIn(rng *rand.Rand, x, y, w, h int, radius float64) (Vec2, bool) {
	for i := 0; i < 20; i++ {
		p := Vec2{
			X: float64(x) + rng.Float64()*float64(w),
			Y: float64(y) + rng.Float64()*float64(h),
		}
		if m.CanOccupy(p, radius) {
			return p, true
		}
	}
	return Vec2{}, false
}

// setRect fills a rectangle with tile t, clipped to bounds.
func (m *Map) setRect(x, y, w, h int, t Tile) {
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			if tx >= 0 && ty >= 0 && tx < m.Width && ty < m.Height {
				m.Tiles[ty*m.Width+tx] = t
			}
		}
	}
}

func newBlank(w, h int) *Map {
	return &Map{Width: w, Height: h, Tiles: make([]Tile, w*h)}
}
