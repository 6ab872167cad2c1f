package tilemap

import (
	"math/rand"

	"github.com/realmgo/server/internal/data"
)

const (
	dungeonWidth  = 200
	dungeonHeight = 140
)

type room struct {
	x, y, w, h int
	parent     int // index into rooms, -1 for the start room
}

func (r room) centerX() int { return r.x + r.w/2 }
func (r room) centerY() int { return r.y + r.h/2 }

func (r room) overlapsBuffered(o room, buf int) bool {
	return r.x-buf < o.x+o.w && r.x+r.w+buf > o.x &&
		r.y-buf < o.y+o.h && r.y+r.h+buf > o.y
}

// GenerateDungeon builds a procedural dungeon map for def. Rooms branch
// from a start room at left-center, biased rightward; the rightmost room
// becomes the boss room. Returns the map and the boss room center.
func GenerateDungeon(seed int64, def *data.DungeonDef) (*Map, Vec2) {
	rng := rand.New(rand.NewSource(seed))
	m := newBlank(dungeonWidth, dungeonHeight)

	start := room{x: 4, y: dungeonHeight/2 - 5, w: 10, h: 10, parent: -1}
	rooms := []room{start}

	target := def.MinRooms
	if def.MaxRooms > def.MinRooms {
		target += rng.Intn(def.MaxRooms - def.MinRooms + 1)
	}

	for attempts := 0; len(rooms) < target && attempts < 400; attempts++ {
		parentIdx := rng.Intn(len(rooms))
		parent := rooms[parentIdx]

		w := 8 + rng.Intn(7) // 8..14
		h := 8 + rng.Intn(7)
		gap := 6 + rng.Intn(7) // 6..12

		var nx, ny int
		switch roll := rng.Float64(); {
		case roll < 0.6: // right
			nx = parent.x + parent.w + gap
			ny = parent.centerY() - h/2
		case roll < 0.8: // down
			nx = parent.centerX() - w/2
			ny = parent.y + parent.h + gap
		default: // up
			nx = parent.centerX() - w/2
			ny = parent.y - gap - h
		}

		cand := room{x: nx, y: ny, w: w, h: h, parent: parentIdx}
		if nx < 2 || ny < 2 || nx+w > dungeonWidth-2 || ny+h > dungeonHeight-2 {
			continue
		}
		collides := false
		for _, r := range rooms {
			if cand.overlapsBuffered(r, 2) {
				collides = true
				break
			}
		}
		if collides {
			continue
		}
		rooms = append(rooms, cand)
	}

	// Rightmost room is the boss room; upsize to at least 12x12 in place.
	bossIdx := 0
	for i, r := range rooms {
		if r.x+r.w > rooms[bossIdx].x+rooms[bossIdx].w {
			bossIdx = i
		}
	}
	if rooms[bossIdx].w < 12 {
		rooms[bossIdx].w = 12
	}
	if rooms[bossIdx].h < 12 {
		rooms[bossIdx].h = 12
	}
	if rooms[bossIdx].x+rooms[bossIdx].w > dungeonWidth-2 {
		rooms[bossIdx].x = dungeonWidth - 2 - rooms[bossIdx].w
	}
	if rooms[bossIdx].y+rooms[bossIdx].h > dungeonHeight-2 {
		rooms[bossIdx].y = dungeonHeight - 2 - rooms[bossIdx].h
	}

	for i, r := range rooms {
		floor := TileFloor
		if i == bossIdx {
			floor = TileBossFloor
		}
		m.setRect(r.x, r.y, r.w, r.h, floor)
	}

	// 2-wide L-corridors through room centers, child to parent.
	for _, r := range rooms {
		if r.parent < 0 {
			continue
		}
		p := rooms[r.parent]
		carveCorridor(m, p.centerX(), p.centerY(), r.centerX(), r.centerY())
	}

	// Start room interior becomes the player spawn pad.
	m.setRect(start.x+1, start.y+1, start.w-2, start.h-2, TileSpawn)
	m.SpawnPoint = Vec2{X: float64(start.centerX()), Y: float64(start.centerY())}

	weights := func(ids []string) map[string]float64 {
		w := make(map[string]float64, len(ids))
		for _, id := range ids {
			w[id] = 1
		}
		return w
	}

	boss := rooms[bossIdx]
	m.SpawnRegions = append(m.SpawnRegions,
		&SpawnRegion{
			X: boss.x, Y: boss.y, W: boss.w, H: boss.h,
			EnemyWeights: map[string]float64{def.BossEnemy: 1},
			MaxAlive:     1,
			Rate:         def.BossRate,
		},
		&SpawnRegion{
			X: boss.x, Y: boss.y, W: boss.w, H: boss.h,
			EnemyWeights: weights(def.GuardianIDs),
			MaxAlive:     4,
			Rate:         def.GuardianRate,
		},
	)
	for i, r := range rooms {
		if i == bossIdx || r.parent < 0 {
			continue
		}
		m.SpawnRegions = append(m.SpawnRegions,
			&SpawnRegion{
				X: r.x, Y: r.y, W: r.w, H: r.h,
				EnemyWeights: weights(def.MinionIDs),
				MaxAlive:     6,
				Rate:         def.MinionRate,
			},
			&SpawnRegion{
				X: r.x, Y: r.y, W: r.w, H: r.h,
				EnemyWeights: weights(def.GuardianIDs),
				MaxAlive:     2,
				Rate:         def.GuardianRate,
			},
		)
	}

	bossCenter := Vec2{X: float64(boss.centerX()), Y: float64(boss.centerY())}
	return m, bossCenter
}

// carveCorridor cuts a 2-wide L-shaped floor path: horizontal leg first,
// then vertical.
func carveCorridor(m *Map, x1, y1, x2, y2 int) {
	lo, hi := x1, x2
	if lo > hi {
		lo, hi = hi, lo
	}
	for x := lo; x <= hi; x++ {
		carveFloor(m, x, y1)
		carveFloor(m, x, y1+1)
	}
	lo, hi = y1, y2
	if lo > hi {
		lo, hi = hi, lo
	}
	for y := lo; y <= hi; y++ {
		carveFloor(m, x2, y)
		carveFloor(m, x2+1, y)
	}
}

// carveFloor floors a void tile, leaving room floors (incl. boss) intact.
func carveFloor(m *Map, x, y int) {
	if m.At(x, y) == TileVoid {
		m.setRect(x, y, 1, 1, TileFloor)
	}
}
