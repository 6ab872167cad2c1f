package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/data"
	"github.com/realmgo/server/internal/scripting"
	"github.com/realmgo/server/internal/tilemap"
)

var (
	tablesOnce sync.Once
	tables     *data.Tables
	tablesErr  error
)

func loadTables(t *testing.T) *data.Tables {
	t.Helper()
	tablesOnce.Do(func() {
		tables, tablesErr = data.LoadTables("../../data/yaml")
	})
	require.NoError(t, tablesErr)
	return tables
}

func newEngine(t *testing.T) *scripting.Engine {
	t.Helper()
	e, err := scripting.NewEngine("does-not-exist.lua", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

type sentMsg struct {
	PlayerID string
	Type     string
	Data     any
}

// stubHooks records every hook call for assertions.
type stubHooks struct {
	sent        []sentMsg
	deaths      []*Player
	portalDrops []string
	bossKills   int
}

func (h *stubHooks) Send(playerID, msgType string, data any) {
	h.sent = append(h.sent, sentMsg{PlayerID: playerID, Type: msgType, Data: data})
}

func (h *stubHooks) OnPlayerDeath(_ *Instance, p *Player) {
	h.deaths = append(h.deaths, p)
	p.Remove = true
}

func (h *stubHooks) OnPortalDrop(_ *Instance, dungeonDefID string, _ tilemap.Vec2) {
	h.portalDrops = append(h.portalDrops, dungeonDefID)
}

func (h *stubHooks) OnBossKilled(_ *Instance, _ tilemap.Vec2) {
	h.bossKills++
}

func (h *stubHooks) sentOfType(msgType string) []sentMsg {
	var out []sentMsg
	for _, m := range h.sent {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

// openRoom builds a w×h map of floor with a wall border and a centered
// spawn point.
func openRoom(w, h int) *tilemap.Map {
	m := &tilemap.Map{Width: w, Height: h, Tiles: make([]tilemap.Tile, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tile := tilemap.TileFloor
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				tile = tilemap.TileWall
			}
			m.Tiles[y*w+x] = tile
		}
	}
	m.SpawnPoint = tilemap.Vec2{X: float64(w) / 2, Y: float64(h) / 2}
	return m
}

func newTestInstance(t *testing.T, kind string, m *tilemap.Map) (*Instance, *stubHooks) {
	t.Helper()
	hooks := &stubHooks{}
	deps := Deps{
		Tables:  loadTables(t),
		Scripts: newEngine(t),
		Hooks:   hooks,
		Log:     zap.NewNop(),
	}
	return NewInstance("test-"+kind, kind, m, deps), hooks
}

func newTestPlayer(t *testing.T, classID string) *Player {
	t.Helper()
	tbl := loadTables(t)
	class := tbl.Classes.Get(classID)
	require.NotNil(t, class, "unknown test class %s", classID)
	var equip [config.EquipSlots]string
	for i, id := range class.StartingEquipment {
		if i < config.EquipSlots {
			equip[i] = id
		}
	}
	var inv [config.InventorySize]string
	return NewPlayer(tbl, 1, 1, "tester", class,
		1, 0, class.BaseHP, class.BaseMP, class.BaseStats, equip, inv)
}
