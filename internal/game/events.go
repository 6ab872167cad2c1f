package game

import "github.com/realmgo/server/internal/tilemap"

// Hooks is the orchestration surface an instance calls out through.
// Implemented by the server layer; every call happens on the game loop
// goroutine.
type Hooks interface {
	// Send delivers one outbound message to the player's session.
	// Unknown or disconnected players are dropped silently.
	Send(playerID, msgType string, data any)
	// OnPlayerDeath handles permadeath: persist the kill, detach the
	// session, push a fresh character list.
	OnPlayerDeath(inst *Instance, p *Player)
	// OnPortalDrop opens a dungeon of the given type and plants its
	// entry portal at pos in inst.
	OnPortalDrop(inst *Instance, dungeonDefID string, pos tilemap.Vec2)
	// OnBossKilled plants the return portal at pos inside the dungeon.
	OnBossKilled(inst *Instance, pos tilemap.Vec2)
}

// Outbound event payloads.

type DamageEvent struct {
	TargetID string `msgpack:"targetId"`
	Amount   int    `msgpack:"amount"`
	HP       int    `msgpack:"hp"`
}

type DeathEvent struct {
	EntityID string `msgpack:"entityId"`
	Kind     string `msgpack:"kind"` // "player" or "enemy"
}

type LevelUpEvent struct {
	Level int `msgpack:"level"`
	MaxHP int `msgpack:"maxHp"`
	MaxMP int `msgpack:"maxMp"`
}

type AbilityEffectEvent struct {
	PlayerID string  `msgpack:"playerId"`
	Kind     string  `msgpack:"kind"`
	X        float64 `msgpack:"x"`
	Y        float64 `msgpack:"y"`
	Radius   float64 `msgpack:"radius"`
}

type LootSpawnEvent struct {
	BagID     string   `msgpack:"bagId"`
	X         float64  `msgpack:"x"`
	Y         float64  `msgpack:"y"`
	Items     []string `msgpack:"items"`
	Soulbound bool     `msgpack:"soulbound"`
}
