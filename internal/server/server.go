package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/data"
	"github.com/realmgo/server/internal/game"
	"github.com/realmgo/server/internal/net"
	"github.com/realmgo/server/internal/persist"
	"github.com/realmgo/server/internal/protocol"
	"github.com/realmgo/server/internal/scripting"
	"github.com/realmgo/server/internal/tilemap"
)

// Instance ids for the two standing worlds.
const (
	NexusID = "nexus-main"
	RealmID = "realm-main"
)

// Server owns the instance set, the playerId→session routing table, and
// the tick loop. It implements game.Hooks and handler.Orchestrator.
type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	tables  *data.Tables
	scripts *scripting.Engine

	characters *persist.CharacterRepo
	vaults     *persist.VaultRepo

	// mu guards instances and routes. Instances are registered and
	// unregistered only between tick work; routes are written on
	// enter/leave and read by snapshot emitters.
	mu        sync.RWMutex
	instances map[string]*game.Instance
	routes    map[string]*net.Session

	nexus *game.Instance
	realm *game.Instance

	deps game.Deps
	tick uint64
}

// New builds the server and its two standing instances with their
// portals wired.
func New(cfg *config.Config, tables *data.Tables, scripts *scripting.Engine,
	characters *persist.CharacterRepo, vaults *persist.VaultRepo, log *zap.Logger) *Server {

	srv := &Server{
		cfg:        cfg,
		log:        log.Named("server"),
		tables:     tables,
		scripts:    scripts,
		characters: characters,
		vaults:     vaults,
		instances:  make(map[string]*game.Instance),
		routes:     make(map[string]*net.Session),
	}
	srv.deps = game.Deps{Tables: tables, Scripts: scripts, Hooks: srv, Log: log}

	now := time.Now()
	srv.nexus = game.NewInstance(NexusID, game.KindNexus, tilemap.NewNexus(), srv.deps)
	srv.realm = game.NewInstance(RealmID, game.KindRealm, tilemap.NewRealm(now.UnixNano()), srv.deps)

	srv.nexus.AddPortal(game.NewPortal(
		tilemap.NexusRealmPortalPos(), RealmID, game.KindRealm, "Realm", time.Time{}, now))
	srv.nexus.AddPortal(game.NewPortal(
		tilemap.NexusVaultPortalPos(), game.VaultTarget, game.KindVault, "Vault", time.Time{}, now))
	srv.realm.AddPortal(game.NewPortal(
		srv.realm.Map.SpawnPoint.Add(tilemap.Vec2{X: 3}), NexusID, game.KindNexus, "Nexus", time.Time{}, now))

	srv.instances[NexusID] = srv.nexus
	srv.instances[RealmID] = srv.realm
	return srv
}

// InstanceByID resolves an instance id.
func (srv *Server) InstanceByID(id string) *game.Instance {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return srv.instances[id]
}

func (srv *Server) registerInstance(inst *game.Instance) {
	srv.mu.Lock()
	srv.instances[inst.ID] = inst
	srv.mu.Unlock()
}

func (srv *Server) unregisterInstance(id string) {
	srv.mu.Lock()
	delete(srv.instances, id)
	srv.mu.Unlock()
}

// Send implements game.Hooks: route one message to a player's session.
func (srv *Server) Send(playerID, msgType string, data any) {
	srv.mu.RLock()
	s := srv.routes[playerID]
	srv.mu.RUnlock()
	if s != nil {
		s.Send(msgType, data)
	}
}

// EnterWorld places a freshly selected character into the nexus.
func (srv *Server) EnterWorld(s *net.Session, row *persist.CharacterRow) error {
	class := srv.tables.Classes.Get(row.ClassID)
	if class == nil {
		return fmt.Errorf("character %d: unknown class %q", row.ID, row.ClassID)
	}
	p := game.NewPlayer(srv.tables, row.ID, row.AccountID, row.Name, class,
		row.Level, row.Exp, row.HP, row.MP, row.Stats, row.Equipment, row.Inventory)
	p.Counters = game.Counters{
		DamageDealt:     row.DamageDealt,
		DamageTaken:     row.DamageTaken,
		ShotsFired:      row.ShotsFired,
		AbilitiesUsed:   row.AbilitiesUsed,
		EnemiesKilled:   row.EnemiesKilled,
		DungeonsCleared: row.DungeonsCleared,
		TimePlayed:      time.Duration(row.TimePlayedSec) * time.Second,
	}

	srv.mu.Lock()
	srv.routes[p.ID] = s
	srv.mu.Unlock()

	s.SetInGame(row.ID, p.ID, srv.nexus.ID)
	srv.nexus.Enqueue(func(i *game.Instance) {
		i.AddPlayer(p)
		s.Send("instanceChange", srv.instanceChangePayload(i, p))
	})
	srv.log.Info("player entered world",
		zap.Int64("character", row.ID),
		zap.String("player", p.ID),
		zap.String("name", p.Name))
	return nil
}

func (srv *Server) instanceChangePayload(inst *game.Instance, p *game.Player) protocol.InstanceChange {
	tiles := make([]uint8, len(inst.Map.Tiles))
	for i, t := range inst.Map.Tiles {
		tiles[i] = uint8(t)
	}
	return protocol.InstanceChange{
		InstanceID: inst.ID,
		Kind:       inst.Kind,
		Width:      inst.Map.Width,
		Height:     inst.Map.Height,
		Tiles:      tiles,
		SpawnX:     p.Pos.X,
		SpawnY:     p.Pos.Y,
		PlayerID:   p.ID,
	}
}

// EnterPortal resolves and performs a portal transfer at the source
// instance's next tick.
func (srv *Server) EnterPortal(s *net.Session, portalID string) {
	src := srv.InstanceByID(s.InstanceID())
	if src == nil {
		return
	}
	playerID := s.PlayerID()
	src.Enqueue(func(i *game.Instance) {
		p, ok := i.Players[playerID]
		if !ok {
			return
		}
		portal := i.TryEnterPortal(p, portalID)
		if portal == nil {
			return
		}
		var target *game.Instance
		if portal.TargetInstance == game.VaultTarget {
			target = srv.vaultInstance(s.AccountID())
		} else {
			target = srv.InstanceByID(portal.TargetInstance)
		}
		if target == nil {
			return
		}
		srv.transfer(s, i, target, p)
	})
}

// ReturnToNexus transfers the player back to the hub from anywhere.
func (srv *Server) ReturnToNexus(s *net.Session) {
	src := srv.InstanceByID(s.InstanceID())
	if src == nil || src == srv.nexus {
		return
	}
	playerID := s.PlayerID()
	src.Enqueue(func(i *game.Instance) {
		if p, ok := i.Players[playerID]; ok {
			srv.transfer(s, i, srv.nexus, p)
		}
	})
}

// transfer moves p between instances. All instances run on the one
// game loop goroutine, so the move is atomic: no tick observes a
// half-transferred player.
func (srv *Server) transfer(s *net.Session, from, to *game.Instance, p *game.Player) {
	from.RemovePlayer(p.ID)
	to.AddPlayer(p)
	s.SetInstanceID(to.ID)
	s.SetVaultOpen(false)
	s.Send("instanceChange", srv.instanceChangePayload(to, p))
	srv.maybeReap(from)
}

// maybeReap destroys a dungeon or vault instance the moment its last
// player is gone. Counts only live players: a death leaves the corpse
// in Players until cleanup, and that must not keep the instance alive.
func (srv *Server) maybeReap(inst *game.Instance) {
	if inst.Kind != game.KindDungeon && inst.Kind != game.KindVault {
		return
	}
	if inst.AlivePlayerCount() > 0 {
		return
	}
	srv.unregisterInstance(inst.ID)
	srv.log.Info("instance reaped", zap.String("instance", inst.ID), zap.String("kind", inst.Kind))
}

// vaultInstance returns the account's private vault, creating it on
// first entry.
func (srv *Server) vaultInstance(accountID int64) *game.Instance {
	id := fmt.Sprintf("vault-%d", accountID)
	if inst := srv.InstanceByID(id); inst != nil {
		return inst
	}
	inst := game.NewInstance(id, game.KindVault, tilemap.NewVault(), srv.deps)
	inst.AddChest(game.NewVaultChest(tilemap.VaultChestPos()))
	inst.AddPortal(game.NewPortal(
		inst.Map.SpawnPoint.Add(tilemap.Vec2{Y: 1}), NexusID, game.KindNexus, "Nexus",
		time.Time{}, time.Now()))
	srv.registerInstance(inst)
	srv.log.Info("vault instance created", zap.String("instance", id))
	return inst
}

// OnPortalDrop implements game.Hooks: a slain portal-dropper opens a
// fresh dungeon and plants its entry portal at the death point.
func (srv *Server) OnPortalDrop(inst *game.Instance, dungeonDefID string, pos tilemap.Vec2) {
	def := srv.tables.Dungeons.Get(dungeonDefID)
	if def == nil {
		srv.log.Warn("portal drop for unknown dungeon", zap.String("dungeon", dungeonDefID))
		return
	}
	now := time.Now()
	id := "dungeon-" + uuid.NewString()
	m, bossCenter := tilemap.GenerateDungeon(now.UnixNano(), def)

	dungeon := game.NewInstance(id, game.KindDungeon, m, srv.deps)
	dungeon.Dungeon = &game.DungeonMeta{
		DefID:          dungeonDefID,
		BossRoomCenter: bossCenter,
		SourceInstance: inst.ID,
	}
	dungeon.BulkSpawn()
	srv.registerInstance(dungeon)

	portal := game.NewPortal(pos, id, game.KindDungeon, def.Name,
		now.Add(config.DungeonPortalTTL), now)
	inst.AddPortal(portal)
	srv.log.Info("dungeon opened",
		zap.String("instance", id),
		zap.String("dungeon", dungeonDefID),
		zap.String("source", inst.ID))
}

// OnBossKilled implements game.Hooks: plant the permanent return portal
// at the boss's death point.
func (srv *Server) OnBossKilled(inst *game.Instance, pos tilemap.Vec2) {
	sourceID := NexusID
	sourceKind := game.KindNexus
	if inst.Dungeon != nil {
		if src := srv.InstanceByID(inst.Dungeon.SourceInstance); src != nil {
			sourceID = src.ID
			sourceKind = src.Kind
		}
	}
	inst.AddPortal(game.NewPortal(pos, sourceID, sourceKind, "Return", time.Time{}, time.Now()))
	srv.log.Info("boss killed, return portal opened", zap.String("instance", inst.ID))
}

// OnPlayerDeath implements game.Hooks: permadeath. The character is
// marked dead, the session drops to the character screen, and a fresh
// character list is pushed.
func (srv *Server) OnPlayerDeath(inst *game.Instance, p *game.Player) {
	p.Remove = true

	srv.mu.Lock()
	s := srv.routes[p.ID]
	delete(srv.routes, p.ID)
	srv.mu.Unlock()

	if err := srv.savePlayer(p); err != nil {
		srv.log.Error("save dead character", zap.Int64("character", p.CharacterID), zap.Error(err))
	}
	if err := srv.characters.Kill(p.CharacterID); err != nil {
		srv.log.Error("kill character", zap.Int64("character", p.CharacterID), zap.Error(err))
	}
	srv.log.Info("character died",
		zap.Int64("character", p.CharacterID),
		zap.String("name", p.Name),
		zap.String("instance", inst.ID))

	if s != nil {
		s.LeaveGame()
		srv.sendCharacterList(s)
	}
	srv.maybeReap(inst)
}

func (srv *Server) sendCharacterList(s *net.Session) {
	rows, err := srv.characters.GetAliveByAccount(s.AccountID())
	if err != nil {
		srv.log.Error("list characters", zap.Error(err))
		return
	}
	list := protocol.CharacterList{}
	for _, row := range rows {
		list.Characters = append(list.Characters, protocol.CharacterSummary{
			ID: row.ID, Name: row.Name, ClassID: row.ClassID, Level: row.Level,
		})
	}
	s.Send("characterList", list)
}

// HandleDisconnect implements handler.Orchestrator: persist and detach
// the session's player at the next tick boundary.
func (srv *Server) HandleDisconnect(s *net.Session) {
	playerID := s.PlayerID()
	if playerID == "" {
		return
	}
	inst := srv.InstanceByID(s.InstanceID())

	srv.mu.Lock()
	delete(srv.routes, playerID)
	srv.mu.Unlock()
	s.LeaveGame()

	if inst == nil {
		return
	}
	inst.Enqueue(func(i *game.Instance) {
		p := i.RemovePlayer(playerID)
		if p == nil {
			return
		}
		if err := srv.savePlayer(p); err != nil {
			srv.log.Error("save on disconnect", zap.Int64("character", p.CharacterID), zap.Error(err))
		}
		srv.maybeReap(i)
	})
}

// savePlayer writes the resident player's state back to its character row.
func (srv *Server) savePlayer(p *game.Player) error {
	row := &persist.CharacterRow{
		ID:              p.CharacterID,
		AccountID:       p.AccountID,
		Name:            p.Name,
		ClassID:         p.Class.ID,
		Level:           p.Level,
		Exp:             p.Exp,
		HP:              p.HP,
		MP:              p.MP,
		Stats:           p.Stats,
		Equipment:       p.Equipment,
		Inventory:       p.Inventory,
		Alive:           true,
		DamageDealt:     p.Counters.DamageDealt,
		DamageTaken:     p.Counters.DamageTaken,
		ShotsFired:      p.Counters.ShotsFired,
		AbilitiesUsed:   p.Counters.AbilitiesUsed,
		EnemiesKilled:   p.Counters.EnemiesKilled,
		DungeonsCleared: p.Counters.DungeonsCleared,
		TimePlayedSec:   int64(p.Counters.TimePlayed.Seconds()),
	}
	if err := srv.characters.Save(row); err != nil {
		return err
	}
	p.Dirty = false
	return nil
}
