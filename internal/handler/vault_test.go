package handler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type stubWorld struct {
	instances map[string]*game.Instance
}

func (w *stubWorld) InstanceByID(id string) *game.Instance { return w.instances[id] }

func (w *stubWorld) EnterWorld(*net.Session, *persist.CharacterRow) error { return nil }

func (w *stubWorld) EnterPortal(*net.Session, string) {}

func (w *stubWorld) ReturnToNexus(*net.Session) {}

func (w *stubWorld) HandleDisconnect(*net.Session) {}

type nopHooks struct{}

func (nopHooks) Send(string, string, any) {}

func (nopHooks) OnPlayerDeath(*game.Instance, *game.Player) {}

func (nopHooks) OnPortalDrop(*game.Instance, string, tilemap.Vec2) {}

func (nopHooks) OnBossKilled(*game.Instance, tilemap.Vec2) {}

// vaultFixture is one resident vault: the owning account, its vault
// instance registered in a stub world, and the owner's player inside.
type vaultFixture struct {
	deps   *Deps
	inst   *game.Instance
	owner  *persist.AccountRow
	player *game.Player
}

func newVaultFixture(t *testing.T) *vaultFixture {
	t.Helper()
	tables, err := data.LoadTables("../../data/yaml")
	require.NoError(t, err)
	scripts, err := scripting.NewEngine("does-not-exist.lua", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(scripts.Close)

	db, err := persist.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	accounts := persist.NewAccountRepo(db)
	vaults := persist.NewVaultRepo(db)
	owner, err := accounts.Create("owner", "password123")
	require.NoError(t, err)

	world := &stubWorld{instances: make(map[string]*game.Instance)}
	deps := &Deps{
		Cfg:      &config.Config{},
		Log:      zap.NewNop(),
		Tables:   tables,
		Accounts: accounts,
		Vaults:   vaults,
		World:    world,
	}

	inst := game.NewInstance(fmt.Sprintf("vault-%d", owner.ID), game.KindVault, tilemap.NewVault(),
		game.Deps{Tables: tables, Scripts: scripts, Hooks: nopHooks{}, Log: zap.NewNop()})
	inst.AddChest(game.NewVaultChest(tilemap.VaultChestPos()))
	world.instances[inst.ID] = inst

	class := tables.Classes.Get("wizard")
	require.NotNil(t, class)
	var equip [config.EquipSlots]string
	var inv [config.InventorySize]string
	player := game.NewPlayer(tables, 1, owner.ID, "owner", class,
		1, 0, class.BaseHP, class.BaseMP, class.BaseStats, equip, inv)
	inst.AddPlayer(player)

	return &vaultFixture{deps: deps, inst: inst, owner: owner, player: player}
}

func gameSession(t *testing.T, accountID int64, playerID, instanceID string) *net.Session {
	t.Helper()
	cfg := &config.Config{}
	cfg.Network.OutQueueSize = 16
	cfg.Network.WriteTimeout = time.Second
	cfg.RateLimit.AuthPerMinute = 5
	cfg.RateLimit.InputBurstMax = 100
	cfg.RateLimit.InputBurstGap = 10 * time.Millisecond
	s := net.NewSession(nil, cfg, zap.NewNop())
	s.SetAuthenticated(accountID, "user", "tok")
	s.SetInGame(1, playerID, instanceID)
	s.SetVaultOpen(true)
	return s
}

func transferMsg(t *testing.T, d protocol.VaultTransferData) *protocol.Message {
	t.Helper()
	frame, err := protocol.Encode("vaultTransfer", d)
	require.NoError(t, err)
	msg, err := protocol.Decode(true, frame)
	require.NoError(t, err)
	return msg
}

func TestVaultTransferSwapsOwnSlots(t *testing.T) {
	f := newVaultFixture(t)
	var slots [config.VaultSize]string
	slots[2] = "demon_blade"
	require.NoError(t, f.deps.Vaults.Save(f.owner.ID, slots))

	s := gameSession(t, f.owner.ID, f.player.ID, f.inst.ID)
	HandleVaultTransfer(&Ctx{Sess: s, Deps: f.deps}, transferMsg(t, protocol.VaultTransferData{
		FromVault: true, FromSlot: 2, ToSlot: 0,
	}))
	f.inst.Update(0.05, 1, time.Now())

	assert.Equal(t, "demon_blade", f.player.Inventory[0])
	got, err := f.deps.Vaults.Get(f.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, got[2])
}

func TestVaultTransferRejectsForeignAccount(t *testing.T) {
	f := newVaultFixture(t)
	var slots [config.VaultSize]string
	slots[0] = "demon_blade"
	require.NoError(t, f.deps.Vaults.Save(f.owner.ID, slots))

	intruder, err := f.deps.Accounts.Create("intruder", "password123")
	require.NoError(t, err)

	// A session claiming residence in someone else's vault is dropped
	// without touching either account's storage.
	s := gameSession(t, intruder.ID, f.player.ID, f.inst.ID)
	HandleVaultTransfer(&Ctx{Sess: s, Deps: f.deps}, transferMsg(t, protocol.VaultTransferData{
		FromVault: true, FromSlot: 0, ToSlot: 0,
	}))
	f.inst.Update(0.05, 1, time.Now())

	got, err := f.deps.Vaults.Get(f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, slots, got, "owner's vault is untouched")
	assert.Empty(t, f.player.Inventory[0])

	theirs, err := f.deps.Vaults.Get(intruder.ID)
	require.NoError(t, err)
	assert.Equal(t, [config.VaultSize]string{}, theirs)
}

func TestVaultTransferRequiresOpenChest(t *testing.T) {
	f := newVaultFixture(t)
	var slots [config.VaultSize]string
	slots[0] = "demon_blade"
	require.NoError(t, f.deps.Vaults.Save(f.owner.ID, slots))

	s := gameSession(t, f.owner.ID, f.player.ID, f.inst.ID)
	s.SetVaultOpen(false)
	HandleVaultTransfer(&Ctx{Sess: s, Deps: f.deps}, transferMsg(t, protocol.VaultTransferData{
		FromVault: true, FromSlot: 0, ToSlot: 0,
	}))
	f.inst.Update(0.05, 1, time.Now())

	got, err := f.deps.Vaults.Get(f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, slots, got)
	assert.Empty(t, f.player.Inventory[0])
}
