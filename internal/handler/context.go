package handler

import (
	"go.uber.org/zap"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/data"
	"github.com/realmgo/server/internal/game"
	"github.com/realmgo/server/internal/net"
	"github.com/realmgo/server/internal/persist"
)

// Orchestrator is the server-layer surface handlers reach the world
// through. Implemented by internal/server.
type Orchestrator interface {
	// InstanceByID resolves an instance id, nil when unknown.
	InstanceByID(id string) *game.Instance
	// EnterWorld spawns the character as a resident player in the
	// nexus and sends the instanceChange payload.
	EnterWorld(s *net.Session, row *persist.CharacterRow) error
	// EnterPortal resolves the portal (including the vault sentinel
	// and dungeon reaping) and transfers the player. Runs on the next
	// tick of the source instance.
	EnterPortal(s *net.Session, portalID string)
	// ReturnToNexus transfers the player back to the hub.
	ReturnToNexus(s *net.Session)
	// HandleDisconnect persists and detaches the session's player.
	HandleDisconnect(s *net.Session)
}

// Deps carries everything handlers need. One value shared by all
// handlers, built once in main.
type Deps struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Tables     *data.Tables
	Accounts   *persist.AccountRepo
	Sessions   *persist.SessionRepo
	Characters *persist.CharacterRepo
	Vaults     *persist.VaultRepo
	Admins     *Allowlist
	World      Orchestrator
}

// Ctx is the per-dispatch view handed to a handler.
type Ctx struct {
	Sess *net.Session
	Deps *Deps
}

// instance resolves the session's resident instance, nil when the
// session is not placed.
func (c *Ctx) instance() *game.Instance {
	id := c.Sess.InstanceID()
	if id == "" {
		return nil
	}
	return c.Deps.World.InstanceByID(id)
}
