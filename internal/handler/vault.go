package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/game"
	"github.com/realmgo/server/internal/protocol"
)

// ownVault checks that the session resides in its own vault instance.
// Any mismatch is an authorization failure and is dropped silently.
func ownVault(c *Ctx, inst *game.Instance) bool {
	if inst == nil || inst.Kind != game.KindVault {
		return false
	}
	return inst.ID == fmt.Sprintf("vault-%d", c.Sess.AccountID())
}

// HandleInteractVaultChest processes interactVaultChest: opens the
// vault UI when the player stands at the chest.
func HandleInteractVaultChest(c *Ctx, _ *protocol.Message) {
	inst := c.instance()
	if !ownVault(c, inst) {
		return
	}
	accountID := c.Sess.AccountID()
	sess := c.Sess
	deps := c.Deps
	playerID := sess.PlayerID()
	inst.Enqueue(func(i *game.Instance) {
		p, ok := i.Players[playerID]
		if !ok {
			return
		}
		inRange := false
		for _, chest := range i.Chests {
			if p.Pos.Dist(chest.Pos) <= config.VaultChestRange {
				inRange = true
				break
			}
		}
		if !inRange {
			return
		}
		slots, err := deps.Vaults.Get(accountID)
		if err != nil {
			deps.Log.Error("load vault", zap.Int64("account", accountID), zap.Error(err))
			return
		}
		sess.SetVaultOpen(true)
		sess.Send("vaultOpen", protocol.VaultOpen{Slots: slots[:]})
	})
}

// HandleVaultTransfer processes vaultTransfer{fromVault,fromSlot,toSlot}:
// an atomic swap between a vault slot and an inventory slot, persisted
// immediately.
func HandleVaultTransfer(c *Ctx, msg *protocol.Message) {
	var d protocol.VaultTransferData
	if err := msg.Bind(&d); err != nil {
		return
	}
	inst := c.instance()
	if !ownVault(c, inst) || !c.Sess.VaultOpen() {
		return
	}

	var vaultSlot, invSlot int
	if d.FromVault {
		vaultSlot, invSlot = d.FromSlot, d.ToSlot
	} else {
		invSlot, vaultSlot = d.FromSlot, d.ToSlot
	}
	if vaultSlot < 0 || vaultSlot >= config.VaultSize ||
		invSlot < 0 || invSlot >= config.InventorySize {
		return
	}

	accountID := c.Sess.AccountID()
	sess := c.Sess
	deps := c.Deps
	playerID := sess.PlayerID()
	inst.Enqueue(func(i *game.Instance) {
		p, ok := i.Players[playerID]
		if !ok {
			return
		}
		slots, err := deps.Vaults.Get(accountID)
		if err != nil {
			deps.Log.Error("load vault", zap.Int64("account", accountID), zap.Error(err))
			return
		}
		slots[vaultSlot], p.Inventory[invSlot] = p.Inventory[invSlot], slots[vaultSlot]
		if err := deps.Vaults.Save(accountID, slots); err != nil {
			// Roll back the inventory side so the swap stays atomic.
			slots[vaultSlot], p.Inventory[invSlot] = p.Inventory[invSlot], slots[vaultSlot]
			deps.Log.Error("save vault", zap.Int64("account", accountID), zap.Error(err))
			return
		}
		p.Dirty = true
		sess.Send("vaultUpdate", protocol.VaultUpdate{
			Slots:     slots[:],
			Inventory: p.Inventory[:],
		})
	})
}

// HandleCloseVault processes closeVault. Transfers persist as they
// happen, so closing only flips the UI state.
func HandleCloseVault(c *Ctx, _ *protocol.Message) {
	c.Sess.SetVaultOpen(false)
}
