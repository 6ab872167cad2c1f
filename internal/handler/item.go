package handler

import (
	"time"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/game"
	"github.com/realmgo/server/internal/protocol"
)

// HandlePickupLoot processes pickupLoot{lootId}.
func HandlePickupLoot(c *Ctx, msg *protocol.Message) {
	var d protocol.PickupLootData
	if err := msg.Bind(&d); err != nil {
		return
	}
	inst := c.instance()
	if inst == nil {
		return
	}
	playerID := c.Sess.PlayerID()
	inst.Enqueue(func(i *game.Instance) {
		if p, ok := i.Players[playerID]; ok {
			i.TryPickupLoot(p, d.LootID)
		}
	})
}

// HandleSwapItems processes swapItems{from,to} over the unified slot
// space: 0..3 equipment, 4..11 inventory.
func HandleSwapItems(c *Ctx, msg *protocol.Message) {
	var d protocol.SwapItemsData
	if err := msg.Bind(&d); err != nil {
		return
	}
	inst := c.instance()
	if inst == nil {
		return
	}
	playerID := c.Sess.PlayerID()
	inst.Enqueue(func(i *game.Instance) {
		if p, ok := i.Players[playerID]; ok {
			p.SwapSlots(d.From, d.To)
		}
	})
}

// HandleDropItem processes dropItem{slot}: clears the slot, clamps
// vitals, and puts the item on the ground.
func HandleDropItem(c *Ctx, msg *protocol.Message) {
	var d protocol.DropItemData
	if err := msg.Bind(&d); err != nil {
		return
	}
	inst := c.instance()
	if inst == nil {
		return
	}
	if d.Slot < 0 || d.Slot >= config.EquipSlots+config.InventorySize {
		return
	}
	playerID := c.Sess.PlayerID()
	inst.Enqueue(func(i *game.Instance) {
		p, ok := i.Players[playerID]
		if !ok {
			return
		}
		var itemID string
		if d.Slot < config.EquipSlots {
			itemID = p.Equipment[d.Slot]
			p.Equipment[d.Slot] = ""
		} else {
			itemID = p.Inventory[d.Slot-config.EquipSlots]
			p.Inventory[d.Slot-config.EquipSlots] = ""
		}
		if itemID == "" {
			return
		}
		p.ClampVitals()
		p.Dirty = true
		i.DropItem(p, itemID, time.Now())
	})
}
