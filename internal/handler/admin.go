package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/game"
	"github.com/realmgo/server/internal/protocol"
	"github.com/realmgo/server/internal/tilemap"
)

// runAdminCommand parses one slash line from an allowlisted admin.
// Returns false for unknown commands so they fall through as chat.
func runAdminCommand(c *Ctx, line string) bool {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "give":
		return adminGive(c, args)
	case "items":
		return adminItems(c, args)
	case "heal":
		return adminHeal(c)
	case "level":
		return adminLevel(c, args)
	case "spawn":
		return adminSpawn(c, args)
	case "tp":
		return adminTeleport(c, args)
	case "help":
		reply(c, "Commands: /give <itemId>, /items [filter], /heal, /level <n>, /spawn <enemyId>, /tp <x> <y>, /help")
		return true
	default:
		return false
	}
}

func reply(c *Ctx, text string) {
	c.Sess.Send("chat", protocol.ChatBroadcast{From: "[server]", Message: text})
}

func adminGive(c *Ctx, args []string) bool {
	if len(args) != 1 {
		reply(c, "usage: /give <itemId>")
		return true
	}
	itemID := args[0]
	if c.Deps.Tables.Items.Get(itemID) == nil {
		reply(c, "unknown item: "+itemID)
		return true
	}
	onPlayer(c, func(i *game.Instance, p *game.Player) {
		slot := p.FirstEmptyInventorySlot()
		if slot < 0 {
			return
		}
		p.Inventory[slot] = itemID
		p.Dirty = true
	})
	return true
}

func adminItems(c *Ctx, args []string) bool {
	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}
	matches := c.Deps.Tables.Items.Search(filter)
	if len(matches) == 0 {
		reply(c, "no items match")
		return true
	}
	ids := make([]string, 0, len(matches))
	for _, it := range matches {
		ids = append(ids, it.ID)
	}
	reply(c, strings.Join(ids, ", "))
	return true
}

func adminHeal(c *Ctx) bool {
	onPlayer(c, func(i *game.Instance, p *game.Player) {
		p.HP = p.EffectiveMaxHP()
		p.MP = p.EffectiveMaxMP()
	})
	return true
}

func adminLevel(c *Ctx, args []string) bool {
	if len(args) != 1 {
		reply(c, "usage: /level <n>")
		return true
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > config.MaxLevel {
		reply(c, fmt.Sprintf("level must be 1..%d", config.MaxLevel))
		return true
	}
	onPlayer(c, func(i *game.Instance, p *game.Player) {
		for n > p.Level {
			g := p.Class.StatGrowth
			p.Stats.Attack += g.Attack
			p.Stats.Defense += g.Defense
			p.Stats.Speed += g.Speed
			p.Stats.Dexterity += g.Dexterity
			p.Stats.Vitality += g.Vitality
			p.Stats.Wisdom += g.Wisdom
			p.Level++
		}
		p.Exp = 0
		p.HP = p.EffectiveMaxHP()
		p.MP = p.EffectiveMaxMP()
		p.Dirty = true
	})
	return true
}

func adminSpawn(c *Ctx, args []string) bool {
	if len(args) != 1 {
		reply(c, "usage: /spawn <enemyId>")
		return true
	}
	enemyID := args[0]
	if c.Deps.Tables.Enemies.Get(enemyID) == nil {
		reply(c, "unknown enemy: "+enemyID)
		return true
	}
	onPlayer(c, func(i *game.Instance, p *game.Player) {
		i.SpawnEnemy(enemyID, p.Pos.Add(tilemap.Vec2{X: 2}))
	})
	return true
}

func adminTeleport(c *Ctx, args []string) bool {
	if len(args) != 2 {
		reply(c, "usage: /tp <x> <y>")
		return true
	}
	x, errX := strconv.ParseFloat(args[0], 64)
	y, errY := strconv.ParseFloat(args[1], 64)
	if errX != nil || errY != nil {
		reply(c, "usage: /tp <x> <y>")
		return true
	}
	onPlayer(c, func(i *game.Instance, p *game.Player) {
		dest := tilemap.Vec2{X: x, Y: y}
		if i.Map.CanOccupy(dest, p.Radius) {
			p.Pos = dest
		}
	})
	return true
}

// onPlayer enqueues fn against the session's resident player.
func onPlayer(c *Ctx, fn func(*game.Instance, *game.Player)) {
	inst := c.instance()
	if inst == nil {
		return
	}
	playerID := c.Sess.PlayerID()
	inst.Enqueue(func(i *game.Instance) {
		if p, ok := i.Players[playerID]; ok {
			fn(i, p)
		}
	})
}
