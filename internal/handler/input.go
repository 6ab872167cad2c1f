package handler

import (
	"math"
	"time"

	"github.com/realmgo/server/internal/game"
	"github.com/realmgo/server/internal/protocol"
)

// HandleInput processes input{moveDirection,aimAngle,shooting}. The
// move vector is clamped to unit length with a 10% slack for client
// float error; anything wilder is zeroed. The write lands directly on
// the player's atomic input slot, no tick queue needed.
func HandleInput(c *Ctx, msg *protocol.Message) {
	var d protocol.InputData
	if err := msg.Bind(&d); err != nil {
		return
	}
	inst := c.instance()
	if inst == nil {
		return
	}
	mx, my := d.MoveDirection.X, d.MoveDirection.Y
	if !validFinite(mx) || !validFinite(my) || !validFinite(d.AimAngle) {
		return
	}
	if l := math.Hypot(mx, my); l > 1.1 {
		mx, my = 0, 0
	} else if l > 1 {
		mx, my = mx/l, my/l
	}
	playerID := c.Sess.PlayerID()
	inst.Enqueue(func(i *game.Instance) {
		p, ok := i.Players[playerID]
		if !ok {
			return
		}
		p.SetInput(game.Input{MoveX: mx, MoveY: my, AimAngle: d.AimAngle, Shooting: d.Shooting})
	})
}

// HandleShoot processes shoot{aimAngle}: a one-off shot outside the
// held-input path, still bound by the weapon cooldown.
func HandleShoot(c *Ctx, msg *protocol.Message) {
	var d protocol.ShootData
	if err := msg.Bind(&d); err != nil {
		return
	}
	if !validFinite(d.AimAngle) {
		return
	}
	inst := c.instance()
	if inst == nil {
		return
	}
	playerID := c.Sess.PlayerID()
	inst.Enqueue(func(i *game.Instance) {
		if p, ok := i.Players[playerID]; ok {
			i.PlayerShoot(p, d.AimAngle, time.Now())
		}
	})
}

// HandleUseAbility processes useAbility.
func HandleUseAbility(c *Ctx, msg *protocol.Message) {
	inst := c.instance()
	if inst == nil {
		return
	}
	playerID := c.Sess.PlayerID()
	inst.Enqueue(func(i *game.Instance) {
		if p, ok := i.Players[playerID]; ok {
			i.ExecuteAbility(p, time.Now())
		}
	})
}

// HandlePing answers the keep-alive probe immediately.
func HandlePing(c *Ctx, _ *protocol.Message) {
	c.Sess.Send("pong", protocol.Pong{Time: time.Now().UnixMilli()})
}

func validFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
