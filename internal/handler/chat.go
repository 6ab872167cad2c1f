package handler

import (
	"html"
	"strings"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/game"
	"github.com/realmgo/server/internal/protocol"
)

// HandleChat processes chat{message}. Slash lines from allowlisted
// admins route to the command parser; everyone else's slashes are just
// text. Messages are HTML-escaped before broadcast.
func HandleChat(c *Ctx, msg *protocol.Message) {
	var d protocol.ChatData
	if err := msg.Bind(&d); err != nil {
		return
	}
	text := strings.TrimSpace(d.Message)
	if text == "" || len(text) > config.ChatMaxLen {
		return
	}

	if strings.HasPrefix(text, "/") && c.Deps.Admins.IsAdmin(c.Sess.Username()) {
		if runAdminCommand(c, text) {
			return
		}
		// Unknown admin commands fall through as chat.
	}

	inst := c.instance()
	if inst == nil {
		return
	}
	out := protocol.ChatBroadcast{
		From:    c.Sess.Username(),
		Message: html.EscapeString(text),
	}
	inst.Enqueue(func(i *game.Instance) {
		i.Broadcast("chat", out)
	})
}
