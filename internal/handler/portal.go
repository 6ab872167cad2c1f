package handler

import (
	"github.com/realmgo/server/internal/protocol"
)

// HandleEnterPortal processes enterPortal{portalId}. The orchestrator
// resolves the target (including the vault sentinel) and performs the
// transfer at the next tick boundary.
func HandleEnterPortal(c *Ctx, msg *protocol.Message) {
	var d protocol.EnterPortalData
	if err := msg.Bind(&d); err != nil {
		return
	}
	if d.PortalID == "" {
		return
	}
	c.Deps.World.EnterPortal(c.Sess, d.PortalID)
}

// HandleReturnToNexus processes returnToNexus.
func HandleReturnToNexus(c *Ctx, _ *protocol.Message) {
	c.Deps.World.ReturnToNexus(c.Sess)
}
