package handler

import (
	"go.uber.org/zap"

	"github.com/realmgo/server/internal/protocol"
)

func sendCharacterList(c *Ctx) {
	rows, err := c.Deps.Characters.GetAliveByAccount(c.Sess.AccountID())
	if err != nil {
		c.Deps.Log.Error("list characters", zap.Error(err))
		return
	}
	list := protocol.CharacterList{}
	for _, row := range rows {
		list.Characters = append(list.Characters, protocol.CharacterSummary{
			ID: row.ID, Name: row.Name, ClassID: row.ClassID, Level: row.Level,
		})
	}
	c.Sess.Send("characterList", list)
}

// HandleCreateCharacter processes createCharacter{classId}. The
// character is named after the account.
func HandleCreateCharacter(c *Ctx, msg *protocol.Message) {
	var d protocol.CreateCharacterData
	if err := msg.Bind(&d); err != nil {
		return
	}
	class := c.Deps.Tables.Classes.Get(d.ClassID)
	if class == nil {
		return
	}
	if _, err := c.Deps.Characters.Create(c.Sess.AccountID(), c.Sess.Username(), class); err != nil {
		c.Deps.Log.Debug("create character refused",
			zap.Int64("account", c.Sess.AccountID()),
			zap.String("class", d.ClassID),
			zap.Error(err))
		c.Sess.Send("error", protocol.ErrorMessage{Message: "Cannot create character"})
		return
	}
	sendCharacterList(c)
}

// HandleSelectCharacter processes selectCharacter{characterId}: loads
// the record and enters the world.
func HandleSelectCharacter(c *Ctx, msg *protocol.Message) {
	var d protocol.SelectCharacterData
	if err := msg.Bind(&d); err != nil {
		return
	}
	row, err := c.Deps.Characters.Get(d.CharacterID)
	if err != nil {
		c.Deps.Log.Error("load character", zap.Error(err))
		return
	}
	// Selecting someone else's or a dead character is dropped silently.
	if row == nil || row.AccountID != c.Sess.AccountID() || !row.Alive {
		return
	}
	if err := c.Deps.World.EnterWorld(c.Sess, row); err != nil {
		c.Deps.Log.Error("enter world", zap.Int64("character", row.ID), zap.Error(err))
	}
}
