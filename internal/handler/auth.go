package handler

import (
	"strings"

	"go.uber.org/zap"

	"github.com/realmgo/server/internal/protocol"
)

// One generic message for every credential failure so responses never
// reveal whether a username exists.
const badCredentials = "Invalid username or password"

// HandleAuth processes auth{user,pass}.
func HandleAuth(c *Ctx, msg *protocol.Message) {
	if !c.Sess.AllowAuth() {
		c.Sess.Send("error", protocol.ErrorMessage{Message: "rate-limited"})
		return
	}
	var d protocol.AuthData
	if err := msg.Bind(&d); err != nil {
		return
	}
	account, err := c.Deps.Accounts.ValidateLogin(strings.TrimSpace(d.User), d.Pass)
	if err != nil {
		c.Deps.Log.Error("validate login", zap.Error(err))
		c.Sess.Send("authResult", protocol.AuthResult{Success: false, Message: badCredentials})
		return
	}
	if account == nil {
		c.Sess.Send("authResult", protocol.AuthResult{Success: false, Message: badCredentials})
		return
	}
	token, err := c.Deps.Sessions.Create(account.ID)
	if err != nil {
		c.Deps.Log.Error("create session", zap.Error(err))
		c.Sess.Send("authResult", protocol.AuthResult{Success: false, Message: badCredentials})
		return
	}
	c.Sess.SetAuthenticated(account.ID, account.Username, token)
	c.Sess.Send("authResult", protocol.AuthResult{Success: true, Token: token})
	sendCharacterList(c)
}

// HandleAuthToken processes authToken{token}.
func HandleAuthToken(c *Ctx, msg *protocol.Message) {
	if !c.Sess.AllowAuth() {
		c.Sess.Send("error", protocol.ErrorMessage{Message: "rate-limited"})
		return
	}
	var d protocol.TokenData
	if err := msg.Bind(&d); err != nil {
		return
	}
	accountID, err := c.Deps.Sessions.Validate(d.Token)
	if err != nil {
		c.Deps.Log.Error("validate token", zap.Error(err))
	}
	if accountID == 0 {
		c.Sess.Send("authResult", protocol.AuthResult{Success: false, Message: badCredentials})
		return
	}
	account, err := c.Deps.Accounts.Get(accountID)
	if err != nil || account == nil {
		c.Sess.Send("authResult", protocol.AuthResult{Success: false, Message: badCredentials})
		return
	}
	c.Sess.SetAuthenticated(account.ID, account.Username, d.Token)
	c.Sess.Send("authResult", protocol.AuthResult{Success: true, Token: d.Token})
	sendCharacterList(c)
}

// HandleRegister processes register{user,pass}.
func HandleRegister(c *Ctx, msg *protocol.Message) {
	if !c.Sess.AllowAuth() {
		c.Sess.Send("error", protocol.ErrorMessage{Message: "rate-limited"})
		return
	}
	var d protocol.AuthData
	if err := msg.Bind(&d); err != nil {
		return
	}
	user := strings.TrimSpace(d.User)
	if len(user) < 3 || len(user) > 24 || len(d.Pass) < 6 {
		c.Sess.Send("registerResult", protocol.RegisterResult{
			Success: false, Message: "Username must be 3-24 chars, password at least 6",
		})
		return
	}
	if _, err := c.Deps.Accounts.Create(user, d.Pass); err != nil {
		// Same generic message whether the name is taken or the
		// insert failed, to avoid account enumeration.
		c.Sess.Send("registerResult", protocol.RegisterResult{Success: false, Message: badCredentials})
		return
	}
	c.Sess.Send("registerResult", protocol.RegisterResult{Success: true})
}

// HandleLogout processes logout{token}: revokes the token and drops the
// session back to anonymous.
func HandleLogout(c *Ctx, msg *protocol.Message) {
	var d protocol.TokenData
	if err := msg.Bind(&d); err != nil {
		return
	}
	token := d.Token
	if token == "" {
		token = c.Sess.Token()
	}
	if token != "" {
		if err := c.Deps.Sessions.Revoke(token); err != nil {
			c.Deps.Log.Error("revoke session", zap.Error(err))
		}
	}
	c.Deps.World.HandleDisconnect(c.Sess)
	c.Sess.Close()
}
