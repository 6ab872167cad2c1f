package handler

import "github.com/realmgo/server/internal/net"

// RegisterAll binds every message type to its handler with the session
// states it is legal in.
func RegisterAll(r *Registry) {
	// Pre-auth.
	r.Register("auth", HandleAuth, net.StateAnon)
	r.Register("authToken", HandleAuthToken, net.StateAnon)
	r.Register("register", HandleRegister, net.StateAnon)

	// Any authenticated state.
	r.Register("logout", HandleLogout, net.StateAuthed, net.StateInGame)
	r.Register("ping", HandlePing, net.StateAnon, net.StateAuthed, net.StateInGame)

	// Character screen.
	r.Register("createCharacter", HandleCreateCharacter, net.StateAuthed)
	r.Register("selectCharacter", HandleSelectCharacter, net.StateAuthed)

	// In game.
	r.Register("input", HandleInput, net.StateInGame)
	r.Register("shoot", HandleShoot, net.StateInGame)
	r.Register("useAbility", HandleUseAbility, net.StateInGame)
	r.Register("pickupLoot", HandlePickupLoot, net.StateInGame)
	r.Register("enterPortal", HandleEnterPortal, net.StateInGame)
	r.Register("returnToNexus", HandleReturnToNexus, net.StateInGame)
	r.Register("chat", HandleChat, net.StateInGame)
	r.Register("swapItems", HandleSwapItems, net.StateInGame)
	r.Register("dropItem", HandleDropItem, net.StateInGame)
	r.Register("interactVaultChest", HandleInteractVaultChest, net.StateInGame)
	r.Register("vaultTransfer", HandleVaultTransfer, net.StateInGame)
	r.Register("closeVault", HandleCloseVault, net.StateInGame)
}
