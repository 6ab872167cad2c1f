package protocol

// Inbound payloads. Dual tags: clients may send msgpack or JSON.

type AuthData struct {
	User string `msgpack:"user" json:"user"`
	Pass string `msgpack:"pass" json:"pass"`
}

type TokenData struct {
	Token string `msgpack:"token" json:"token"`
}

type CreateCharacterData struct {
	ClassID string `msgpack:"classId" json:"classId"`
}

type SelectCharacterData struct {
	CharacterID int64 `msgpack:"characterId" json:"characterId"`
}

type MoveDirection struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
}

type InputData struct {
	MoveDirection MoveDirection `msgpack:"moveDirection" json:"moveDirection"`
	AimAngle      float64       `msgpack:"aimAngle" json:"aimAngle"`
	Shooting      bool          `msgpack:"shooting" json:"shooting"`
}

type ShootData struct {
	AimAngle float64 `msgpack:"aimAngle" json:"aimAngle"`
}

type PickupLootData struct {
	LootID string `msgpack:"lootId" json:"lootId"`
}

type EnterPortalData struct {
	PortalID string `msgpack:"portalId" json:"portalId"`
}

type ChatData struct {
	Message string `msgpack:"message" json:"message"`
}

type SwapItemsData struct {
	From int `msgpack:"from" json:"from"`
	To   int `msgpack:"to" json:"to"`
}

type DropItemData struct {
	Slot int `msgpack:"slot" json:"slot"`
}

type VaultTransferData struct {
	FromVault bool `msgpack:"fromVault" json:"fromVault"`
	FromSlot  int  `msgpack:"fromSlot" json:"fromSlot"`
	ToSlot    int  `msgpack:"toSlot" json:"toSlot"`
}

// Outbound payloads (msgpack only).

type AuthResult struct {
	Success bool   `msgpack:"success"`
	Token   string `msgpack:"token,omitempty"`
	Message string `msgpack:"message,omitempty"`
}

type RegisterResult struct {
	Success bool   `msgpack:"success"`
	Message string `msgpack:"message,omitempty"`
}

type CharacterSummary struct {
	ID      int64  `msgpack:"id"`
	Name    string `msgpack:"name"`
	ClassID string `msgpack:"classId"`
	Level   int    `msgpack:"level"`
}

type CharacterList struct {
	Characters []CharacterSummary `msgpack:"characters"`
}

type InstanceChange struct {
	InstanceID string  `msgpack:"instanceId"`
	Kind       string  `msgpack:"kind"`
	Width      int     `msgpack:"width"`
	Height     int     `msgpack:"height"`
	Tiles      []uint8 `msgpack:"tiles"`
	SpawnX     float64 `msgpack:"spawnX"`
	SpawnY     float64 `msgpack:"spawnY"`
	PlayerID   string  `msgpack:"playerId"`
}

type ChatBroadcast struct {
	From    string `msgpack:"from"`
	Message string `msgpack:"message"`
}

type ErrorMessage struct {
	Message string `msgpack:"message"`
}

type VaultOpen struct {
	Slots []string `msgpack:"slots"`
}

type VaultUpdate struct {
	Slots     []string `msgpack:"slots"`
	Inventory []string `msgpack:"inventory"`
}

type Pong struct {
	Time int64 `msgpack:"time"`
}
