package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/realmgo/server/internal/config"
	"github.com/realmgo/server/internal/data"
)

// ErrClassLimit is returned when the account already fields the maximum
// number of alive characters of a class.
var ErrClassLimit = errors.New("class character limit reached")

// CharacterRow mirrors one characters row.
type CharacterRow struct {
	ID        int64
	AccountID int64
	Name      string
	ClassID   string
	Level     int
	Exp       int
	HP        int
	MP        int
	Stats     data.Stats
	Equipment [config.EquipSlots]string
	Inventory [config.InventorySize]string
	Alive     bool

	DamageDealt     int64
	DamageTaken     int64
	ShotsFired      int64
	AbilitiesUsed   int64
	EnemiesKilled   int64
	DungeonsCleared int64
	TimePlayedSec   int64
}

// CharacterRepo owns durable character records.
type CharacterRepo struct {
	db *DB
}

// NewCharacterRepo creates a CharacterRepo.
func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// Create inserts a level-1 character. At most two alive characters per
// class per account.
func (r *CharacterRepo) Create(accountID int64, name string, class *data.ClassDef) (*CharacterRow, error) {
	var alive int
	if err := r.db.conn.QueryRow(
		`SELECT COUNT(*) FROM characters WHERE account_id = ? AND class_id = ? AND alive = 1`,
		accountID, class.ID,
	).Scan(&alive); err != nil {
		return nil, fmt.Errorf("count alive characters: %w", err)
	}
	if alive >= config.MaxAlivePerClass {
		return nil, ErrClassLimit
	}

	row := &CharacterRow{
		AccountID: accountID,
		Name:      name,
		ClassID:   class.ID,
		Level:     1,
		HP:        class.BaseHP,
		MP:        class.BaseMP,
		Stats:     class.BaseStats,
		Alive:     true,
	}
	for i, itemID := range class.StartingEquipment {
		if i < config.EquipSlots {
			row.Equipment[i] = itemID
		}
	}

	equipJSON, invJSON, err := marshalSlots(row.Equipment, row.Inventory)
	if err != nil {
		return nil, err
	}
	res, err := r.db.conn.Exec(
		`INSERT INTO characters
		   (account_id, name, class_id, level, exp, hp, mp,
		    attack, defense, speed, dexterity, vitality, wisdom,
		    equipment, inventory, alive)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		row.AccountID, row.Name, row.ClassID, row.Level, row.Exp, row.HP, row.MP,
		row.Stats.Attack, row.Stats.Defense, row.Stats.Speed,
		row.Stats.Dexterity, row.Stats.Vitality, row.Stats.Wisdom,
		equipJSON, invJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("insert character: %w", err)
	}
	row.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("character id: %w", err)
	}
	return row, nil
}

const characterColumns = `id, account_id, name, class_id, level, exp, hp, mp,
	attack, defense, speed, dexterity, vitality, wisdom,
	equipment, inventory, alive,
	damage_dealt, damage_taken, shots_fired, abilities_used,
	enemies_killed, dungeons_cleared, time_played_sec`

func scanCharacter(scan func(...any) error) (*CharacterRow, error) {
	row := &CharacterRow{}
	var equipJSON, invJSON string
	err := scan(
		&row.ID, &row.AccountID, &row.Name, &row.ClassID, &row.Level, &row.Exp, &row.HP, &row.MP,
		&row.Stats.Attack, &row.Stats.Defense, &row.Stats.Speed,
		&row.Stats.Dexterity, &row.Stats.Vitality, &row.Stats.Wisdom,
		&equipJSON, &invJSON, &row.Alive,
		&row.DamageDealt, &row.DamageTaken, &row.ShotsFired, &row.AbilitiesUsed,
		&row.EnemiesKilled, &row.DungeonsCleared, &row.TimePlayedSec,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalSlots(equipJSON, invJSON, &row.Equipment, &row.Inventory); err != nil {
		return nil, err
	}
	return row, nil
}

// Get returns the character by id, or nil when absent.
func (r *CharacterRepo) Get(id int64) (*CharacterRow, error) {
	row, err := scanCharacter(r.db.conn.QueryRow(
		`SELECT `+characterColumns+` FROM characters WHERE id = ?`, id,
	).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select character: %w", err)
	}
	return row, nil
}

// GetAliveByAccount lists the account's living characters.
func (r *CharacterRepo) GetAliveByAccount(accountID int64) ([]*CharacterRow, error) {
	rows, err := r.db.conn.Query(
		`SELECT `+characterColumns+` FROM characters WHERE account_id = ? AND alive = 1 ORDER BY id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("select characters: %w", err)
	}
	defer rows.Close()
	var out []*CharacterRow
	for rows.Next() {
		row, err := scanCharacter(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Save writes the mutable character state back.
func (r *CharacterRepo) Save(row *CharacterRow) error {
	equipJSON, invJSON, err := marshalSlots(row.Equipment, row.Inventory)
	if err != nil {
		return err
	}
	_, err = r.db.conn.Exec(
		`UPDATE characters SET
		   level = ?, exp = ?, hp = ?, mp = ?,
		   attack = ?, defense = ?, speed = ?, dexterity = ?, vitality = ?, wisdom = ?,
		   equipment = ?, inventory = ?,
		   damage_dealt = ?, damage_taken = ?, shots_fired = ?, abilities_used = ?,
		   enemies_killed = ?, dungeons_cleared = ?, time_played_sec = ?
		 WHERE id = ?`,
		row.Level, row.Exp, row.HP, row.MP,
		row.Stats.Attack, row.Stats.Defense, row.Stats.Speed,
		row.Stats.Dexterity, row.Stats.Vitality, row.Stats.Wisdom,
		equipJSON, invJSON,
		row.DamageDealt, row.DamageTaken, row.ShotsFired, row.AbilitiesUsed,
		row.EnemiesKilled, row.DungeonsCleared, row.TimePlayedSec,
		row.ID,
	)
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	return nil
}

// Kill marks the character dead. Permadeath: the row stays for records
// but never loads as playable again.
func (r *CharacterRepo) Kill(id int64) error {
	if _, err := r.db.conn.Exec(`UPDATE characters SET alive = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("kill character: %w", err)
	}
	return nil
}

func marshalSlots(equip [config.EquipSlots]string, inv [config.InventorySize]string) (string, string, error) {
	e, err := json.Marshal(equip[:])
	if err != nil {
		return "", "", fmt.Errorf("marshal equipment: %w", err)
	}
	i, err := json.Marshal(inv[:])
	if err != nil {
		return "", "", fmt.Errorf("marshal inventory: %w", err)
	}
	return string(e), string(i), nil
}

func unmarshalSlots(equipJSON, invJSON string, equip *[config.EquipSlots]string, inv *[config.InventorySize]string) error {
	var e, i []string
	if err := json.Unmarshal([]byte(equipJSON), &e); err != nil {
		return fmt.Errorf("unmarshal equipment: %w", err)
	}
	if err := json.Unmarshal([]byte(invJSON), &i); err != nil {
		return fmt.Errorf("unmarshal inventory: %w", err)
	}
	copy(equip[:], e)
	copy(inv[:], i)
	return nil
}
