package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/realmgo/server/internal/config"
)

// VaultRepo owns the per-account vault slot array.
type VaultRepo struct {
	db *DB
}

// NewVaultRepo creates a VaultRepo.
func NewVaultRepo(db *DB) *VaultRepo {
	return &VaultRepo{db: db}
}

// Get returns the account's vault slots. Accounts with no vault row get
// an empty array.
func (r *VaultRepo) Get(accountID int64) ([config.VaultSize]string, error) {
	var slots [config.VaultSize]string
	var itemsJSON string
	err := r.db.conn.QueryRow(
		`SELECT items FROM vaults WHERE account_id = ?`, accountID,
	).Scan(&itemsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return slots, nil
	}
	if err != nil {
		return slots, fmt.Errorf("select vault: %w", err)
	}
	var items []string
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return slots, fmt.Errorf("unmarshal vault: %w", err)
	}
	copy(slots[:], items)
	return slots, nil
}

// Save upserts the account's vault slots.
func (r *VaultRepo) Save(accountID int64, slots [config.VaultSize]string) error {
	itemsJSON, err := json.Marshal(slots[:])
	if err != nil {
		return fmt.Errorf("marshal vault: %w", err)
	}
	if _, err := r.db.conn.Exec(
		`INSERT INTO vaults (account_id, items) VALUES (?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET items = excluded.items`,
		accountID, string(itemsJSON),
	); err != nil {
		return fmt.Errorf("upsert vault: %w", err)
	}
	return nil
}
