package persist

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/realmgo/server/internal/config"
)

// SessionRepo owns persistent login tokens.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a SessionRepo.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create issues a fresh 32-byte hex token for the account. Expired
// sessions are swept on every create.
func (r *SessionRepo) Create(accountID int64) (string, error) {
	if _, err := r.db.conn.Exec(
		`DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("sweep sessions: %w", err)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session token entropy: %w", err)
	}
	token := hex.EncodeToString(buf)
	expires := time.Now().UTC().Add(config.SessionTokenLifetime)
	if _, err := r.db.conn.Exec(
		`INSERT INTO sessions (token, account_id, expires_at) VALUES (?, ?, ?)`,
		token, accountID, expires,
	); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return token, nil
}

// Validate resolves a token to its account id, or 0 when the token is
// unknown or expired.
func (r *SessionRepo) Validate(token string) (int64, error) {
	var accountID int64
	err := r.db.conn.QueryRow(
		`SELECT account_id FROM sessions WHERE token = ? AND expires_at >= ?`,
		token, time.Now().UTC(),
	).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select session: %w", err)
	}
	return accountID, nil
}

// Revoke deletes a token. Revoking an unknown token is a no-op.
func (r *SessionRepo) Revoke(token string) error {
	if _, err := r.db.conn.Exec(`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
