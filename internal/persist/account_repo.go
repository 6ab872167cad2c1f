package persist

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrAccountExists is returned when registering a taken username.
var ErrAccountExists = errors.New("account already exists")

// Dummy hash compared against when the username does not exist, so the
// failure path costs the same as a real bcrypt check.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AccountRow mirrors one accounts row.
type AccountRow struct {
	ID       int64
	Username string
}

// AccountRepo owns account storage and credential checks.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates an AccountRepo.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create registers a new account with a bcrypt-hashed password.
func (r *AccountRepo) Create(username, password string) (*AccountRow, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	res, err := r.db.conn.Exec(
		`INSERT INTO accounts (username, password_hash) VALUES (?, ?)`,
		username, string(hash),
	)
	if err != nil {
		// UNIQUE violation means the name is taken.
		var exists int
		if qErr := r.db.conn.QueryRow(
			`SELECT COUNT(*) FROM accounts WHERE username = ?`, username,
		).Scan(&exists); qErr == nil && exists > 0 {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("account id: %w", err)
	}
	return &AccountRow{ID: id, Username: username}, nil
}

// Get returns the account by id, or nil when absent.
func (r *AccountRepo) Get(id int64) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.conn.QueryRow(
		`SELECT id, username FROM accounts WHERE id = ?`, id,
	).Scan(&row.ID, &row.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	return row, nil
}

// ValidateLogin checks credentials. Unknown usernames still run a
// bcrypt compare against a dummy hash so response time does not leak
// account existence. Returns nil on failure, never an error the caller
// should surface to the client.
func (r *AccountRepo) ValidateLogin(username, password string) (*AccountRow, error) {
	var (
		id   int64
		name string
		hash string
	)
	err := r.db.conn.QueryRow(
		`SELECT id, username, password_hash FROM accounts WHERE username = ?`, username,
	).Scan(&id, &name, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, nil
	}
	return &AccountRow{ID: id, Username: name}, nil
}
