package persist

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the SQLite handle. database/sql serializes access; the store
// is its own lock boundary.
type DB struct {
	conn *sql.DB
	log  *zap.Logger
}

// Open opens (or creates) the SQLite file at path and applies pragmas
// suited to a single-writer game server.
func Open(path string, log *zap.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; keep the pool at a single connection so
	// transactions never contend with themselves.
	conn.SetMaxOpenConns(1)
	return &DB{conn: conn, log: log}, nil
}

// Migrate applies all embedded migrations.
func (db *DB) Migrate() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db.conn, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	db.log.Info("database migrated")
	return nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.conn.Close()
}
