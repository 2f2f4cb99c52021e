package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/database/migrations"
)

// DB is the assistant's only persistent state: OAuth tokens captured by the
// consent callback
type DB struct {
	*sql.DB
	sealer *sealer
}

// New opens the sqlite database at dbPath and runs pending migrations.
// encryptionKey protects stored OAuth tokens; without it token writes fail
// with ErrNoEncryptionKey.
func New(dbPath, encryptionKey string, logger *zap.Logger) (*DB, error) {
	s, err := newSealer(encryptionKey)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to :memory: is a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.Run(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{DB: db, sealer: s}, nil
}
