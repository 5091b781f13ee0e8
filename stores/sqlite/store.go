package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"artisan-canvas/core"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store keeps values in a single key-value table.
type Store struct {
	db *sql.DB
}

// NewStore opens the database and creates the table if needed.
func NewStore(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// database/sql would otherwise hand each connection its own ":memory:" db.
	db.SetMaxOpenConns(1)

	stmt := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := db.Exec(stmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	log := logrus.WithField("key", key)

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("Key not found")
			return nil, core.ErrNotFound
		}
		log.WithError(err).Error("Failed to read value")
		return nil, err
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "data_length": len(value)})

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		log.WithError(err).Error("Failed to store value")
		return err
	}
	log.Debug("Value stored")
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		logrus.WithField("key", key).WithError(err).Error("Failed to delete value")
		return err
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
