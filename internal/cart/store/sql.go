package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/printforge/storefront/internal/models"
)

// SQLStore persists the cart in a single-row key-value table via database/sql.
// The production wiring opens a SQLite file in the state directory; tests
// drive it with sqlmock.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle and creates the backing table
// if it does not exist.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// OpenSQLite opens (or creates) the SQLite database at path and returns a
// store backed by it. The parent directory is created if missing, so a
// fresh state directory works the same as with the file store.
func OpenSQLite(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(db)
}

// Load reads the persisted cart row. A missing row or an unparsable value
// yields an empty cart and a nil error.
func (s *SQLStore) Load() ([]models.CartLine, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, CartKey).Scan(&value)
	if err == sql.ErrNoRows {
		return []models.CartLine{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeLines([]byte(value)), nil
}

// Save upserts the full serialized cart.
func (s *SQLStore) Save(lines []models.CartLine) error {
	if lines == nil {
		lines = []models.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		CartKey, string(data),
	)
	return err
}

// Clear deletes the cart row.
func (s *SQLStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, CartKey)
	return err
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
