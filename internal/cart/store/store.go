// Package store provides durable storage for the serialized cart. The cart
// occupies a single fixed key; the value is a JSON array of cart lines.
// Malformed or missing values are treated as an empty cart and never surface
// as errors to the reader — the cart fails soft on decode.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/printforge/storefront/internal/models"
)

// CartKey is the fixed entry name the serialized cart is stored under.
const CartKey = "cart"

// Store is the durable key-value backing for the cart.
type Store interface {
	// Load returns the persisted cart. An absent or unparsable value
	// yields an empty cart and a nil error.
	Load() ([]models.CartLine, error)
	// Save writes the full serialized cart, replacing any previous value.
	Save(lines []models.CartLine) error
	// Clear removes the persisted entry.
	Clear() error
}

// FileStore persists the cart as a JSON file under a state directory,
// one file per key.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, CartKey+".json")
}

// Load reads the persisted cart. Decode failures degrade to an empty cart.
func (s *FileStore) Load() ([]models.CartLine, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return []models.CartLine{}, nil
		}
		return nil, err
	}
	return decodeLines(data), nil
}

// Save writes the full cart to disk.
func (s *FileStore) Save(lines []models.CartLine) error {
	if lines == nil {
		lines = []models.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0o600)
}

// Clear removes the persisted cart file.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// decodeLines parses a persisted cart value. Anything that is not a JSON
// array of lines is treated as absent.
func decodeLines(data []byte) []models.CartLine {
	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil || lines == nil {
		return []models.CartLine{}
	}
	return lines
}
