package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"
)

const boltBucket = "identifier_mappings"

// BoltBackend stores each kind's map as one JSON value in a bolt bucket.
type BoltBackend struct {
	db *bolt.DB
}

// NewBoltBackend opens (or creates) the bolt file at path.
func NewBoltBackend(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating mapping directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening mapping store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating mapping bucket: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

// Load returns the stored map for kind, or an empty map if none was saved.
func (b *BoltBackend) Load(_ context.Context, kind Kind) (map[string]string, error) {
	entries := make(map[string]string)

	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(boltBucket)).Get([]byte(kind))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &entries)
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s mappings: %w", kind, err)
	}

	return entries, nil
}

// Save serialises entries and replaces the stored value for kind.
func (b *BoltBackend) Save(_ context.Context, kind Kind, entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding %s mappings: %w", kind, err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(kind), data)
	})
}

// Close releases the file lock.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
