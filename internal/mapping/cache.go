// Package mapping provides the identifier mapping cache between local entity
// ids and their channel-manager counterparts.
//
// Entries are advisory. Callers verify a cached remote id against the remote
// system before trusting it, so a lost or stale entry only costs a lookup.
package mapping

import (
	"context"
	"log"
	"sync"

	"github.com/channel-sync/backend/internal/metrics"
)

// Kind identifies which logical table an entry lives in.
type Kind string

const (
	KindProperty Kind = "property"
	KindRatePlan Kind = "rate_plan"
	KindTaxSet   Kind = "tax_set"
	KindTax      Kind = "tax"

	// KindWebhook is keyed by the remote property id, not a local id.
	KindWebhook Kind = "webhook"
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{KindProperty, KindRatePlan, KindTaxSet, KindTax, KindWebhook}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Backend persists one flat map per kind.
type Backend interface {
	Load(ctx context.Context, kind Kind) (map[string]string, error)
	Save(ctx context.Context, kind Kind, entries map[string]string) error
	Close() error
}

// Cache is the process-wide identifier mapping cache.
// Backend failures are logged and treated as a miss; they never fail the caller.
type Cache struct {
	backend Backend

	// Serialises read-modify-write of a kind's map. Last write wins across processes.
	mu sync.Mutex
}

// NewCache creates a cache over the given backend. A nil backend behaves as an
// always-empty store.
func NewCache(backend Backend) *Cache {
	return &Cache{backend: backend}
}

// Get returns the remote id mapped to localID.
func (c *Cache) Get(ctx context.Context, kind Kind, localID string) (string, bool) {
	if c == nil || c.backend == nil || localID == "" {
		return "", false
	}

	entries, err := c.backend.Load(ctx, kind)
	if err != nil {
		metrics.RecordMappingStoreError("load")
		log.Printf("Mapping store unavailable, treating %s/%s as unmapped: %v", kind, localID, err)
		return "", false
	}

	remoteID, ok := entries[localID]
	if !ok || remoteID == "" {
		return "", false
	}
	return remoteID, true
}

// Set stores remoteID for localID, replacing any previous entry.
func (c *Cache) Set(ctx context.Context, kind Kind, localID, remoteID string) {
	if localID == "" || remoteID == "" {
		return
	}
	c.mutate(ctx, kind, func(entries map[string]string) bool {
		if entries[localID] == remoteID {
			return false
		}
		entries[localID] = remoteID
		return true
	})
}

// Clear removes the entry for localID.
func (c *Cache) Clear(ctx context.Context, kind Kind, localID string) {
	c.mutate(ctx, kind, func(entries map[string]string) bool {
		if _, ok := entries[localID]; !ok {
			return false
		}
		delete(entries, localID)
		return true
	})
}

// All returns a copy of the entries for kind. Failures yield an empty map.
func (c *Cache) All(ctx context.Context, kind Kind) map[string]string {
	out := make(map[string]string)
	if c == nil || c.backend == nil {
		return out
	}
	entries, err := c.backend.Load(ctx, kind)
	if err != nil {
		metrics.RecordMappingStoreError("load")
		log.Printf("Mapping store unavailable while listing %s: %v", kind, err)
		return out
	}
	for k, v := range entries {
		out[k] = v
	}
	return out
}

func (c *Cache) mutate(ctx context.Context, kind Kind, fn func(entries map[string]string) bool) {
	if c == nil || c.backend == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.backend.Load(ctx, kind)
	if err != nil {
		metrics.RecordMappingStoreError("load")
		log.Printf("Mapping store unavailable, leaving %s mappings untouched: %v", kind, err)
		return
	}
	if entries == nil {
		entries = make(map[string]string)
	}

	if !fn(entries) {
		return
	}

	if err := c.backend.Save(ctx, kind, entries); err != nil {
		metrics.RecordMappingStoreError("save")
		log.Printf("Failed to persist %s mappings: %v", kind, err)
	}
}
