package mapping

import (
	"context"
	"sync"
)

// MemoryBackend keeps mappings in process memory. Used for tests and for
// deployments that accept re-resolving ids by natural key after a restart.
type MemoryBackend struct {
	mu    sync.RWMutex
	kinds map[Kind]map[string]string
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{kinds: make(map[Kind]map[string]string)}
}

// Load returns a copy of the map for kind.
func (m *MemoryBackend) Load(_ context.Context, kind Kind) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.kinds[kind]))
	for k, v := range m.kinds[kind] {
		out[k] = v
	}
	return out, nil
}

// Save replaces the map for kind.
func (m *MemoryBackend) Save(_ context.Context, kind Kind, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	m.kinds[kind] = copied
	return nil
}

// Close is a no-op.
func (m *MemoryBackend) Close() error {
	return nil
}
