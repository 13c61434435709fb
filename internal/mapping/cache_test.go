package mapping

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	loadErr error
	saveErr error
	saves   int
}

func (f *failingBackend) Load(context.Context, Kind) (map[string]string, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return map[string]string{}, nil
}

func (f *failingBackend) Save(context.Context, Kind, map[string]string) error {
	f.saves++
	return f.saveErr
}

func (f *failingBackend) Close() error { return nil }

func TestCacheSetGetClear(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryBackend())

	_, ok := cache.Get(ctx, KindProperty, "p1")
	assert.False(t, ok)

	cache.Set(ctx, KindProperty, "p1", "remote-1")
	got, ok := cache.Get(ctx, KindProperty, "p1")
	require.True(t, ok)
	assert.Equal(t, "remote-1", got)

	// Kinds are separate tables.
	_, ok = cache.Get(ctx, KindRatePlan, "p1")
	assert.False(t, ok)

	cache.Set(ctx, KindProperty, "p1", "remote-2")
	got, _ = cache.Get(ctx, KindProperty, "p1")
	assert.Equal(t, "remote-2", got, "last write wins")

	cache.Clear(ctx, KindProperty, "p1")
	_, ok = cache.Get(ctx, KindProperty, "p1")
	assert.False(t, ok)
}

func TestCacheIgnoresEmptyIDs(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	cache := NewCache(backend)

	cache.Set(ctx, KindTaxSet, "", "remote")
	cache.Set(ctx, KindTaxSet, "local", "")

	entries, err := backend.Load(ctx, KindTaxSet)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCacheSwallowsBackendFailures(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{loadErr: errors.New("disk gone"), saveErr: errors.New("disk gone")}
	cache := NewCache(backend)

	_, ok := cache.Get(ctx, KindProperty, "p1")
	assert.False(t, ok, "unavailable store reads as a miss")

	assert.NotPanics(t, func() {
		cache.Set(ctx, KindProperty, "p1", "r1")
		cache.Clear(ctx, KindProperty, "p1")
	})
	assert.Zero(t, backend.saves, "nothing is written without a successful read")
	assert.Empty(t, cache.All(ctx, KindProperty))
}

// flakyBackend fails the next n loads, then delegates.
type flakyBackend struct {
	*MemoryBackend
	failLoads int
}

func (f *flakyBackend) Load(ctx context.Context, kind Kind) (map[string]string, error) {
	if f.failLoads > 0 {
		f.failLoads--
		return nil, errors.New("i/o timeout")
	}
	return f.MemoryBackend.Load(ctx, kind)
}

func TestCacheTransientLoadFailureKeepsEntries(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: NewMemoryBackend()}
	cache := NewCache(backend)

	cache.Set(ctx, KindProperty, "p1", "r1")
	cache.Set(ctx, KindProperty, "p2", "r2")

	backend.failLoads = 1
	cache.Set(ctx, KindProperty, "p3", "r3")

	assert.Equal(t, map[string]string{"p1": "r1", "p2": "r2"}, cache.All(ctx, KindProperty))

	backend.failLoads = 1
	cache.Clear(ctx, KindProperty, "p1")

	got, ok := cache.Get(ctx, KindProperty, "p1")
	require.True(t, ok)
	assert.Equal(t, "r1", got)
}

func TestNilBackendBehavesAsEmpty(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(nil)

	cache.Set(ctx, KindWebhook, "remote-prop", "hook-1")
	_, ok := cache.Get(ctx, KindWebhook, "remote-prop")
	assert.False(t, ok)
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindRatePlan.Valid())
	assert.False(t, Kind("room_type").Valid())
}

func TestBoltBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "mappings.db")

	backend, err := NewBoltBackend(path)
	require.NoError(t, err)

	cache := NewCache(backend)
	cache.Set(ctx, KindRatePlan, "rp-1", "remote-rp-1")
	cache.Set(ctx, KindWebhook, "remote-prop-1", "hook-1")
	require.NoError(t, backend.Close())

	reopened, err := NewBoltBackend(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	cache = NewCache(reopened)
	got, ok := cache.Get(ctx, KindRatePlan, "rp-1")
	require.True(t, ok)
	assert.Equal(t, "remote-rp-1", got)

	all := cache.All(ctx, KindWebhook)
	assert.Equal(t, map[string]string{"remote-prop-1": "hook-1"}, all)
}

func TestRedisBackendRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	backend, err := NewRedisBackend(url)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	cache := NewCache(backend)
	cache.Set(ctx, KindTax, "tax-test-1", "remote-tax-1")
	t.Cleanup(func() { cache.Clear(ctx, KindTax, "tax-test-1") })

	got, ok := cache.Get(ctx, KindTax, "tax-test-1")
	require.True(t, ok)
	assert.Equal(t, "remote-tax-1", got)
}
