package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "channel-sync:mappings:"

// RedisBackend stores each kind's map as one JSON string key, so several
// service instances can share the cache.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to redisURL and verifies the connection.
func NewRedisBackend(redisURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisBackend{client: client}, nil
}

// Load returns the stored map for kind, or an empty map if the key is absent.
func (r *RedisBackend) Load(ctx context.Context, kind Kind) (map[string]string, error) {
	entries := make(map[string]string)

	data, err := r.client.Get(ctx, redisKeyPrefix+string(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s mappings: %w", kind, err)
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s mappings: %w", kind, err)
	}
	return entries, nil
}

// Save replaces the stored map for kind.
func (r *RedisBackend) Save(ctx context.Context, kind Kind, entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding %s mappings: %w", kind, err)
	}
	return r.client.Set(ctx, redisKeyPrefix+string(kind), data, 0).Err()
}

// Close closes the redis client.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
