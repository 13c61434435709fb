// Package config loads service configuration from the environment.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Mapping store backends.
const (
	MappingStoreBolt   = "bolt"
	MappingStoreRedis  = "redis"
	MappingStoreMemory = "memory"
)

// Config holds the configuration for both remote collaborators and local storage.
type Config struct {
	// ChannexBaseURL is the channel-manager API base URL (including /api/v1)
	ChannexBaseURL string

	// ChannexAPIKey is sent as the user-api-key header
	ChannexAPIKey string

	// BackendBaseURL is the local backend API base URL
	BackendBaseURL string

	// BackendToken is the bearer token for the local backend
	BackendToken string

	// DataDir holds the SQLite database and the bolt mapping file
	DataDir string

	// MappingStore selects the identifier mapping backend
	MappingStore string

	MappingBoltPath string
	RedisURL        string

	// WebhookCallbackURL is registered on every remote property webhook
	WebhookCallbackURL string
	WebhookEventMask   string

	// ReconcileIntervalMin is the fingerprint reconciliation cadence
	ReconcileIntervalMin int

	// Timeout for outbound API requests
	Timeout time.Duration
}

// Load reads a .env file when present and returns the configuration.
// Variables already set in the environment win over the .env file.
func Load(dataDir string) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load .env file: %v", err)
	}

	if dataDir == "" {
		dataDir = getEnv("DATA_DIR", "./data")
	}

	return Config{
		ChannexBaseURL:       getEnv("CHANNEX_BASE_URL", "https://staging.channex.io/api/v1"),
		ChannexAPIKey:        getEnv("CHANNEX_API_KEY", ""),
		BackendBaseURL:       getEnv("BACKEND_BASE_URL", "http://localhost:8000/api"),
		BackendToken:         getEnv("BACKEND_TOKEN", ""),
		DataDir:              dataDir,
		MappingStore:         getEnv("MAPPING_STORE", MappingStoreBolt),
		MappingBoltPath:      getEnv("MAPPING_BOLT_PATH", filepath.Join(dataDir, "mappings.db")),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		WebhookCallbackURL:   getEnv("WEBHOOK_CALLBACK_URL", ""),
		WebhookEventMask:     getEnv("WEBHOOK_EVENT_MASK", "*"),
		ReconcileIntervalMin: getEnvInt("RECONCILE_INTERVAL_MIN", 5),
		Timeout:              time.Duration(getEnvInt("HTTP_TIMEOUT_SEC", 30)) * time.Second,
	}
}

// DatabasePath returns the SQLite file used for normalized events and the sync journal.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "channel-sync.db")
}

// WebhooksEnabled returns true if property syncs should reconcile a remote webhook.
func (c Config) WebhooksEnabled() bool {
	return c.WebhookCallbackURL != ""
}

// getEnv returns an environment variable value or a default if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Ignoring invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
