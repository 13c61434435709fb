// Package app wires every component of the sync service from a config.Config.
// Both the server and the operator CLI build on it.
package app

import (
	"errors"
	"fmt"
	"log"

	"github.com/channel-sync/backend/internal/backend"
	"github.com/channel-sync/backend/internal/channex"
	"github.com/channel-sync/backend/internal/config"
	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/scheduler"
	"github.com/channel-sync/backend/internal/storage"
	"github.com/channel-sync/backend/internal/syncer"
	"github.com/channel-sync/backend/internal/webhook"
	"github.com/channel-sync/backend/internal/websocket"
)

// Options select optional components.
type Options struct {
	// Notifications creates the websocket hub and routes sync and ingestion
	// outcomes to it.
	Notifications bool
}

// App holds the wired components.
type App struct {
	Config config.Config

	DB     *storage.DB
	Events *storage.EventRepository
	States *storage.SyncStateRepository

	Mappings       *mapping.Cache
	mappingBackend mapping.Backend

	Channex *channex.Client
	Backend *backend.Client

	Engine     *syncer.Engine
	ARI        *syncer.ARISyncer
	Normalizer *webhook.Normalizer
	Scheduler  *scheduler.Scheduler

	Hub         *websocket.Hub
	Broadcaster *websocket.Broadcaster
}

// New opens storage and the mapping store and builds every component.
func New(cfg config.Config, opts Options) (*App, error) {
	db, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	mb, err := OpenMappingBackend(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		Config:         cfg,
		DB:             db,
		Events:         storage.NewEventRepository(db),
		States:         storage.NewSyncStateRepository(db),
		Mappings:       mapping.NewCache(mb),
		mappingBackend: mb,
		Channex:        channex.NewClient(cfg.ChannexBaseURL, cfg.ChannexAPIKey, cfg.Timeout),
		Backend:        backend.NewClient(cfg.BackendBaseURL, cfg.BackendToken, cfg.Timeout),
	}

	var (
		syncNotifier    syncer.Notifier
		webhookNotifier webhook.Notifier
	)
	if opts.Notifications {
		a.Hub = websocket.NewHub()
		a.Broadcaster = websocket.NewBroadcaster(a.Hub)
		syncNotifier = a.Broadcaster
		webhookNotifier = a.Broadcaster
	}

	deps := syncer.Deps{
		Cache:    a.Mappings,
		Recorder: NewJournal(a.States),
		Notifier: syncNotifier,
	}

	var hooks *syncer.WebhookReconciler
	if cfg.WebhooksEnabled() {
		hooks = syncer.NewWebhookReconciler(a.Channex, a.Backend, a.Mappings, cfg.WebhookCallbackURL, cfg.WebhookEventMask)
	} else {
		log.Println("WEBHOOK_CALLBACK_URL not set, remote webhooks will not be registered")
	}

	a.Engine = syncer.NewEngine(
		syncer.NewOrchestrator[*backend.PropertySyncView](syncer.NewPropertyAdapter(a.Channex, a.Backend, hooks), deps),
		syncer.NewOrchestrator[*backend.RatePlanSyncView](syncer.NewRatePlanAdapter(a.Channex, a.Backend, a.Mappings), deps),
		syncer.NewOrchestrator[*backend.TaxSetSyncView](syncer.NewTaxSetAdapter(a.Channex, a.Backend, a.Mappings), deps),
	)
	a.ARI = syncer.NewARISyncer(a.Channex, a.Backend, a.Mappings, syncNotifier)
	a.Normalizer = webhook.NewNormalizer(a.Events, webhookNotifier)
	a.Scheduler = scheduler.NewScheduler(a.Engine, a.States, cfg.ReconcileIntervalMin)

	return a, nil
}

// OpenMappingBackend opens the mapping store selected by cfg.MappingStore.
func OpenMappingBackend(cfg config.Config) (mapping.Backend, error) {
	switch cfg.MappingStore {
	case config.MappingStoreBolt, "":
		b, err := mapping.NewBoltBackend(cfg.MappingBoltPath)
		if err != nil {
			return nil, fmt.Errorf("opening bolt mapping store: %w", err)
		}
		return b, nil
	case config.MappingStoreRedis:
		b, err := mapping.NewRedisBackend(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("opening redis mapping store: %w", err)
		}
		return b, nil
	case config.MappingStoreMemory:
		return mapping.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown MAPPING_STORE %q", cfg.MappingStore)
	}
}

// Close releases the database and the mapping store.
func (a *App) Close() error {
	return errors.Join(a.mappingBackend.Close(), a.DB.Close())
}
