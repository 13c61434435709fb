package syncer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/metrics"
	"github.com/channel-sync/backend/internal/transform"
)

// ARI status kinds.
const (
	KindRates        = "rates"
	KindAvailability = "availability"
)

// ARISyncer pushes rate and availability batches.
type ARISyncer struct {
	api      ARIAPI
	backend  Backend
	cache    *mapping.Cache
	notifier Notifier

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewARISyncer creates an ARI syncer. notifier may be nil.
func NewARISyncer(api ARIAPI, b Backend, cache *mapping.Cache, notifier Notifier) *ARISyncer {
	if cache == nil {
		cache = mapping.NewCache(nil)
	}
	return &ARISyncer{
		api:      api,
		backend:  b,
		cache:    cache,
		notifier: notifier,
		inFlight: make(map[string]bool),
	}
}

func (s *ARISyncer) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[key] {
		return false
	}
	s.inFlight[key] = true
	return true
}

func (s *ARISyncer) end(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

// SyncRates pushes every rate range of a rate plan, merged with period rules.
// It returns the number of values sent.
func (s *ARISyncer) SyncRates(ctx context.Context, ratePlanID string) (int, error) {
	return s.run(ctx, KindRates, ratePlanID, func() (int, error) {
		view, err := s.backend.RatesView(ctx, ratePlanID)
		if err != nil {
			return 0, fmt.Errorf("loading rates for %s: %w", ratePlanID, err)
		}
		propertyID, ok := s.cache.Get(ctx, mapping.KindProperty, view.PropertyID)
		if !ok {
			return 0, &PreconditionError{Entity: "rates", Field: "property", Reason: "must be synced first"}
		}
		remotePlanID, ok := s.cache.Get(ctx, mapping.KindRatePlan, ratePlanID)
		if !ok {
			return 0, &PreconditionError{Entity: "rates", Field: "rate plan", Reason: "must be synced first"}
		}

		values := transform.RestrictionValues(view, propertyID, remotePlanID)
		if len(values) == 0 {
			return 0, nil
		}
		if err := s.api.UpdateRestrictions(ctx, values); err != nil {
			return 0, fmt.Errorf("pushing rates for %s: %w", ratePlanID, err)
		}
		return len(values), nil
	})
}

// SyncAvailability pushes every availability range of a room type.
func (s *ARISyncer) SyncAvailability(ctx context.Context, roomTypeID string) (int, error) {
	return s.run(ctx, KindAvailability, roomTypeID, func() (int, error) {
		view, err := s.backend.AvailabilityView(ctx, roomTypeID)
		if err != nil {
			return 0, fmt.Errorf("loading availability for %s: %w", roomTypeID, err)
		}
		propertyID, ok := s.cache.Get(ctx, mapping.KindProperty, view.PropertyID)
		if !ok {
			return 0, &PreconditionError{Entity: "availability", Field: "property", Reason: "must be synced first"}
		}
		if view.RoomTypeChannexID == nil || *view.RoomTypeChannexID == "" {
			return 0, &PreconditionError{Entity: "availability", Field: "room type", Reason: "must be synced first"}
		}

		values := transform.AvailabilityValues(view, propertyID, *view.RoomTypeChannexID)
		if len(values) == 0 {
			return 0, nil
		}
		if err := s.api.UpdateAvailability(ctx, values); err != nil {
			return 0, fmt.Errorf("pushing availability for %s: %w", roomTypeID, err)
		}
		return len(values), nil
	})
}

func (s *ARISyncer) run(ctx context.Context, kind, localID string, fn func() (int, error)) (int, error) {
	key := kind + ":" + localID
	if !s.begin(key) {
		metrics.RecordSync(kind, "push", metrics.OutcomeDropped)
		return 0, ErrSyncInFlight
	}
	defer s.end(key)

	n, err := fn()
	status := Status{Kind: kind, LocalID: localID, UpdatedAt: time.Now().UTC()}
	if err != nil {
		status.State = StateError
		status.LastError = err.Error()
		status.ErrorClass = Classify(err)
		metrics.RecordSync(kind, "push", metrics.OutcomeError)
		if s.notifier != nil {
			s.notifier.SyncFailed(status)
		}
		return 0, err
	}

	log.Printf("Pushed %d %s values for %s", n, kind, localID)
	status.State = StateSynced
	metrics.RecordSync(kind, "push", metrics.OutcomeSuccess)
	if s.notifier != nil {
		s.notifier.SyncCompleted(status)
	}
	return n, nil
}
