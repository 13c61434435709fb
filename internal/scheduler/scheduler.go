// Package scheduler runs periodic drift reconciliation: every SYNCED entity
// in the sync journal is re-read from the local backend and pushed again when
// its fingerprint changed.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/channel-sync/backend/internal/fingerprint"
	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/storage/models"
)

// ErrPassRunning is returned by RunOnce while another pass is in progress.
var ErrPassRunning = errors.New("reconciliation pass already running")

// WatchedKinds are the entity kinds reconciled on every pass.
var WatchedKinds = []mapping.Kind{mapping.KindProperty, mapping.KindRatePlan, mapping.KindTaxSet}

// Observer runs drift detection for one entity.
type Observer interface {
	Observe(ctx context.Context, kind mapping.Kind, localID string) (fingerprint.Action, error)
}

// Journal lists journaled entities by state.
type Journal interface {
	ListByState(ctx context.Context, kind, state string) ([]models.SyncState, error)
}

// Pass summarizes one reconciliation pass.
type Pass struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Observed  int           `json:"observed"`
	Updated   int           `json:"updated"`
	Failed    int           `json:"failed"`
}

// Scheduler runs reconciliation passes on a fixed interval.
type Scheduler struct {
	cron     *cron.Cron
	observer Observer
	journal  Journal
	interval time.Duration

	running sync.Mutex

	mu   sync.RWMutex
	last *Pass
}

// NewScheduler creates a scheduler. intervalMin <= 0 falls back to 5 minutes.
func NewScheduler(observer Observer, journal Journal, intervalMin int) *Scheduler {
	if intervalMin <= 0 {
		intervalMin = 5
	}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		observer: observer,
		journal:  journal,
		interval: time.Duration(intervalMin) * time.Minute,
	}
}

// Start schedules the reconciliation job.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := "@every " + s.interval.String()
	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrPassRunning) {
			log.Printf("Reconciliation pass failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling reconciliation: %w", err)
	}

	s.cron.Start()
	log.Printf("Reconciliation scheduler started (every %s)", s.interval)
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("Reconciliation scheduler stopped")
}

// NextRun returns the next scheduled pass, or nil before Start.
func (s *Scheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 || entries[0].Next.IsZero() {
		return nil
	}
	next := entries[0].Next
	return &next
}

// LastPass returns the most recent completed pass, or nil.
func (s *Scheduler) LastPass() *Pass {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// RunOnce performs one pass now. Per-entity failures are logged and counted;
// only a journal read failure aborts the pass.
func (s *Scheduler) RunOnce(ctx context.Context) (*Pass, error) {
	if !s.running.TryLock() {
		return nil, ErrPassRunning
	}
	defer s.running.Unlock()

	pass := &Pass{StartedAt: time.Now().UTC()}
	for _, kind := range WatchedKinds {
		states, err := s.journal.ListByState(ctx, string(kind), models.SyncStateSynced)
		if err != nil {
			return nil, fmt.Errorf("listing synced %s entities: %w", kind, err)
		}

		for _, st := range states {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			pass.Observed++

			action, err := s.observer.Observe(ctx, kind, st.LocalID)
			if err != nil {
				pass.Failed++
				log.Printf("Reconciling %s %s failed: %v", kind, st.LocalID, err)
				continue
			}
			if action == fingerprint.ActionUpdate {
				pass.Updated++
			}
		}
	}
	pass.Duration = time.Since(pass.StartedAt)

	log.Printf("Reconciliation pass: %d observed, %d updated, %d failed",
		pass.Observed, pass.Updated, pass.Failed)

	s.mu.Lock()
	s.last = pass
	s.mu.Unlock()
	return pass, nil
}
