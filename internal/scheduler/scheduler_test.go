package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/channel-sync/backend/internal/fingerprint"
	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/storage/models"
)

const (
	timeout = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type fakeJournal struct {
	synced map[string][]string
	err    error
}

func (j *fakeJournal) ListByState(_ context.Context, kind, state string) ([]models.SyncState, error) {
	if j.err != nil {
		return nil, j.err
	}
	var out []models.SyncState
	if state != models.SyncStateSynced {
		return out, nil
	}
	for _, id := range j.synced[kind] {
		out = append(out, models.SyncState{Kind: kind, LocalID: id, State: state})
	}
	return out, nil
}

type fakeObserver struct {
	mu      sync.Mutex
	seen    []string
	actions map[string]fingerprint.Action
	errs    map[string]error
	started chan struct{}
	block   chan struct{}
}

func (o *fakeObserver) Observe(_ context.Context, kind mapping.Kind, localID string) (fingerprint.Action, error) {
	if o.block != nil {
		o.started <- struct{}{}
		<-o.block
	}
	key := string(kind) + "/" + localID
	o.mu.Lock()
	o.seen = append(o.seen, key)
	o.mu.Unlock()
	return o.actions[key], o.errs[key]
}

func TestRunOnceObservesEverySyncedEntity(t *testing.T) {
	journal := &fakeJournal{synced: map[string][]string{
		"property":  {"p1", "p2"},
		"rate_plan": {"rp1"},
		"tax_set":   {"ts1"},
		"tax":       {"ignored"},
	}}
	observer := &fakeObserver{
		actions: map[string]fingerprint.Action{"property/p2": fingerprint.ActionUpdate},
		errs:    map[string]error{"rate_plan/rp1": errors.New("backend down")},
	}
	s := NewScheduler(observer, journal, 1)

	pass, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"property/p1", "property/p2", "rate_plan/rp1", "tax_set/ts1"}, observer.seen)
	assert.Equal(t, 4, pass.Observed)
	assert.Equal(t, 1, pass.Updated)
	assert.Equal(t, 1, pass.Failed)
	assert.Same(t, pass, s.LastPass())
}

func TestRunOnceJournalFailureAborts(t *testing.T) {
	s := NewScheduler(&fakeObserver{}, &fakeJournal{err: errors.New("database is locked")}, 1)

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Nil(t, s.LastPass())
}

func TestRunOnceRejectsOverlappingPass(t *testing.T) {
	journal := &fakeJournal{synced: map[string][]string{"property": {"p1"}}}
	observer := &fakeObserver{started: make(chan struct{}, 1), block: make(chan struct{})}
	s := NewScheduler(observer, journal, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()

	<-observer.started

	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrPassRunning)

	close(observer.block)
	require.NoError(t, <-done)
}

func TestStartStopLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(&fakeObserver{}, &fakeJournal{}, 5)
	assert.Nil(t, s.NextRun())

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return s.NextRun() != nil }, timeout, tick)
	s.Stop()
}
