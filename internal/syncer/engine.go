// Package syncer decides whether local entities need to be created or updated
// in the channel manager, runs those calls and keeps the identifier mapping
// cache consistent with what the remote side reports.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/channel-sync/backend/internal/fingerprint"
	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/metrics"
)

// State is the per-entity orchestrator state.
type State string

const (
	StateUnknown   State = "UNKNOWN"
	StateChecking  State = "CHECKING"
	StateNotSynced State = "NOT_SYNCED"
	StateSynced    State = "SYNCED"
	StateSyncing   State = "SYNCING"
	StateError     State = "ERROR"
)

// Status is a snapshot of one entity's sync state.
type Status struct {
	Kind            string     `json:"kind"`
	LocalID         string     `json:"local_id"`
	State           State      `json:"state"`
	RemoteID        string     `json:"remote_id,omitempty"`
	ExistsInChannex bool       `json:"exists_in_channex"`
	LastError       string     `json:"last_error,omitempty"`
	ErrorClass      ErrorClass `json:"error_class,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Adapter supplies the kind-specific steps of the orchestrator.
type Adapter[V any] interface {
	Kind() mapping.Kind
	// Load fetches the local sync view.
	Load(ctx context.Context, localID string) (V, error)
	// Verify probes the remote entity by id.
	Verify(ctx context.Context, remoteID string) error
	// FindByNaturalKey returns "" when no remote entity matches.
	FindByNaturalKey(ctx context.Context, view V) (string, error)
	Create(ctx context.Context, view V) (string, error)
	Update(ctx context.Context, remoteID string, view V) error
}

// AfterSyncer is implemented by adapters with a side effect after every
// successful create or update.
type AfterSyncer[V any] interface {
	AfterSync(ctx context.Context, localID, remoteID string, view V)
}

// Deps are the collaborators shared by every orchestrator.
type Deps struct {
	Cache    *mapping.Cache
	Recorder StateRecorder
	Notifier Notifier
}

type entity struct {
	mu       sync.Mutex
	state    State
	remoteID string
	inFlight bool
	lastErr  error
	updated  time.Time

	tracker fingerprint.Tracker
}

// begin claims the entity for one operation.
func (e *entity) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return false
	}
	e.inFlight = true
	return true
}

func (e *entity) end() {
	e.mu.Lock()
	e.inFlight = false
	e.mu.Unlock()
}

func (e *entity) isInFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

func (e *entity) current() (State, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.remoteID
}

// Orchestrator runs the sync state machine for one entity kind.
type Orchestrator[V any] struct {
	adapter Adapter[V]
	deps    Deps

	mu       sync.Mutex
	entities map[string]*entity
}

// NewOrchestrator creates an orchestrator for the adapter's kind.
func NewOrchestrator[V any](adapter Adapter[V], deps Deps) *Orchestrator[V] {
	if deps.Cache == nil {
		deps.Cache = mapping.NewCache(nil)
	}
	return &Orchestrator[V]{
		adapter:  adapter,
		deps:     deps,
		entities: make(map[string]*entity),
	}
}

// Kind returns the entity kind handled.
func (o *Orchestrator[V]) Kind() mapping.Kind {
	return o.adapter.Kind()
}

func (o *Orchestrator[V]) entity(localID string) *entity {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entities[localID]
	if !ok {
		e = &entity{state: StateUnknown}
		o.entities[localID] = e
	}
	return e
}

// Status returns the in-memory state of an entity without any I/O.
func (o *Orchestrator[V]) Status(localID string) Status {
	return o.snapshot(localID, o.entity(localID))
}

func (o *Orchestrator[V]) snapshot(localID string, e *entity) Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Status{
		Kind:            string(o.adapter.Kind()),
		LocalID:         localID,
		State:           e.state,
		RemoteID:        e.remoteID,
		ExistsInChannex: e.state == StateSynced && e.remoteID != "",
		ErrorClass:      Classify(e.lastErr),
		UpdatedAt:       e.updated,
	}
	if e.lastErr != nil {
		s.LastError = e.lastErr.Error()
	}
	return s
}

// set transitions the entity and journals the new state.
func (o *Orchestrator[V]) set(ctx context.Context, localID string, e *entity, state State, remoteID string, err error) Status {
	e.mu.Lock()
	e.state = state
	e.remoteID = remoteID
	e.lastErr = err
	e.updated = time.Now().UTC()
	e.mu.Unlock()

	s := o.snapshot(localID, e)
	if o.deps.Recorder != nil {
		if rerr := o.deps.Recorder.RecordSyncState(ctx, s); rerr != nil {
			log.Printf("Failed to journal %s %s state %s: %v", s.Kind, localID, state, rerr)
		}
	}
	return s
}

// Check resolves whether the entity exists remotely. While another operation
// is in flight it returns the current state untouched.
func (o *Orchestrator[V]) Check(ctx context.Context, localID string) (Status, error) {
	e := o.entity(localID)
	if !e.begin() {
		return o.snapshot(localID, e), nil
	}
	defer e.end()

	_, _, err := o.check(ctx, localID, e)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.RecordSync(string(o.adapter.Kind()), "check", outcome)
	return o.snapshot(localID, e), err
}

// check verifies a cached mapping and falls back to a natural-key lookup.
// The loaded view is returned when the fallback needed it.
func (o *Orchestrator[V]) check(ctx context.Context, localID string, e *entity) (V, bool, error) {
	var view V
	kind := o.adapter.Kind()
	_, prevRemote := e.current()
	o.set(ctx, localID, e, StateChecking, prevRemote, nil)

	if remoteID, ok := o.deps.Cache.Get(ctx, kind, localID); ok {
		err := o.adapter.Verify(ctx, remoteID)
		switch {
		case err == nil:
			o.set(ctx, localID, e, StateSynced, remoteID, nil)
			return view, false, nil
		case isRemoteNotFound(err):
			log.Printf("Cached %s mapping %s -> %s no longer exists remotely, clearing", kind, localID, remoteID)
			o.deps.Cache.Clear(ctx, kind, localID)
		default:
			err = fmt.Errorf("verifying %s %s: %w", kind, localID, err)
			o.set(ctx, localID, e, StateError, remoteID, err)
			return view, false, err
		}
	}

	view, err := o.adapter.Load(ctx, localID)
	if err != nil {
		err = fmt.Errorf("loading %s %s: %w", kind, localID, err)
		o.set(ctx, localID, e, StateError, "", err)
		return view, false, err
	}

	remoteID, err := o.adapter.FindByNaturalKey(ctx, view)
	if err != nil {
		err = fmt.Errorf("looking up %s %s: %w", kind, localID, err)
		o.set(ctx, localID, e, StateError, "", err)
		return view, true, err
	}
	if remoteID == "" {
		o.set(ctx, localID, e, StateNotSynced, "", nil)
		return view, true, nil
	}

	log.Printf("Found existing remote %s %s for %s", kind, remoteID, localID)
	o.deps.Cache.Set(ctx, kind, localID, remoteID)
	o.set(ctx, localID, e, StateSynced, remoteID, nil)
	return view, true, nil
}

// Sync creates or updates the entity remotely. A request made while another
// one is pending is dropped with ErrSyncInFlight.
func (o *Orchestrator[V]) Sync(ctx context.Context, localID string) (Status, error) {
	return o.sync(ctx, localID, true)
}

func (o *Orchestrator[V]) sync(ctx context.Context, localID string, allowCreate bool) (Status, error) {
	kind := o.adapter.Kind()
	e := o.entity(localID)
	if !e.begin() {
		metrics.RecordSync(string(kind), "sync", metrics.OutcomeDropped)
		return o.snapshot(localID, e), ErrSyncInFlight
	}
	defer e.end()

	var (
		view   V
		loaded bool
		err    error
	)
	if state, _ := e.current(); state == StateUnknown || state == StateError {
		view, loaded, err = o.check(ctx, localID, e)
		if err != nil {
			return o.failed(localID, e, "check"), err
		}
	}
	if !loaded {
		view, err = o.adapter.Load(ctx, localID)
		if err != nil {
			err = fmt.Errorf("loading %s %s: %w", kind, localID, err)
			_, remoteID := e.current()
			o.set(ctx, localID, e, StateError, remoteID, err)
			return o.failed(localID, e, "load"), err
		}
	}

	state, remoteID := e.current()
	action := fingerprint.ActionUpdate
	switch state {
	case StateNotSynced:
		if !allowCreate {
			return o.snapshot(localID, e), nil
		}
		action = fingerprint.ActionCreate
		o.set(ctx, localID, e, StateSyncing, "", nil)
		remoteID, err = o.adapter.Create(ctx, view)
		if err != nil {
			err = fmt.Errorf("creating %s %s: %w", kind, localID, err)
			o.set(ctx, localID, e, StateError, "", err)
			return o.failed(localID, e, action.String()), err
		}
		o.deps.Cache.Set(ctx, kind, localID, remoteID)

	default:
		o.set(ctx, localID, e, StateSyncing, remoteID, nil)
		if err = o.adapter.Update(ctx, remoteID, view); err != nil {
			err = fmt.Errorf("updating %s %s: %w", kind, localID, err)
			if isRemoteNotFound(err) {
				log.Printf("Remote %s %s was deleted externally, clearing mapping for %s", kind, remoteID, localID)
				o.deps.Cache.Clear(ctx, kind, localID)
				o.set(ctx, localID, e, StateNotSynced, "", err)
			} else {
				o.set(ctx, localID, e, StateError, remoteID, err)
			}
			return o.failed(localID, e, action.String()), err
		}
	}

	status := o.set(ctx, localID, e, StateSynced, remoteID, nil)
	log.Printf("Synced %s %s (%s) -> %s", kind, localID, action, remoteID)

	if hook, ok := o.adapter.(AfterSyncer[V]); ok {
		hook.AfterSync(ctx, localID, remoteID, view)
	}
	if fp, ferr := fingerprint.Compute(view); ferr == nil {
		e.tracker.Reset()
		e.tracker.Observe(fp, false)
	}

	metrics.RecordSync(string(kind), action.String(), metrics.OutcomeSuccess)
	if o.deps.Notifier != nil {
		o.deps.Notifier.SyncCompleted(status)
	}
	return status, nil
}

func (o *Orchestrator[V]) failed(localID string, e *entity, action string) Status {
	s := o.snapshot(localID, e)
	metrics.RecordSync(s.Kind, action, metrics.OutcomeError)
	if o.deps.Notifier != nil {
		o.deps.Notifier.SyncFailed(s)
	}
	return s
}

// Observe fingerprints the current local view and triggers an update when it
// drifted since the previous observation. It never creates.
func (o *Orchestrator[V]) Observe(ctx context.Context, localID string) (fingerprint.Action, error) {
	kind := o.adapter.Kind()
	e := o.entity(localID)

	view, err := o.adapter.Load(ctx, localID)
	if err != nil {
		return fingerprint.ActionNone, fmt.Errorf("loading %s %s: %w", kind, localID, err)
	}
	fp, err := fingerprint.Compute(view)
	if err != nil {
		return fingerprint.ActionNone, err
	}

	action := e.tracker.Observe(fp, e.isInFlight())
	if action != fingerprint.ActionUpdate {
		return action, nil
	}

	log.Printf("Detected local change on %s %s, updating", kind, localID)
	status, err := o.sync(ctx, localID, false)
	if errors.Is(err, ErrSyncInFlight) {
		return fingerprint.ActionNone, nil
	}
	if err != nil {
		return action, err
	}
	if status.State != StateSynced {
		// Not on the remote side yet; nothing was sent.
		return fingerprint.ActionNone, nil
	}
	return action, nil
}

// Runner is the kind-erased view of an Orchestrator.
type Runner interface {
	Kind() mapping.Kind
	Status(localID string) Status
	Check(ctx context.Context, localID string) (Status, error)
	Sync(ctx context.Context, localID string) (Status, error)
	Observe(ctx context.Context, localID string) (fingerprint.Action, error)
}

// ErrUnknownKind is returned for kinds without a registered orchestrator.
var ErrUnknownKind = errors.New("unknown entity kind")

// Engine dispatches by entity kind.
type Engine struct {
	runners map[mapping.Kind]Runner
}

// NewEngine registers one runner per kind.
func NewEngine(runners ...Runner) *Engine {
	e := &Engine{runners: make(map[mapping.Kind]Runner, len(runners))}
	for _, r := range runners {
		e.runners[r.Kind()] = r
	}
	return e
}

// Kinds lists registered kinds in mapping order.
func (e *Engine) Kinds() []mapping.Kind {
	var kinds []mapping.Kind
	for _, k := range mapping.Kinds {
		if _, ok := e.runners[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (e *Engine) runner(kind mapping.Kind) (Runner, error) {
	r, ok := e.runners[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return r, nil
}

// Check runs the CHECKING flow for one entity.
func (e *Engine) Check(ctx context.Context, kind mapping.Kind, localID string) (Status, error) {
	r, err := e.runner(kind)
	if err != nil {
		return Status{}, err
	}
	return r.Check(ctx, localID)
}

// Sync creates or updates one entity.
func (e *Engine) Sync(ctx context.Context, kind mapping.Kind, localID string) (Status, error) {
	r, err := e.runner(kind)
	if err != nil {
		return Status{}, err
	}
	return r.Sync(ctx, localID)
}

// Observe runs drift detection for one entity.
func (e *Engine) Observe(ctx context.Context, kind mapping.Kind, localID string) (fingerprint.Action, error) {
	r, err := e.runner(kind)
	if err != nil {
		return fingerprint.ActionNone, err
	}
	return r.Observe(ctx, localID)
}
