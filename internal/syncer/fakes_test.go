package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/channel-sync/backend/internal/backend"
	"github.com/channel-sync/backend/internal/channex"
)

const (
	resProperty = "property"
	resRatePlan = "rate_plan"
	resTax      = "tax"
	resTaxSet   = "tax_set"
	resWebhook  = "webhook"
)

// fakeRemote is an in-memory channel manager.
type fakeRemote struct {
	mu    sync.Mutex
	seq   int
	store map[string]map[string]channex.Resource

	// Queued errors, popped one per call.
	createErrs map[string][]error
	updateErrs map[string][]error

	attempts map[string][]map[string]any
	updates  map[string][]map[string]any

	createStarted chan struct{}
	createGate    chan struct{}

	restrictions []any
	availability []any
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		store:      map[string]map[string]channex.Resource{},
		createErrs: map[string][]error{},
		updateErrs: map[string][]error{},
		attempts:   map[string][]map[string]any{},
		updates:    map[string][]map[string]any{},
	}
}

func toWire(payload any) map[string]any {
	data, _ := json.Marshal(payload)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}

func attrsOf(payload any) channex.Attributes {
	data, _ := json.Marshal(payload)
	var a channex.Attributes
	_ = json.Unmarshal(data, &a)
	return a
}

func (f *fakeRemote) put(typ, id string, attrs channex.Attributes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store[typ] == nil {
		f.store[typ] = map[string]channex.Resource{}
	}
	f.store[typ][id] = channex.Resource{ID: id, Type: typ, Attributes: attrs}
}

func (f *fakeRemote) remove(typ, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store[typ], id)
}

func (f *fakeRemote) count(typ string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.store[typ])
}

func (f *fakeRemote) createCalls(typ string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[typ]
}

func (f *fakeRemote) updateCalls(typ string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[typ]
}

func pop(q map[string][]error, typ string) error {
	if len(q[typ]) == 0 {
		return nil
	}
	err := q[typ][0]
	q[typ] = q[typ][1:]
	return err
}

func (f *fakeRemote) get(typ, id string) (*channex.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.store[typ][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", channex.ErrNotFound, typ, id)
	}
	return &r, nil
}

func (f *fakeRemote) list(typ string, flt channex.ListFilter) []channex.Resource {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []channex.Resource
	for _, r := range f.store[typ] {
		if flt.PropertyID != "" && r.Attributes.PropertyID != flt.PropertyID {
			continue
		}
		if flt.Title != "" && r.Attributes.Title != flt.Title {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (f *fakeRemote) create(typ string, payload any) (*channex.Resource, error) {
	if f.createStarted != nil {
		f.createStarted <- struct{}{}
	}
	if f.createGate != nil {
		<-f.createGate
	}

	f.mu.Lock()
	f.attempts[typ] = append(f.attempts[typ], toWire(payload))
	if err := pop(f.createErrs, typ); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.seq++
	id := fmt.Sprintf("%s-%d", typ, f.seq)
	f.mu.Unlock()

	f.put(typ, id, attrsOf(payload))
	return &channex.Resource{ID: id, Type: typ, Attributes: attrsOf(payload)}, nil
}

func (f *fakeRemote) update(typ, id string, payload any) (*channex.Resource, error) {
	f.mu.Lock()
	f.updates[typ] = append(f.updates[typ], toWire(payload))
	if err := pop(f.updateErrs, typ); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	r, ok := f.store[typ][id]
	if !ok {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %s %s", channex.ErrNotFound, typ, id)
	}
	if a := attrsOf(payload); a.Title != "" {
		r.Attributes.Title = a.Title
	}
	f.store[typ][id] = r
	f.mu.Unlock()
	return &r, nil
}

func (f *fakeRemote) GetProperty(_ context.Context, id string) (*channex.Resource, error) {
	return f.get(resProperty, id)
}

func (f *fakeRemote) ListProperties(_ context.Context, flt channex.ListFilter) ([]channex.Resource, error) {
	return f.list(resProperty, flt), nil
}

func (f *fakeRemote) CreateProperty(_ context.Context, payload any) (*channex.Resource, error) {
	return f.create(resProperty, payload)
}

func (f *fakeRemote) UpdateProperty(_ context.Context, id string, payload any) (*channex.Resource, error) {
	return f.update(resProperty, id, payload)
}

func (f *fakeRemote) GetRatePlan(_ context.Context, id string) (*channex.Resource, error) {
	return f.get(resRatePlan, id)
}

func (f *fakeRemote) ListRatePlans(_ context.Context, flt channex.ListFilter) ([]channex.Resource, error) {
	return f.list(resRatePlan, flt), nil
}

func (f *fakeRemote) CreateRatePlan(_ context.Context, payload any) (*channex.Resource, error) {
	return f.create(resRatePlan, payload)
}

func (f *fakeRemote) UpdateRatePlan(_ context.Context, id string, payload any) (*channex.Resource, error) {
	return f.update(resRatePlan, id, payload)
}

func (f *fakeRemote) ListTaxes(_ context.Context, flt channex.ListFilter) ([]channex.Resource, error) {
	return f.list(resTax, flt), nil
}

func (f *fakeRemote) CreateTax(_ context.Context, payload any) (*channex.Resource, error) {
	return f.create(resTax, payload)
}

func (f *fakeRemote) GetTaxSet(_ context.Context, id string) (*channex.Resource, error) {
	return f.get(resTaxSet, id)
}

func (f *fakeRemote) ListTaxSets(_ context.Context, flt channex.ListFilter) ([]channex.Resource, error) {
	return f.list(resTaxSet, flt), nil
}

func (f *fakeRemote) CreateTaxSet(_ context.Context, payload any) (*channex.Resource, error) {
	return f.create(resTaxSet, payload)
}

func (f *fakeRemote) UpdateTaxSet(_ context.Context, id string, payload any) (*channex.Resource, error) {
	return f.update(resTaxSet, id, payload)
}

func (f *fakeRemote) ListWebhooks(_ context.Context, propertyID string) ([]channex.Resource, error) {
	return f.list(resWebhook, channex.ListFilter{PropertyID: propertyID}), nil
}

func (f *fakeRemote) CreateWebhook(_ context.Context, payload any) (*channex.Resource, error) {
	return f.create(resWebhook, payload)
}

func (f *fakeRemote) UpdateWebhook(_ context.Context, id string, payload any) (*channex.Resource, error) {
	return f.update(resWebhook, id, payload)
}

func (f *fakeRemote) UpdateRestrictions(_ context.Context, values any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restrictions = append(f.restrictions, values)
	return nil
}

func (f *fakeRemote) UpdateAvailability(_ context.Context, values any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availability = append(f.availability, values)
	return nil
}

// fakeBackend serves sync views from memory.
type fakeBackend struct {
	mu           sync.Mutex
	properties   map[string]*backend.PropertySyncView
	ratePlans    map[string]*backend.RatePlanSyncView
	taxSets      map[string]*backend.TaxSetSyncView
	rates        map[string]*backend.RatesView
	availability map[string]*backend.AvailabilityView
	webhookErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		properties:   map[string]*backend.PropertySyncView{},
		ratePlans:    map[string]*backend.RatePlanSyncView{},
		taxSets:      map[string]*backend.TaxSetSyncView{},
		rates:        map[string]*backend.RatesView{},
		availability: map[string]*backend.AvailabilityView{},
	}
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", backend.ErrNotFound, id)
}

func (b *fakeBackend) PropertySyncView(_ context.Context, id string) (*backend.PropertySyncView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.properties[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *v
	return &cp, nil
}

func (b *fakeBackend) RatePlanSyncView(_ context.Context, id string) (*backend.RatePlanSyncView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.ratePlans[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *v
	return &cp, nil
}

func (b *fakeBackend) TaxSetSyncView(_ context.Context, id string) (*backend.TaxSetSyncView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.taxSets[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *v
	return &cp, nil
}

func (b *fakeBackend) RatesView(_ context.Context, id string) (*backend.RatesView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.rates[id]
	if !ok {
		return nil, notFound(id)
	}
	return v, nil
}

func (b *fakeBackend) AvailabilityView(_ context.Context, id string) (*backend.AvailabilityView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.availability[id]
	if !ok {
		return nil, notFound(id)
	}
	return v, nil
}

func (b *fakeBackend) SetPropertyWebhookID(_ context.Context, propertyID, webhookID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.webhookErr != nil {
		return b.webhookErr
	}
	v, ok := b.properties[propertyID]
	if !ok {
		return notFound(propertyID)
	}
	id := webhookID
	v.ChannexWebhookID = &id
	return nil
}

// recorder captures journal writes and notifications.
type recorder struct {
	mu        sync.Mutex
	states    []Status
	completed []Status
	failed    []Status
}

func (r *recorder) RecordSyncState(_ context.Context, s Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
	return nil
}

func (r *recorder) SyncCompleted(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, s)
}

func (r *recorder) SyncFailed(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, s)
}

func (r *recorder) stateTrail() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.states))
	for i, s := range r.states {
		out[i] = s.State
	}
	return out
}
