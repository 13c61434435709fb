package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channel-sync/backend/internal/backend"
	"github.com/channel-sync/backend/internal/channex"
	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/transform"
)

const callback = "https://sync.harbourloft.pt/api/webhooks/channex"

func TestPropertySyncRegistersWebhookOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, callback)

	_, err := h.property.Sync(ctx, "p1")
	require.NoError(t, err)
	remoteProperty := h.remoteID(t)

	require.Len(t, h.remote.createCalls(resWebhook), 1)
	hook := h.remote.createCalls(resWebhook)[0]
	assert.Equal(t, remoteProperty, hook["property_id"])
	assert.Equal(t, callback, hook["callback_url"])
	assert.Equal(t, "*", hook["event_mask"])

	stored := h.backend.properties["p1"].ChannexWebhookID
	require.NotNil(t, stored)
	cached, ok := h.cache.Get(ctx, mapping.KindWebhook, remoteProperty)
	require.True(t, ok)
	assert.Equal(t, *stored, cached)

	_, err = h.property.Sync(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, h.remote.createCalls(resWebhook), 1)
	assert.Len(t, h.remote.updateCalls(resWebhook), 1)
}

func TestWebhookFailureDoesNotFailPropertySync(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, callback)
	h.remote.createErrs[resWebhook] = []error{&channex.APIError{Status: 500, Body: "oops"}}

	s, err := h.property.Sync(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, StateSynced, s.State)
	assert.Nil(t, h.backend.properties["p1"].ChannexWebhookID)
}

func TestWebhookResolutionOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("local record wins", func(t *testing.T) {
		remote, b := newFakeRemote(), newFakeBackend()
		cache := mapping.NewCache(mapping.NewMemoryBackend())
		b.properties["p1"] = &backend.PropertySyncView{ID: "p1"}
		remote.put(resWebhook, "hook-local", channex.Attributes{PropertyID: "rp"})
		remote.put(resWebhook, "hook-cached", channex.Attributes{PropertyID: "rp"})
		cache.Set(ctx, mapping.KindWebhook, "rp", "hook-cached")

		r := NewWebhookReconciler(remote, b, cache, callback, "")
		id, err := r.Reconcile(ctx, "p1", "rp", strPtr("hook-local"))
		require.NoError(t, err)
		assert.Equal(t, "hook-local", id)
		got, _ := cache.Get(ctx, mapping.KindWebhook, "rp")
		assert.Equal(t, "hook-local", got)
	})

	t.Run("cache before listing", func(t *testing.T) {
		remote, b := newFakeRemote(), newFakeBackend()
		cache := mapping.NewCache(mapping.NewMemoryBackend())
		b.properties["p1"] = &backend.PropertySyncView{ID: "p1"}
		remote.put(resWebhook, "hook-cached", channex.Attributes{PropertyID: "rp"})
		cache.Set(ctx, mapping.KindWebhook, "rp", "hook-cached")

		r := NewWebhookReconciler(remote, b, cache, callback, "")
		id, err := r.Reconcile(ctx, "p1", "rp", nil)
		require.NoError(t, err)
		assert.Equal(t, "hook-cached", id)
		assert.Equal(t, "hook-cached", *b.properties["p1"].ChannexWebhookID)
	})

	t.Run("listing as last resort", func(t *testing.T) {
		remote, b := newFakeRemote(), newFakeBackend()
		b.properties["p1"] = &backend.PropertySyncView{ID: "p1"}
		remote.put(resWebhook, "hook-other", channex.Attributes{PropertyID: "other"})
		remote.put(resWebhook, "hook-listed", channex.Attributes{PropertyID: "rp", CallbackURL: callback})

		r := NewWebhookReconciler(remote, b, nil, callback, "")
		id, err := r.Reconcile(ctx, "p1", "rp", nil)
		require.NoError(t, err)
		assert.Equal(t, "hook-listed", id)
		assert.Empty(t, remote.createCalls(resWebhook))
	})

	t.Run("stale id is replaced", func(t *testing.T) {
		remote, b := newFakeRemote(), newFakeBackend()
		b.properties["p1"] = &backend.PropertySyncView{ID: "p1"}

		r := NewWebhookReconciler(remote, b, nil, callback, "booking,message")
		id, err := r.Reconcile(ctx, "p1", "rp", strPtr("hook-deleted"))
		require.NoError(t, err)
		assert.NotEqual(t, "hook-deleted", id)
		require.Len(t, remote.createCalls(resWebhook), 1)
		assert.Equal(t, "booking,message", remote.createCalls(resWebhook)[0]["event_mask"])
	})
}

func newRatePlanHarness(t *testing.T) (*Orchestrator[*backend.RatePlanSyncView], *fakeRemote, *fakeBackend, *mapping.Cache) {
	t.Helper()
	remote, b := newFakeRemote(), newFakeBackend()
	cache := mapping.NewCache(mapping.NewMemoryBackend())
	o := NewOrchestrator[*backend.RatePlanSyncView](NewRatePlanAdapter(remote, b, cache), Deps{Cache: cache})

	b.ratePlans["rp1"] = &backend.RatePlanSyncView{
		ID:                "rp1",
		Title:             "Standard",
		PropertyID:        "p1",
		RoomTypeChannexID: strPtr("room-remote"),
		ParentRatePlanID:  strPtr("rp0"),
		TaxSetID:          strPtr("ts1"),
		Currency:          "EUR",
		Options:           []backend.OccupancyOption{{Occupancy: 2, IsPrimary: true, Rate: 100}},
		InheritRate:       true,
	}
	return o, remote, b, cache
}

func TestRatePlanRequiresSyncedProperty(t *testing.T) {
	ctx := context.Background()
	o, remote, _, _ := newRatePlanHarness(t)

	_, err := o.Sync(ctx, "rp1")
	assert.Equal(t, ClassPrecondition, Classify(err))
	assert.Empty(t, remote.createCalls(resRatePlan))
}

func TestRatePlanCreateResolvesLinks(t *testing.T) {
	ctx := context.Background()
	o, remote, _, cache := newRatePlanHarness(t)
	cache.Set(ctx, mapping.KindProperty, "p1", "prop-remote")

	_, err := o.Sync(ctx, "rp1")
	require.NoError(t, err)

	calls := remote.createCalls(resRatePlan)
	require.Len(t, calls, 1)
	assert.Equal(t, "prop-remote", calls[0]["property_id"])
	assert.Equal(t, "room-remote", calls[0]["room_type_id"])
	assert.NotContains(t, calls[0], "parent_rate_plan_id", "parent not synced yet")
	assert.NotContains(t, calls[0], "tax_set_id")
	assert.Equal(t, false, calls[0]["inherit_rate"])

	cache.Set(ctx, mapping.KindRatePlan, "rp0", "parent-remote")
	cache.Set(ctx, mapping.KindTaxSet, "ts1", "ts-remote")
	_, err = o.Sync(ctx, "rp1")
	require.NoError(t, err)

	updates := remote.updateCalls(resRatePlan)
	require.Len(t, updates, 1)
	assert.Equal(t, "parent-remote", updates[0]["parent_rate_plan_id"])
	assert.Equal(t, true, updates[0]["inherit_rate"])
	assert.NotContains(t, updates[0], "property_id")
	assert.NotContains(t, updates[0], "room_type_id")
	assert.NotContains(t, updates[0], "tax_set_id")
}

func TestRatePlanNaturalKeyScopedToProperty(t *testing.T) {
	ctx := context.Background()
	o, remote, _, cache := newRatePlanHarness(t)
	cache.Set(ctx, mapping.KindProperty, "p1", "prop-remote")
	remote.put(resRatePlan, "other-prop-plan", channex.Attributes{Title: "Standard", PropertyID: "prop-other"})
	remote.put(resRatePlan, "plan-9", channex.Attributes{Title: "Standard", PropertyID: "prop-remote", RoomTypeID: "room-remote"})

	s, err := o.Check(ctx, "rp1")
	require.NoError(t, err)
	assert.Equal(t, "plan-9", s.RemoteID)
}

func TestTaxSetSyncCreatesTaxesFirst(t *testing.T) {
	ctx := context.Background()
	remote, b := newFakeRemote(), newFakeBackend()
	cache := mapping.NewCache(mapping.NewMemoryBackend())
	cache.Set(ctx, mapping.KindProperty, "p1", "prop-remote")
	o := NewOrchestrator[*backend.TaxSetSyncView](NewTaxSetAdapter(remote, b, cache), Deps{Cache: cache})

	remote.put(resTax, "vat-remote", channex.Attributes{Title: "VAT", PropertyID: "prop-remote"})
	b.taxSets["ts1"] = &backend.TaxSetSyncView{
		ID:         "ts1",
		Title:      "Default",
		PropertyID: "p1",
		Currency:   "EUR",
		Taxes: []backend.TaxView{
			{ID: "t-vat", Title: "VAT", Logic: "percent", Rate: 6, Level: 0},
			{ID: "t-city", Title: "City tax", Logic: "per_person_per_night", Rate: 2, Currency: strPtr("EUR"), Level: 1},
			{ID: "t-fail", Title: "Cleaning", Logic: "per_booking", Rate: 30, Currency: strPtr("EUR"), Level: 2},
		},
	}
	remote.createErrs[resTax] = []error{nil, &channex.APIError{Status: 500}}

	_, err := o.Sync(ctx, "ts1")
	require.NoError(t, err)

	taxCalls := remote.createCalls(resTax)
	require.Len(t, taxCalls, 2, "VAT is reused by title")
	assert.Equal(t, "City tax", taxCalls[0]["title"])

	sets := remote.createCalls(resTaxSet)
	require.Len(t, sets, 1)
	taxes := sets[0]["taxes"].([]any)
	require.Len(t, taxes, 2, "failed tax is left out")
	assert.Equal(t, "vat-remote", taxes[0].(map[string]any)["id"])

	vat, ok := cache.Get(ctx, mapping.KindTax, "t-vat")
	require.True(t, ok)
	assert.Equal(t, "vat-remote", vat)
}

func TestTaxSetMissingCurrencyBlocksWholeSync(t *testing.T) {
	ctx := context.Background()
	remote, b := newFakeRemote(), newFakeBackend()
	cache := mapping.NewCache(mapping.NewMemoryBackend())
	cache.Set(ctx, mapping.KindProperty, "p1", "prop-remote")
	o := NewOrchestrator[*backend.TaxSetSyncView](NewTaxSetAdapter(remote, b, cache), Deps{Cache: cache})

	b.taxSets["ts1"] = &backend.TaxSetSyncView{
		ID:         "ts1",
		Title:      "Default",
		PropertyID: "p1",
		Taxes:      []backend.TaxView{{ID: "t1", Title: "Resort fee", Logic: "per_booking", Rate: 10}},
	}

	_, err := o.Sync(ctx, "ts1")
	var perr *transform.PreconditionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "currency", perr.Field)
	assert.Empty(t, remote.createCalls(resTax))
	assert.Empty(t, remote.createCalls(resTaxSet))
}

func TestARISyncRates(t *testing.T) {
	ctx := context.Background()
	remote, b := newFakeRemote(), newFakeBackend()
	cache := mapping.NewCache(mapping.NewMemoryBackend())
	rec := &recorder{}
	s := NewARISyncer(remote, b, cache, rec)

	b.rates["rp1"] = &backend.RatesView{
		RatePlanID: "rp1",
		PropertyID: "p1",
		Ranges:     []backend.RateRange{{DateFrom: "2026-07-01", DateTo: "2026-07-08", Rate: 89.9}},
	}

	_, err := s.SyncRates(ctx, "rp1")
	assert.Equal(t, ClassPrecondition, Classify(err))
	require.Len(t, rec.failed, 1)

	cache.Set(ctx, mapping.KindProperty, "p1", "prop-remote")
	cache.Set(ctx, mapping.KindRatePlan, "rp1", "plan-remote")
	n, err := s.SyncRates(ctx, "rp1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, remote.restrictions, 1)
	values := remote.restrictions[0].([]transform.RestrictionValue)
	assert.Equal(t, int64(8990), values[0].Rate)
	assert.Equal(t, "plan-remote", values[0].RatePlanID)
	assert.Len(t, rec.completed, 1)
}

func TestARISyncAvailability(t *testing.T) {
	ctx := context.Background()
	remote, b := newFakeRemote(), newFakeBackend()
	cache := mapping.NewCache(mapping.NewMemoryBackend())
	s := NewARISyncer(remote, b, cache, nil)

	b.availability["room1"] = &backend.AvailabilityView{
		RoomTypeID: "room1",
		PropertyID: "p1",
		Ranges:     []backend.AvailabilityRange{{DateFrom: "2026-07-01", DateTo: "2026-07-02", Availability: 4}},
	}
	cache.Set(ctx, mapping.KindProperty, "p1", "prop-remote")

	_, err := s.SyncAvailability(ctx, "room1")
	assert.Equal(t, ClassPrecondition, Classify(err), "room type not synced")

	b.availability["room1"].RoomTypeChannexID = strPtr("room-remote")
	n, err := s.SyncAvailability(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	values := remote.availability[0].([]transform.AvailabilityValue)
	assert.Equal(t, "room-remote", values[0].RoomTypeID)
	assert.Equal(t, 4, values[0].Availability)
}

func TestARIInFlightGuard(t *testing.T) {
	s := NewARISyncer(newFakeRemote(), newFakeBackend(), nil, nil)
	require.True(t, s.begin("rates:rp1"))
	defer s.end("rates:rp1")

	_, err := s.SyncRates(context.Background(), "rp1")
	assert.ErrorIs(t, err, ErrSyncInFlight)
}
