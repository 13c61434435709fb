package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertySyncViewDecodesTolerantScalars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/properties/p1/sync-view", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "p1",
			"title": "Harbour Loft",
			"currency": "EUR",
			"latitude": "38.7223",
			"settings": {
				"allow_availability_autoupdate_on_confirmation": 1,
				"allow_availability_autoupdate_on_modification": "0",
				"allow_availability_autoupdate_on_cancellation": true,
				"min_price": "10.5",
				"max_price": 900
			}
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", "secret", time.Second)
	view, err := c.PropertySyncView(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "Harbour Loft", view.Title)
	require.NotNil(t, view.Latitude)
	assert.InDelta(t, 38.7223, view.Latitude.Float(), 1e-9)
	require.NotNil(t, view.Settings)
	assert.True(t, view.Settings.AllowAvailabilityAutoupdateOnConfirmation.Bool())
	assert.False(t, view.Settings.AllowAvailabilityAutoupdateOnModification.Bool())
	assert.True(t, view.Settings.AllowAvailabilityAutoupdateOnCancellation.Bool())
	assert.InDelta(t, 10.5, view.Settings.MinPrice.Float(), 1e-9)
	assert.InDelta(t, 900, view.Settings.MaxPrice.Float(), 1e-9)
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.RatePlanSyncView(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRatePlanSyncViewCompactsAutoRateSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "rp1", "rate_mode": "auto", "auto_rate_settings": { "increase_by" : 10 }}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	view, err := c.RatePlanSyncView(context.Background(), "rp1")
	require.NoError(t, err)
	assert.Equal(t, `{"increase_by":10}`, string(view.AutoRateSettings))
}

func TestServerErrorIsOpaque(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.TaxSetSyncView(context.Background(), "ts1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "status 502")
}

func TestSetPropertyWebhookID(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/properties/p1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	require.NoError(t, c.SetPropertyWebhookID(context.Background(), "p1", "hook-9"))
	assert.Equal(t, map[string]string{"channex_webhook_id": "hook-9"}, got)
}

func TestFlagRejectsGarbage(t *testing.T) {
	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &f))
	require.NoError(t, json.Unmarshal([]byte(`"1"`), &f))
	assert.True(t, f.Bool())
}
