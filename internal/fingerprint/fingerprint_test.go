package fingerprint

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channel-sync/backend/internal/backend"
)

type propertyFields struct {
	Title     string
	Currency  string
	Timezone  string
	City      string
	UpdatedAt time.Time `hash:"ignore"`
}

func TestComputeIgnoresVolatileFields(t *testing.T) {
	a := propertyFields{Title: "Sea View", Currency: "EUR", Timezone: "Europe/Lisbon", UpdatedAt: time.Unix(1, 0)}
	b := a
	b.UpdatedAt = time.Unix(999, 0)

	fa, err := Compute(a)
	require.NoError(t, err)
	fb, err := Compute(b)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.NotEmpty(t, fa)
}

func TestComputeDetectsRelevantChange(t *testing.T) {
	a := propertyFields{Title: "Sea View", Currency: "EUR"}
	b := propertyFields{Title: "Sea View", Currency: "USD"}

	fa, _ := Compute(a)
	fb, _ := Compute(b)
	assert.NotEqual(t, fa, fb)

	ra := backend.RatePlanSyncView{ID: "rp1", RateMode: "auto", AutoRateSettings: json.RawMessage(`{"increase_by":10}`)}
	rb := ra
	rb.AutoRateSettings = json.RawMessage(`{"increase_by":25}`)

	fa, err := Compute(ra)
	require.NoError(t, err)
	fb, err = Compute(rb)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb, "auto rate settings are sent on the wire")
	assert.Equal(t, ActionUpdate, Decide(fa, fb, false))
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		current  string
		inFlight bool
		want     Action
	}{
		{"first observation", "", "abc", false, ActionNone},
		{"unchanged", "abc", "abc", false, ActionNone},
		{"changed", "abc", "def", false, ActionUpdate},
		{"changed while in flight", "abc", "def", true, ActionNone},
		{"current unavailable", "abc", "", false, ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.previous, tt.current, tt.inFlight))
		})
	}
}

func TestTrackerObserve(t *testing.T) {
	var tr Tracker

	assert.Equal(t, ActionNone, tr.Observe("v1", false), "first observation never syncs")
	assert.Equal(t, ActionNone, tr.Observe("v1", false))
	assert.Equal(t, ActionUpdate, tr.Observe("v2", false))
	assert.Equal(t, ActionNone, tr.Observe("v3", true), "in-flight sync suppresses the trigger")
	assert.Equal(t, "v3", tr.Previous())
	assert.Equal(t, ActionNone, tr.Observe("", false))
	assert.Equal(t, "v3", tr.Previous(), "a failed fetch keeps the last fingerprint")

	tr.Reset()
	assert.Equal(t, ActionNone, tr.Observe("v4", false))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "none", ActionNone.String())
	assert.Equal(t, "create", ActionCreate.String())
	assert.Equal(t, "update", ActionUpdate.String())
}
