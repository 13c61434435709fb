package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/channel-sync/backend/internal/api/middleware"
	"github.com/channel-sync/backend/internal/syncer"
)

// ARIPusher pushes rate and availability batches.
type ARIPusher interface {
	SyncRates(ctx context.Context, ratePlanID string) (int, error)
	SyncAvailability(ctx context.Context, roomTypeID string) (int, error)
}

// ARIResponse reports how many values were pushed.
type ARIResponse struct {
	Kind    string `json:"kind"`
	LocalID string `json:"local_id"`
	Values  int    `json:"values"`
}

// PushRates returns a handler that pushes a rate plan's rates and restrictions.
func PushRates(ari ARIPusher) http.HandlerFunc {
	return pushARI(syncer.KindRates, ari.SyncRates)
}

// PushAvailability returns a handler that pushes a room type's availability.
func PushAvailability(ari ARIPusher) http.HandlerFunc {
	return pushARI(syncer.KindAvailability, ari.SyncAvailability)
}

func pushARI(kind string, push func(context.Context, string) (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		n, err := push(r.Context(), id)
		if err != nil {
			writeSyncError(w, syncer.Status{}, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, ARIResponse{Kind: kind, LocalID: id, Values: n})
	}
}
