package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/channel-sync/backend/internal/api/middleware"
	"github.com/channel-sync/backend/internal/scheduler"
)

// Reconciler runs one drift reconciliation pass.
type Reconciler interface {
	RunOnce(ctx context.Context) (*scheduler.Pass, error)
}

// Reconcile returns a handler that runs a reconciliation pass now.
func Reconcile(rec Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pass, err := rec.RunOnce(r.Context())
		if errors.Is(err, scheduler.ErrPassRunning) {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, err.Error())
			return
		}
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, err.Error())
			return
		}
		middleware.WriteJSON(w, http.StatusOK, pass)
	}
}
