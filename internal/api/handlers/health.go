// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/channel-sync/backend/internal/api/middleware"
	"github.com/channel-sync/backend/internal/websocket"
)

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string     `json:"status"`
	DBConnected bool       `json:"db_connected"`
	WSClients   int        `json:"ws_clients"`
	NextRun     *time.Time `json:"next_reconcile_at,omitempty"`
}

// NextRunner exposes the next scheduled reconciliation.
type NextRunner interface {
	NextRun() *time.Time
}

// HealthCheck returns a handler that performs a health check. hub and
// sched may be nil.
func HealthCheck(db Pinger, hub *websocket.Hub, sched NextRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:      "healthy",
			DBConnected: db.PingContext(r.Context()) == nil,
		}
		if hub != nil {
			resp.WSClients = hub.ClientCount()
		}
		if sched != nil {
			resp.NextRun = sched.NextRun()
		}

		status := http.StatusOK
		if !resp.DBConnected {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		middleware.WriteJSON(w, status, resp)
	}
}
