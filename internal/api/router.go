// Package api provides HTTP routing for the sync service.
package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/channel-sync/backend/internal/api/handlers"
	"github.com/channel-sync/backend/internal/api/middleware"
	"github.com/channel-sync/backend/internal/websocket"
)

// Services are the components the routes dispatch to. Hub and Scheduler
// may be nil.
type Services struct {
	DB         handlers.Pinger
	Hub        *websocket.Hub
	Ingester   handlers.Ingester
	Engine     handlers.SyncEngine
	ARI        handlers.ARIPusher
	Reconciler handlers.Reconciler
	Scheduler  handlers.NextRunner
}

// NewRouter creates the HTTP router with every API route.
func NewRouter(s Services) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck(s.DB, s.Hub, s.Scheduler)).Methods("GET")
	if s.Hub != nil {
		api.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub)).Methods("GET")
	}

	// Inbound channel-manager events
	api.HandleFunc("/webhooks/channex", handlers.ReceiveWebhook(s.Ingester)).Methods("POST")

	// Outbound sync
	api.HandleFunc("/sync/{kind}/{id}", handlers.CheckSync(s.Engine)).Methods("GET")
	api.HandleFunc("/sync/{kind}/{id}", handlers.RunSync(s.Engine)).Methods("POST")
	api.HandleFunc("/ari/rate-plans/{id}/rates", handlers.PushRates(s.ARI)).Methods("POST")
	api.HandleFunc("/ari/room-types/{id}/availability", handlers.PushAvailability(s.ARI)).Methods("POST")
	if s.Reconciler != nil {
		api.HandleFunc("/reconcile", handlers.Reconcile(s.Reconciler)).Methods("POST")
	}

	return r
}
