// Package metrics exposes Prometheus counters for sync and webhook ingestion.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeDropped  = "dropped"
	OutcomeRejected = "rejected"
)

var (
	syncOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_sync_operations_total",
		Help: "Sync orchestrator operations by entity kind, action and outcome.",
	}, []string{"kind", "action", "outcome"})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_sync_webhook_events_total",
		Help: "Inbound webhook envelopes by event type and outcome.",
	}, []string{"event_type", "outcome"})

	subEntityFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_sync_webhook_subentity_failures_total",
		Help: "Swallowed attachment/score creation failures.",
	}, []string{"event_type"})

	mappingStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_sync_mapping_store_errors_total",
		Help: "Identifier mapping store failures treated as cache misses.",
	}, []string{"op"})
)

// RecordSync counts one orchestrator operation.
func RecordSync(kind, action, outcome string) {
	syncOperations.WithLabelValues(kind, action, outcome).Inc()
}

// RecordWebhook counts one ingested or rejected envelope.
func RecordWebhook(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordSubEntityFailure counts a swallowed attachment or score failure.
func RecordSubEntityFailure(eventType string) {
	subEntityFailures.WithLabelValues(eventType).Inc()
}

// RecordMappingStoreError counts a mapping store failure.
func RecordMappingStoreError(op string) {
	mappingStoreErrors.WithLabelValues(op).Inc()
}
