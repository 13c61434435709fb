package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/channel-sync/backend/internal/api/middleware"
	"github.com/channel-sync/backend/internal/webhook"
)

// maxEnvelopeBytes caps an inbound webhook body.
const maxEnvelopeBytes = 4 << 20

// Ingester normalizes one raw envelope.
type Ingester interface {
	Ingest(ctx context.Context, data []byte) (*webhook.Result, error)
}

// ReceiveWebhook returns the channel-manager webhook endpoint.
func ReceiveWebhook(ingester Ingester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Could not read request body")
			return
		}

		result, err := ingester.Ingest(r.Context(), body)
		switch {
		case errors.Is(err, webhook.ErrInvalidEnvelope):
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
		case err != nil:
			log.Printf("Webhook ingestion failed: %v", err)
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to store webhook event")
		default:
			middleware.WriteJSON(w, http.StatusCreated, result)
		}
	}
}
