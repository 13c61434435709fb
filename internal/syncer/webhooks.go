package syncer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/channel-sync/backend/internal/mapping"
)

// WebhookPayload registers the ingestion callback for one remote property.
type WebhookPayload struct {
	PropertyID  string `json:"property_id"`
	CallbackURL string `json:"callback_url"`
	EventMask   string `json:"event_mask"`
	IsActive    bool   `json:"is_active"`
	SendData    bool   `json:"send_data"`
}

// WebhookReconciler keeps exactly one remote webhook per property pointing at
// our callback URL.
type WebhookReconciler struct {
	api         WebhookAPI
	backend     Backend
	cache       *mapping.Cache
	callbackURL string
	eventMask   string
}

// NewWebhookReconciler creates a reconciler.
func NewWebhookReconciler(api WebhookAPI, b Backend, cache *mapping.Cache, callbackURL, eventMask string) *WebhookReconciler {
	if eventMask == "" {
		eventMask = "*"
	}
	if cache == nil {
		cache = mapping.NewCache(nil)
	}
	return &WebhookReconciler{
		api:         api,
		backend:     b,
		cache:       cache,
		callbackURL: callbackURL,
		eventMask:   eventMask,
	}
}

// Reconcile resolves the webhook id from, in order, the local property record,
// the mapping cache and a remote listing, then updates or creates it. The
// resulting id is written back to the property and mirrored in the cache.
func (r *WebhookReconciler) Reconcile(ctx context.Context, localPropertyID, remotePropertyID string, localWebhookID *string) (string, error) {
	id, source, err := r.resolve(ctx, remotePropertyID, localWebhookID)
	if err != nil {
		return "", err
	}

	payload := WebhookPayload{
		PropertyID:  remotePropertyID,
		CallbackURL: r.callbackURL,
		EventMask:   r.eventMask,
		IsActive:    true,
		SendData:    true,
	}

	if id != "" {
		_, err = r.api.UpdateWebhook(ctx, id, payload)
		if isRemoteNotFound(err) {
			log.Printf("Webhook %s from %s is gone, creating a new one", id, source)
			id = ""
		} else if err != nil {
			return "", fmt.Errorf("updating webhook %s: %w", id, err)
		}
	}
	if id == "" {
		res, err := r.api.CreateWebhook(ctx, payload)
		if err != nil {
			return "", fmt.Errorf("creating webhook: %w", err)
		}
		id = res.ID
	}

	if localWebhookID == nil || *localWebhookID != id {
		if err := r.backend.SetPropertyWebhookID(ctx, localPropertyID, id); err != nil {
			log.Printf("Failed to persist webhook %s on property %s: %v", id, localPropertyID, err)
		}
	}
	r.cache.Set(ctx, mapping.KindWebhook, remotePropertyID, id)
	return id, nil
}

func (r *WebhookReconciler) resolve(ctx context.Context, remotePropertyID string, localWebhookID *string) (string, string, error) {
	if localWebhookID != nil && strings.TrimSpace(*localWebhookID) != "" {
		return *localWebhookID, "property record", nil
	}
	if id, ok := r.cache.Get(ctx, mapping.KindWebhook, remotePropertyID); ok {
		return id, "mapping cache", nil
	}

	hooks, err := r.api.ListWebhooks(ctx, remotePropertyID)
	if err != nil {
		return "", "", fmt.Errorf("listing webhooks: %w", err)
	}
	for _, h := range hooks {
		if h.Attributes.CallbackURL == r.callbackURL {
			return h.ID, "remote listing", nil
		}
	}
	if len(hooks) > 0 {
		return hooks[0].ID, "remote listing", nil
	}
	return "", "", nil
}
