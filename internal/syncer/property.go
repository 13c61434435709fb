package syncer

import (
	"context"
	"errors"
	"log"

	"github.com/channel-sync/backend/internal/backend"
	"github.com/channel-sync/backend/internal/channex"
	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/transform"
)

// PropertyAdapter syncs properties.
type PropertyAdapter struct {
	api      PropertyAPI
	backend  Backend
	webhooks *WebhookReconciler
}

// NewPropertyAdapter creates the property adapter. webhooks may be nil.
func NewPropertyAdapter(api PropertyAPI, b Backend, webhooks *WebhookReconciler) *PropertyAdapter {
	return &PropertyAdapter{api: api, backend: b, webhooks: webhooks}
}

func (a *PropertyAdapter) Kind() mapping.Kind { return mapping.KindProperty }

func (a *PropertyAdapter) Load(ctx context.Context, localID string) (*backend.PropertySyncView, error) {
	return a.backend.PropertySyncView(ctx, localID)
}

func (a *PropertyAdapter) Verify(ctx context.Context, remoteID string) error {
	_, err := a.api.GetProperty(ctx, remoteID)
	return err
}

func (a *PropertyAdapter) FindByNaturalKey(ctx context.Context, v *backend.PropertySyncView) (string, error) {
	list, err := a.api.ListProperties(ctx, channex.ListFilter{Title: v.Title})
	if err != nil {
		return "", err
	}
	for _, r := range list {
		if r.Attributes.Title == v.Title {
			return r.ID, nil
		}
	}
	return "", nil
}

// Create sends the create payload. A 422 attributable to an optional URL field
// is retried exactly once without that field.
func (a *PropertyAdapter) Create(ctx context.Context, v *backend.PropertySyncView) (string, error) {
	payload, err := transform.PropertyForCreate(v)
	if err != nil {
		return "", err
	}

	res, err := a.api.CreateProperty(ctx, payload)
	if err == nil {
		return res.ID, nil
	}

	var verr *channex.ValidationError
	if !errors.As(err, &verr) {
		return "", err
	}
	var stripped []string
	for _, field := range transform.RetryableFields {
		if verr.HasField(field) && payload.StripField(field) {
			stripped = append(stripped, field)
		}
	}
	if len(stripped) == 0 {
		return "", err
	}

	log.Printf("Property %s rejected on %v, retrying without them", v.ID, stripped)
	res, err = a.api.CreateProperty(ctx, payload)
	if err != nil {
		return "", &RetriedError{Stripped: stripped, Err: err}
	}
	return res.ID, nil
}

func (a *PropertyAdapter) Update(ctx context.Context, remoteID string, v *backend.PropertySyncView) error {
	_, err := a.api.UpdateProperty(ctx, remoteID, transform.PropertyForUpdate(v))
	return err
}

// AfterSync reconciles the property's webhook. Failures never fail the sync.
func (a *PropertyAdapter) AfterSync(ctx context.Context, localID, remoteID string, v *backend.PropertySyncView) {
	if a.webhooks == nil {
		return
	}
	if _, err := a.webhooks.Reconcile(ctx, localID, remoteID, v.ChannexWebhookID); err != nil {
		log.Printf("Webhook reconciliation failed for property %s: %v", localID, err)
	}
}
