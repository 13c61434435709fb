package syncer

import (
	"context"

	"github.com/channel-sync/backend/internal/backend"
	"github.com/channel-sync/backend/internal/channex"
)

// PropertyAPI is the remote surface used for properties.
type PropertyAPI interface {
	GetProperty(ctx context.Context, id string) (*channex.Resource, error)
	ListProperties(ctx context.Context, f channex.ListFilter) ([]channex.Resource, error)
	CreateProperty(ctx context.Context, payload any) (*channex.Resource, error)
	UpdateProperty(ctx context.Context, id string, payload any) (*channex.Resource, error)
}

// WebhookAPI is the remote surface used for webhook reconciliation.
type WebhookAPI interface {
	ListWebhooks(ctx context.Context, propertyID string) ([]channex.Resource, error)
	CreateWebhook(ctx context.Context, payload any) (*channex.Resource, error)
	UpdateWebhook(ctx context.Context, id string, payload any) (*channex.Resource, error)
}

// RatePlanAPI is the remote surface used for rate plans.
type RatePlanAPI interface {
	GetRatePlan(ctx context.Context, id string) (*channex.Resource, error)
	ListRatePlans(ctx context.Context, f channex.ListFilter) ([]channex.Resource, error)
	CreateRatePlan(ctx context.Context, payload any) (*channex.Resource, error)
	UpdateRatePlan(ctx context.Context, id string, payload any) (*channex.Resource, error)
}

// TaxSetAPI is the remote surface used for tax sets and their taxes.
type TaxSetAPI interface {
	ListTaxes(ctx context.Context, f channex.ListFilter) ([]channex.Resource, error)
	CreateTax(ctx context.Context, payload any) (*channex.Resource, error)
	GetTaxSet(ctx context.Context, id string) (*channex.Resource, error)
	ListTaxSets(ctx context.Context, f channex.ListFilter) ([]channex.Resource, error)
	CreateTaxSet(ctx context.Context, payload any) (*channex.Resource, error)
	UpdateTaxSet(ctx context.Context, id string, payload any) (*channex.Resource, error)
}

// ARIAPI pushes rate and availability batches.
type ARIAPI interface {
	UpdateRestrictions(ctx context.Context, values any) error
	UpdateAvailability(ctx context.Context, values any) error
}

// ChannexAPI is the full remote surface; *channex.Client implements it.
type ChannexAPI interface {
	PropertyAPI
	WebhookAPI
	RatePlanAPI
	TaxSetAPI
	ARIAPI
}

// Backend is the local backend surface; *backend.Client implements it.
type Backend interface {
	PropertySyncView(ctx context.Context, propertyID string) (*backend.PropertySyncView, error)
	RatePlanSyncView(ctx context.Context, ratePlanID string) (*backend.RatePlanSyncView, error)
	TaxSetSyncView(ctx context.Context, taxSetID string) (*backend.TaxSetSyncView, error)
	RatesView(ctx context.Context, ratePlanID string) (*backend.RatesView, error)
	AvailabilityView(ctx context.Context, roomTypeID string) (*backend.AvailabilityView, error)
	SetPropertyWebhookID(ctx context.Context, propertyID, webhookID string) error
}

// StateRecorder journals orchestrator transitions. Errors are logged and ignored.
type StateRecorder interface {
	RecordSyncState(ctx context.Context, s Status) error
}

// Notifier is told about finished syncs.
type Notifier interface {
	SyncCompleted(s Status)
	SyncFailed(s Status)
}
