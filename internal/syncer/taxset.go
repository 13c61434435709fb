package syncer

import (
	"context"
	"log"

	"github.com/channel-sync/backend/internal/backend"
	"github.com/channel-sync/backend/internal/channex"
	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/transform"
)

// TaxSetAdapter syncs tax sets, creating missing taxes first.
type TaxSetAdapter struct {
	api     TaxSetAPI
	backend Backend
	cache   *mapping.Cache
}

func NewTaxSetAdapter(api TaxSetAPI, b Backend, cache *mapping.Cache) *TaxSetAdapter {
	if cache == nil {
		cache = mapping.NewCache(nil)
	}
	return &TaxSetAdapter{api: api, backend: b, cache: cache}
}

func (a *TaxSetAdapter) Kind() mapping.Kind { return mapping.KindTaxSet }

func (a *TaxSetAdapter) Load(ctx context.Context, localID string) (*backend.TaxSetSyncView, error) {
	return a.backend.TaxSetSyncView(ctx, localID)
}

func (a *TaxSetAdapter) Verify(ctx context.Context, remoteID string) error {
	_, err := a.api.GetTaxSet(ctx, remoteID)
	return err
}

func (a *TaxSetAdapter) FindByNaturalKey(ctx context.Context, v *backend.TaxSetSyncView) (string, error) {
	propertyID, ok := a.cache.Get(ctx, mapping.KindProperty, v.PropertyID)
	if !ok {
		return "", nil
	}
	list, err := a.api.ListTaxSets(ctx, channex.ListFilter{PropertyID: propertyID, Title: v.Title})
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

func (a *TaxSetAdapter) Create(ctx context.Context, v *backend.TaxSetSyncView) (string, error) {
	propertyID, taxIDs, err := a.prepare(ctx, v)
	if err != nil {
		return "", err
	}
	res, err := a.api.CreateTaxSet(ctx, transform.TaxSetForCreate(v, propertyID, taxIDs))
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

func (a *TaxSetAdapter) Update(ctx context.Context, remoteID string, v *backend.TaxSetSyncView) error {
	_, taxIDs, err := a.prepare(ctx, v)
	if err != nil {
		return err
	}
	_, err = a.api.UpdateTaxSet(ctx, remoteID, transform.TaxSetForUpdate(v, taxIDs))
	return err
}

// prepare validates every tax, then makes sure each one exists remotely.
// Taxes that cannot be created are left out of the set for a later pass.
func (a *TaxSetAdapter) prepare(ctx context.Context, v *backend.TaxSetSyncView) (string, map[string]string, error) {
	if err := transform.ValidateTaxes(v.Taxes); err != nil {
		return "", nil, err
	}
	propertyID, ok := a.cache.Get(ctx, mapping.KindProperty, v.PropertyID)
	if !ok {
		return "", nil, &PreconditionError{Entity: "tax set", Field: "property", Reason: "must be synced first"}
	}

	taxIDs := make(map[string]string, len(v.Taxes))
	for _, t := range v.Taxes {
		id, err := a.ensureTax(ctx, t, propertyID)
		if err != nil {
			log.Printf("Tax %s (%s) left out of tax set %s: %v", t.ID, t.Title, v.ID, err)
			continue
		}
		taxIDs[t.ID] = id
	}
	return propertyID, taxIDs, nil
}

func (a *TaxSetAdapter) ensureTax(ctx context.Context, t backend.TaxView, propertyID string) (string, error) {
	if id, ok := a.cache.Get(ctx, mapping.KindTax, t.ID); ok {
		return id, nil
	}

	list, err := a.api.ListTaxes(ctx, channex.ListFilter{PropertyID: propertyID, Title: t.Title})
	if err != nil {
		return "", err
	}
	for _, r := range list {
		if r.Attributes.Title == t.Title {
			a.cache.Set(ctx, mapping.KindTax, t.ID, r.ID)
			return r.ID, nil
		}
	}

	payload, err := transform.TaxForCreate(t, propertyID)
	if err != nil {
		return "", err
	}
	res, err := a.api.CreateTax(ctx, payload)
	if err != nil {
		return "", err
	}
	a.cache.Set(ctx, mapping.KindTax, t.ID, res.ID)
	return res.ID, nil
}
