package syncer

import (
	"context"

	"github.com/channel-sync/backend/internal/backend"
	"github.com/channel-sync/backend/internal/channex"
	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/transform"
)

// RatePlanAdapter syncs rate plans. The parent property and room type must
// already exist remotely.
type RatePlanAdapter struct {
	api     RatePlanAPI
	backend Backend
	cache   *mapping.Cache
}

func NewRatePlanAdapter(api RatePlanAPI, b Backend, cache *mapping.Cache) *RatePlanAdapter {
	if cache == nil {
		cache = mapping.NewCache(nil)
	}
	return &RatePlanAdapter{api: api, backend: b, cache: cache}
}

func (a *RatePlanAdapter) Kind() mapping.Kind { return mapping.KindRatePlan }

func (a *RatePlanAdapter) Load(ctx context.Context, localID string) (*backend.RatePlanSyncView, error) {
	return a.backend.RatePlanSyncView(ctx, localID)
}

func (a *RatePlanAdapter) Verify(ctx context.Context, remoteID string) error {
	_, err := a.api.GetRatePlan(ctx, remoteID)
	return err
}

func (a *RatePlanAdapter) FindByNaturalKey(ctx context.Context, v *backend.RatePlanSyncView) (string, error) {
	refs := a.refs(ctx, v)
	if refs.PropertyID == "" {
		return "", nil
	}
	list, err := a.api.ListRatePlans(ctx, channex.ListFilter{PropertyID: refs.PropertyID, Title: v.Title})
	if err != nil {
		return "", err
	}
	for _, r := range list {
		if r.Attributes.Title != v.Title {
			continue
		}
		if refs.RoomTypeID != "" && r.Attributes.RoomTypeID != "" && r.Attributes.RoomTypeID != refs.RoomTypeID {
			continue
		}
		return r.ID, nil
	}
	return "", nil
}

func (a *RatePlanAdapter) Create(ctx context.Context, v *backend.RatePlanSyncView) (string, error) {
	payload, err := transform.RatePlanForCreate(v, a.refs(ctx, v))
	if err != nil {
		return "", err
	}
	res, err := a.api.CreateRatePlan(ctx, payload)
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

func (a *RatePlanAdapter) Update(ctx context.Context, remoteID string, v *backend.RatePlanSyncView) error {
	payload, err := transform.RatePlanForUpdate(v, a.refs(ctx, v))
	if err != nil {
		return err
	}
	_, err = a.api.UpdateRatePlan(ctx, remoteID, payload)
	return err
}

// refs resolves linked remote ids through the mapping cache.
func (a *RatePlanAdapter) refs(ctx context.Context, v *backend.RatePlanSyncView) transform.RatePlanRefs {
	var refs transform.RatePlanRefs
	refs.PropertyID, _ = a.cache.Get(ctx, mapping.KindProperty, v.PropertyID)
	if v.RoomTypeChannexID != nil {
		refs.RoomTypeID = *v.RoomTypeChannexID
	}
	if v.ParentRatePlanID != nil {
		refs.ParentRatePlanID, _ = a.cache.Get(ctx, mapping.KindRatePlan, *v.ParentRatePlanID)
	}
	if v.TaxSetID != nil {
		refs.TaxSetID, _ = a.cache.Get(ctx, mapping.KindTaxSet, *v.TaxSetID)
	}
	return refs
}
