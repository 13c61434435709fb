package transform

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/channel-sync/backend/internal/backend"
)

// Weekday restriction defaults: max stay 0 means unlimited, min stays default to one night.
const (
	DefaultMaxStay        = 0
	DefaultMinStayArrival = 1
	DefaultMinStayThrough = 1
)

// WeekdayRestrictions are Monday-indexed seven-slot arrays.
type WeekdayRestrictions struct {
	MaxStay           [7]int  `json:"max_stay"`
	MinStayArrival    [7]int  `json:"min_stay_arrival"`
	MinStayThrough    [7]int  `json:"min_stay_through"`
	ClosedToArrival   [7]bool `json:"closed_to_arrival"`
	ClosedToDeparture [7]bool `json:"closed_to_departure"`
	StopSell          [7]bool `json:"stop_sell"`
}

// InheritFlags link restriction values to the parent rate plan.
type InheritFlags struct {
	InheritRate               bool `json:"inherit_rate"`
	InheritClosedToArrival    bool `json:"inherit_closed_to_arrival"`
	InheritClosedToDeparture  bool `json:"inherit_closed_to_departure"`
	InheritStopSell           bool `json:"inherit_stop_sell"`
	InheritMinStayArrival     bool `json:"inherit_min_stay_arrival"`
	InheritMinStayThrough     bool `json:"inherit_min_stay_through"`
	InheritMaxStay            bool `json:"inherit_max_stay"`
	InheritMaxSell            bool `json:"inherit_max_sell"`
	InheritMaxAvailability    bool `json:"inherit_max_availability"`
	InheritAvailabilityOffset bool `json:"inherit_availability_offset"`
}

// Any reports whether at least one flag is set.
func (f InheritFlags) Any() bool {
	return f != InheritFlags{}
}

// RatePlanOption is one occupancy price option.
type RatePlanOption struct {
	Occupancy int     `json:"occupancy"`
	IsPrimary bool    `json:"is_primary"`
	Rate      float64 `json:"rate"`
}

// RatePlanPayload is used for both create and update. PropertyID, RoomTypeID
// and TaxSetID are blank on update and omitted from the wire.
type RatePlanPayload struct {
	Title            string           `json:"title"`
	PropertyID       string           `json:"property_id,omitempty"`
	RoomTypeID       string           `json:"room_type_id,omitempty"`
	ParentRatePlanID *string          `json:"parent_rate_plan_id,omitempty"`
	TaxSetID         *string          `json:"tax_set_id,omitempty"`
	Currency         string           `json:"currency,omitempty"`
	SellMode         string           `json:"sell_mode,omitempty"`
	RateMode         string           `json:"rate_mode,omitempty"`
	MealType         string           `json:"meal_type,omitempty"`
	Options          []RatePlanOption `json:"options"`
	WeekdayRestrictions
	InheritFlags

	// AutoRateSettings is always present on the wire; nil encodes as null.
	AutoRateSettings json.RawMessage `json:"auto_rate_settings"`
}

// RatePlanRefs are the remote ids resolved through the mapping cache.
// Empty means unresolved.
type RatePlanRefs struct {
	PropertyID       string
	RoomTypeID       string
	ParentRatePlanID string
	TaxSetID         string
}

// RatePlanForCreate builds the create payload.
func RatePlanForCreate(v *backend.RatePlanSyncView, refs RatePlanRefs) (*RatePlanPayload, error) {
	if refs.PropertyID == "" {
		return nil, precondition("rate plan", "property", "must be synced first")
	}
	if refs.RoomTypeID == "" {
		return nil, precondition("rate plan", "room type", "must be synced first")
	}
	p, err := ratePlan(v, refs)
	if err != nil {
		return nil, err
	}
	p.PropertyID = refs.PropertyID
	p.RoomTypeID = refs.RoomTypeID
	if refs.TaxSetID != "" {
		id := refs.TaxSetID
		p.TaxSetID = &id
	}
	return p, nil
}

// RatePlanForUpdate builds the update payload. Linkage to property, room type
// and tax set cannot change remotely and is not sent.
func RatePlanForUpdate(v *backend.RatePlanSyncView, refs RatePlanRefs) (*RatePlanPayload, error) {
	return ratePlan(v, refs)
}

func ratePlan(v *backend.RatePlanSyncView, refs RatePlanRefs) (*RatePlanPayload, error) {
	if len(v.Options) == 0 {
		return nil, precondition("rate plan", "options", "must contain at least one occupancy option")
	}

	p := &RatePlanPayload{
		Title:               v.Title,
		Currency:            v.Currency,
		SellMode:            v.SellMode,
		RateMode:            v.RateMode,
		MealType:            v.MealType,
		Options:             ratePlanOptions(v.Options),
		WeekdayRestrictions: BuildWeekdayRestrictions(v.DailyRules),
		InheritFlags:        inheritFlags(v, refs.ParentRatePlanID != ""),
	}
	if refs.ParentRatePlanID != "" {
		id := refs.ParentRatePlanID
		p.ParentRatePlanID = &id
	}
	if v.RateMode == "auto" && hasSettings(v.AutoRateSettings) {
		p.AutoRateSettings = v.AutoRateSettings
	}
	return p, nil
}

// BuildWeekdayRestrictions overlays per-weekday rules onto the defaults.
// Weekday is ISO numbered; rules outside 1..7 are ignored.
func BuildWeekdayRestrictions(rules []backend.DailyRule) WeekdayRestrictions {
	var w WeekdayRestrictions
	for i := 0; i < 7; i++ {
		w.MaxStay[i] = DefaultMaxStay
		w.MinStayArrival[i] = DefaultMinStayArrival
		w.MinStayThrough[i] = DefaultMinStayThrough
	}

	for _, r := range rules {
		if r.Weekday < 1 || r.Weekday > 7 {
			continue
		}
		i := r.Weekday - 1
		if r.MaxStay != nil {
			w.MaxStay[i] = *r.MaxStay
		}
		if r.MinStayArrival != nil {
			w.MinStayArrival[i] = *r.MinStayArrival
		}
		if r.MinStayThrough != nil {
			w.MinStayThrough[i] = *r.MinStayThrough
		}
		if r.ClosedToArrival != nil {
			w.ClosedToArrival[i] = r.ClosedToArrival.Bool()
		}
		if r.ClosedToDeparture != nil {
			w.ClosedToDeparture[i] = r.ClosedToDeparture.Bool()
		}
		if r.StopSell != nil {
			w.StopSell[i] = r.StopSell.Bool()
		}
	}
	return w
}

// inheritFlags copies the stored flags only when a parent is resolvable;
// without one the remote API rejects any true value.
func inheritFlags(v *backend.RatePlanSyncView, hasParent bool) InheritFlags {
	if !hasParent {
		return InheritFlags{}
	}
	return InheritFlags{
		InheritRate:               v.InheritRate.Bool(),
		InheritClosedToArrival:    v.InheritClosedToArrival.Bool(),
		InheritClosedToDeparture:  v.InheritClosedToDeparture.Bool(),
		InheritStopSell:           v.InheritStopSell.Bool(),
		InheritMinStayArrival:     v.InheritMinStayArrival.Bool(),
		InheritMinStayThrough:     v.InheritMinStayThrough.Bool(),
		InheritMaxStay:            v.InheritMaxStay.Bool(),
		InheritMaxSell:            v.InheritMaxSell.Bool(),
		InheritMaxAvailability:    v.InheritMaxAvailability.Bool(),
		InheritAvailabilityOffset: v.InheritAvailabilityOffset.Bool(),
	}
}

func ratePlanOptions(in []backend.OccupancyOption) []RatePlanOption {
	out := make([]RatePlanOption, len(in))
	for i, o := range in {
		out[i] = RatePlanOption{
			Occupancy: o.Occupancy,
			IsPrimary: o.IsPrimary.Bool(),
			Rate:      math.Max(0, o.Rate.Float()),
		}
	}
	return out
}

func hasSettings(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) &&
		!bytes.Equal(trimmed, []byte("{}"))
}
