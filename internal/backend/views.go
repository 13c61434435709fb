package backend

import (
	"encoding/json"
	"time"
)

// PropertySyncView is the backend's pre-joined view of a property.
type PropertySyncView struct {
	ID           string   `json:"id" hash:"ignore"`
	Title        string   `json:"title"`
	Currency     string   `json:"currency"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	ZipCode      string   `json:"zip_code"`
	Country      string   `json:"country"`
	State        string   `json:"state"`
	City         string   `json:"city"`
	Address      string   `json:"address"`
	Longitude    *Number  `json:"longitude"`
	Latitude     *Number  `json:"latitude"`
	Timezone     string   `json:"timezone"`
	PropertyType string   `json:"property_type"`
	GroupID      *string  `json:"group_id" hash:"ignore"`
	LogoURL      *string  `json:"logo_url" hash:"ignore"`
	Website      *string  `json:"website" hash:"ignore"`
	Content      *Content `json:"content"`

	// Settings are required for create only.
	Settings *PropertySettings `json:"settings" hash:"ignore"`

	ChannexWebhookID *string   `json:"channex_webhook_id" hash:"ignore"`
	UpdatedAt        time.Time `json:"updated_at" hash:"ignore"`
}

// Content is the property description block.
type Content struct {
	Description          string  `json:"description"`
	ImportantInformation string  `json:"important_information" hash:"ignore"`
	Photos               []Photo `json:"photos"`
}

// Photo is one property photo reference.
type Photo struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// PropertySettings are the booking settings sent on property create.
type PropertySettings struct {
	AllowAvailabilityAutoupdateOnConfirmation Flag    `json:"allow_availability_autoupdate_on_confirmation"`
	AllowAvailabilityAutoupdateOnModification Flag    `json:"allow_availability_autoupdate_on_modification"`
	AllowAvailabilityAutoupdateOnCancellation Flag    `json:"allow_availability_autoupdate_on_cancellation"`
	MinStayType                               string  `json:"min_stay_type"`
	MinPrice                                  *Number `json:"min_price"`
	MaxPrice                                  *Number `json:"max_price"`
	StateLength                               int     `json:"state_length"`
	CutOffTime                                string  `json:"cut_off_time"`
	CutOffDays                                int     `json:"cut_off_days"`
}

// RatePlanSyncView is the backend's pre-joined view of a rate plan.
type RatePlanSyncView struct {
	ID                string  `json:"id" hash:"ignore"`
	Title             string  `json:"title"`
	PropertyID        string  `json:"property_id"`
	RoomTypeChannexID *string `json:"room_type_channex_id"`
	ParentRatePlanID  *string `json:"parent_rate_plan_id"`
	TaxSetID          *string `json:"tax_set_id"`
	Currency          string  `json:"currency"`
	SellMode          string  `json:"sell_mode"`
	RateMode          string  `json:"rate_mode"`
	MealType          string  `json:"meal_type"`

	Options    []OccupancyOption `json:"options"`
	DailyRules []DailyRule       `json:"daily_rules"`

	InheritRate               Flag `json:"inherit_rate"`
	InheritClosedToArrival    Flag `json:"inherit_closed_to_arrival"`
	InheritClosedToDeparture  Flag `json:"inherit_closed_to_departure"`
	InheritStopSell           Flag `json:"inherit_stop_sell"`
	InheritMinStayArrival     Flag `json:"inherit_min_stay_arrival"`
	InheritMinStayThrough     Flag `json:"inherit_min_stay_through"`
	InheritMaxStay            Flag `json:"inherit_max_stay"`
	InheritMaxSell            Flag `json:"inherit_max_sell"`
	InheritMaxAvailability    Flag `json:"inherit_max_availability"`
	InheritAvailabilityOffset Flag `json:"inherit_availability_offset"`

	AutoRateSettings json.RawMessage `json:"auto_rate_settings"`

	UpdatedAt time.Time `json:"updated_at" hash:"ignore"`
}

// OccupancyOption is one occupancy-based price option.
type OccupancyOption struct {
	Occupancy int    `json:"occupancy"`
	IsPrimary Flag   `json:"is_primary"`
	Rate      Number `json:"rate"`
}

// DailyRule holds weekday restrictions. Weekday is ISO (1 = Monday ... 7 = Sunday).
type DailyRule struct {
	Weekday           int   `json:"weekday"`
	MaxStay           *int  `json:"max_stay"`
	MinStayArrival    *int  `json:"min_stay_arrival"`
	MinStayThrough    *int  `json:"min_stay_through"`
	ClosedToArrival   *Flag `json:"closed_to_arrival"`
	ClosedToDeparture *Flag `json:"closed_to_departure"`
	StopSell          *Flag `json:"stop_sell"`
}

// TaxSetSyncView is the backend's view of a tax set and its taxes.
type TaxSetSyncView struct {
	ID         string    `json:"id" hash:"ignore"`
	Title      string    `json:"title"`
	PropertyID string    `json:"property_id"`
	Currency   string    `json:"currency"`
	Taxes      []TaxView `json:"taxes"`

	UpdatedAt time.Time `json:"updated_at" hash:"ignore"`
}

// TaxView is one tax referenced by a tax set.
type TaxView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Logic       string  `json:"logic"`
	Type        string  `json:"type"`
	Rate        Number  `json:"rate"`
	IsInclusive Flag    `json:"is_inclusive"`
	Currency    *string `json:"currency"`
	Level       int     `json:"level"`
}

// RatesView lists rate ranges and period rules for one rate plan.
type RatesView struct {
	RatePlanID  string       `json:"rate_plan_id"`
	PropertyID  string       `json:"property_id"`
	Ranges      []RateRange  `json:"ranges"`
	PeriodRules []PeriodRule `json:"period_rules"`
}

// RateRange is a half-open [DateFrom, DateTo) interval with a rate in major units.
type RateRange struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Rate     Number `json:"rate"`
}

// PeriodRule carries restrictions over a date span.
type PeriodRule struct {
	DateFrom          string `json:"date_from"`
	DateTo            string `json:"date_to"`
	StopSell          *Flag  `json:"stop_sell"`
	ClosedToArrival   *Flag  `json:"closed_to_arrival"`
	ClosedToDeparture *Flag  `json:"closed_to_departure"`
	MinStayArrival    *int   `json:"min_stay_arrival"`
	MinStayThrough    *int   `json:"min_stay_through"`
	MaxStay           *int   `json:"max_stay"`
}

// AvailabilityView lists availability ranges for one room type.
type AvailabilityView struct {
	RoomTypeID        string              `json:"room_type_id"`
	RoomTypeChannexID *string             `json:"room_type_channex_id"`
	PropertyID        string              `json:"property_id"`
	Ranges            []AvailabilityRange `json:"ranges"`
}

// AvailabilityRange is a half-open [DateFrom, DateTo) interval with a room count.
type AvailabilityRange struct {
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
	Availability int    `json:"availability"`
}
