package transform

import (
	"math"
	"time"

	"github.com/channel-sync/backend/internal/backend"
)

const dateLayout = "2006-01-02"

// MinorUnits converts a major-unit amount to rounded minor units.
func MinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

// RestrictionValue is one rate/restriction batch entry.
type RestrictionValue struct {
	PropertyID        string `json:"property_id"`
	RatePlanID        string `json:"rate_plan_id"`
	DateFrom          string `json:"date_from"`
	DateTo            string `json:"date_to"`
	Rate              int64  `json:"rate"`
	StopSell          *bool  `json:"stop_sell,omitempty"`
	ClosedToArrival   *bool  `json:"closed_to_arrival,omitempty"`
	ClosedToDeparture *bool  `json:"closed_to_departure,omitempty"`
	MinStayArrival    *int   `json:"min_stay_arrival,omitempty"`
	MinStayThrough    *int   `json:"min_stay_through,omitempty"`
	MaxStay           *int   `json:"max_stay,omitempty"`
}

// AvailabilityValue is one availability batch entry.
type AvailabilityValue struct {
	PropertyID   string `json:"property_id"`
	RoomTypeID   string `json:"room_type_id"`
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
	Availability int    `json:"availability"`
}

// RestrictionValues converts rate ranges and merges the first overlapping period rule.
func RestrictionValues(v *backend.RatesView, propertyID, ratePlanID string) []RestrictionValue {
	out := make([]RestrictionValue, 0, len(v.Ranges))
	for _, r := range v.Ranges {
		val := RestrictionValue{
			PropertyID: propertyID,
			RatePlanID: ratePlanID,
			DateFrom:   r.DateFrom,
			DateTo:     r.DateTo,
			Rate:       MinorUnits(r.Rate.Float()),
		}
		if rule := MatchPeriodRule(r.DateFrom, r.DateTo, v.PeriodRules); rule != nil {
			val.StopSell = flagPtr(rule.StopSell)
			val.ClosedToArrival = flagPtr(rule.ClosedToArrival)
			val.ClosedToDeparture = flagPtr(rule.ClosedToDeparture)
			val.MinStayArrival = rule.MinStayArrival
			val.MinStayThrough = rule.MinStayThrough
			val.MaxStay = rule.MaxStay
		}
		out = append(out, val)
	}
	return out
}

// AvailabilityValues converts availability ranges. Negative counts are sent as zero.
func AvailabilityValues(v *backend.AvailabilityView, propertyID, roomTypeID string) []AvailabilityValue {
	out := make([]AvailabilityValue, 0, len(v.Ranges))
	for _, r := range v.Ranges {
		out = append(out, AvailabilityValue{
			PropertyID:   propertyID,
			RoomTypeID:   roomTypeID,
			DateFrom:     r.DateFrom,
			DateTo:       r.DateTo,
			Availability: max(0, r.Availability),
		})
	}
	return out
}

// MatchPeriodRule returns the first rule whose span overlaps [from, to],
// both ends inclusive. Unparseable dates never match.
func MatchPeriodRule(from, to string, rules []backend.PeriodRule) *backend.PeriodRule {
	start, err1 := time.Parse(dateLayout, from)
	end, err2 := time.Parse(dateLayout, to)
	if err1 != nil || err2 != nil {
		return nil
	}
	for i := range rules {
		ruleStart, err1 := time.Parse(dateLayout, rules[i].DateFrom)
		ruleEnd, err2 := time.Parse(dateLayout, rules[i].DateTo)
		if err1 != nil || err2 != nil {
			continue
		}
		if overlaps(start, end, ruleStart, ruleEnd) {
			return &rules[i]
		}
	}
	return nil
}

func overlaps(start, end, ruleStart, ruleEnd time.Time) bool {
	within := func(t time.Time) bool {
		return !t.Before(ruleStart) && !t.After(ruleEnd)
	}
	return within(start) || within(end) ||
		(!start.After(ruleStart) && !end.Before(ruleEnd))
}

func flagPtr(f *backend.Flag) *bool {
	if f == nil {
		return nil
	}
	b := f.Bool()
	return &b
}
