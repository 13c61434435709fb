package transform

import (
	"strings"

	"github.com/channel-sync/backend/internal/backend"
)

// LogicPercent is the only tax logic that does not need a currency.
const LogicPercent = "percent"

// TaxPayload creates a single tax.
type TaxPayload struct {
	Title       string  `json:"title"`
	PropertyID  string  `json:"property_id"`
	Logic       string  `json:"logic"`
	Type        string  `json:"type"`
	Rate        float64 `json:"rate"`
	IsInclusive bool    `json:"is_inclusive"`
	Currency    *string `json:"currency,omitempty"`
}

// TaxRef references a remote tax inside a tax set.
type TaxRef struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// TaxSetPayload is used for create and update; PropertyID is blank on update.
type TaxSetPayload struct {
	Title      string   `json:"title"`
	PropertyID string   `json:"property_id,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	Taxes      []TaxRef `json:"taxes"`
}

// ValidateTaxes checks every tax before anything is sent.
func ValidateTaxes(taxes []backend.TaxView) error {
	for _, t := range taxes {
		if t.Logic != LogicPercent && taxCurrency(t) == "" {
			return precondition("tax "+t.Title, "currency", "is required when logic is "+t.Logic)
		}
	}
	return nil
}

// TaxForCreate builds a tax payload under the given remote property.
func TaxForCreate(t backend.TaxView, propertyID string) (*TaxPayload, error) {
	p := &TaxPayload{
		Title:       t.Title,
		PropertyID:  propertyID,
		Logic:       t.Logic,
		Type:        t.Type,
		Rate:        t.Rate.Float(),
		IsInclusive: t.IsInclusive.Bool(),
	}
	if c := taxCurrency(t); c != "" {
		p.Currency = &c
	} else if t.Logic != LogicPercent {
		return nil, precondition("tax "+t.Title, "currency", "is required when logic is "+t.Logic)
	}
	return p, nil
}

// TaxSetForCreate builds the tax set create payload. remoteTaxIDs maps local
// tax ids to remote ids; unmapped taxes are left out.
func TaxSetForCreate(v *backend.TaxSetSyncView, propertyID string, remoteTaxIDs map[string]string) *TaxSetPayload {
	p := TaxSetForUpdate(v, remoteTaxIDs)
	p.PropertyID = propertyID
	return p
}

// TaxSetForUpdate builds the tax set update payload.
func TaxSetForUpdate(v *backend.TaxSetSyncView, remoteTaxIDs map[string]string) *TaxSetPayload {
	p := &TaxSetPayload{
		Title:    v.Title,
		Currency: v.Currency,
		Taxes:    []TaxRef{},
	}
	for _, t := range v.Taxes {
		id, ok := remoteTaxIDs[t.ID]
		if !ok || id == "" {
			continue
		}
		p.Taxes = append(p.Taxes, TaxRef{ID: id, Level: t.Level})
	}
	return p
}

func taxCurrency(t backend.TaxView) string {
	if t.Currency == nil {
		return ""
	}
	return strings.TrimSpace(*t.Currency)
}
