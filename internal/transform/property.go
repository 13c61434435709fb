package transform

import (
	"fmt"
	"strings"

	"github.com/channel-sync/backend/internal/backend"
)

// PropertyFields are sent on both create and update.
type PropertyFields struct {
	Title        string   `json:"title"`
	Currency     string   `json:"currency"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	ZipCode      string   `json:"zip_code,omitempty"`
	Country      string   `json:"country,omitempty"`
	State        string   `json:"state,omitempty"`
	City         string   `json:"city,omitempty"`
	Address      string   `json:"address,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Timezone     string   `json:"timezone,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
}

// PropertyCreate is the create payload.
type PropertyCreate struct {
	PropertyFields
	GroupID  *string          `json:"group_id,omitempty"`
	LogoURL  *string          `json:"logo_url,omitempty"`
	Website  *string          `json:"website,omitempty"`
	Content  *CreateContent   `json:"content,omitempty"`
	Settings PropertySettings `json:"settings"`
}

// PropertyUpdate is the update payload. Settings, group, logo, website and
// important information are never sent.
type PropertyUpdate struct {
	PropertyFields
	Content UpdateContent `json:"content"`
}

// CreateContent is omitted entirely from a create when empty.
type CreateContent struct {
	Description          string         `json:"description,omitempty"`
	ImportantInformation string         `json:"important_information,omitempty"`
	Photos               []PhotoPayload `json:"photos,omitempty"`
}

// UpdateContent always carries a description key, possibly "".
type UpdateContent struct {
	Description string         `json:"description"`
	Photos      []PhotoPayload `json:"photos,omitempty"`
}

type PhotoPayload struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// PropertySettings mirrors backend.PropertySettings in wire format.
type PropertySettings struct {
	AllowAvailabilityAutoupdateOnConfirmation bool    `json:"allow_availability_autoupdate_on_confirmation"`
	AllowAvailabilityAutoupdateOnModification bool    `json:"allow_availability_autoupdate_on_modification"`
	AllowAvailabilityAutoupdateOnCancellation bool    `json:"allow_availability_autoupdate_on_cancellation"`
	MinStayType                               string  `json:"min_stay_type,omitempty"`
	MinPrice                                  *string `json:"min_price"`
	MaxPrice                                  *string `json:"max_price"`
	StateLength                               int     `json:"state_length,omitempty"`
	CutOffTime                                string  `json:"cut_off_time,omitempty"`
	CutOffDays                                int     `json:"cut_off_days"`
}

// StripField drops an optional URL field by wire name. It reports whether
// anything was removed.
func (p *PropertyCreate) StripField(name string) bool {
	switch name {
	case "logo_url":
		if p.LogoURL == nil {
			return false
		}
		p.LogoURL = nil
	case "website":
		if p.Website == nil {
			return false
		}
		p.Website = nil
	default:
		return false
	}
	return true
}

// RetryableFields are the optional fields a rejected create may be retried without.
var RetryableFields = []string{"logo_url", "website"}

// PropertyForCreate builds the create payload. Settings are mandatory.
func PropertyForCreate(v *backend.PropertySyncView) (*PropertyCreate, error) {
	if v.Settings == nil {
		return nil, precondition("property", "settings", "are required to create a property")
	}

	p := &PropertyCreate{
		PropertyFields: propertyFields(v),
		GroupID:        nonEmpty(v.GroupID),
		LogoURL:        validURLOrNil(v.LogoURL),
		Website:        validURLOrNil(v.Website),
		Settings:       propertySettings(v.Settings),
	}

	if v.Content != nil {
		c := &CreateContent{
			Description:          strings.TrimSpace(v.Content.Description),
			ImportantInformation: strings.TrimSpace(v.Content.ImportantInformation),
			Photos:               photos(v.Content.Photos),
		}
		if c.Description != "" || c.ImportantInformation != "" || len(c.Photos) > 0 {
			p.Content = c
		}
	}
	return p, nil
}

// PropertyForUpdate builds the update payload.
func PropertyForUpdate(v *backend.PropertySyncView) *PropertyUpdate {
	p := &PropertyUpdate{PropertyFields: propertyFields(v)}
	if v.Content != nil {
		p.Content.Description = v.Content.Description
		p.Content.Photos = photos(v.Content.Photos)
	}
	return p
}

func propertyFields(v *backend.PropertySyncView) PropertyFields {
	return PropertyFields{
		Title:        v.Title,
		Currency:     v.Currency,
		Email:        v.Email,
		Phone:        v.Phone,
		ZipCode:      v.ZipCode,
		Country:      v.Country,
		State:        v.State,
		City:         v.City,
		Address:      v.Address,
		Longitude:    numberPtr(v.Longitude),
		Latitude:     numberPtr(v.Latitude),
		Timezone:     v.Timezone,
		PropertyType: v.PropertyType,
	}
}

func propertySettings(s *backend.PropertySettings) PropertySettings {
	return PropertySettings{
		AllowAvailabilityAutoupdateOnConfirmation: s.AllowAvailabilityAutoupdateOnConfirmation.Bool(),
		AllowAvailabilityAutoupdateOnModification: s.AllowAvailabilityAutoupdateOnModification.Bool(),
		AllowAvailabilityAutoupdateOnCancellation: s.AllowAvailabilityAutoupdateOnCancellation.Bool(),
		MinStayType: s.MinStayType,
		MinPrice:    money(s.MinPrice),
		MaxPrice:    money(s.MaxPrice),
		StateLength: s.StateLength,
		CutOffTime:  s.CutOffTime,
		CutOffDays:  s.CutOffDays,
	}
}

func photos(in []backend.Photo) []PhotoPayload {
	if len(in) == 0 {
		return nil
	}
	out := make([]PhotoPayload, 0, len(in))
	for _, ph := range in {
		if strings.TrimSpace(ph.URL) == "" {
			continue
		}
		out = append(out, PhotoPayload{URL: ph.URL, Description: ph.Description, Position: ph.Position})
	}
	return out
}

// money formats a monetary bound with two fixed decimals.
func money(n *backend.Number) *string {
	if n == nil {
		return nil
	}
	s := fmt.Sprintf("%.2f", n.Float())
	return &s
}

func numberPtr(n *backend.Number) *float64 {
	if n == nil {
		return nil
	}
	f := n.Float()
	return &f
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func validURLOrNil(s *string) *string {
	if s == nil || !ValidURL(*s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
