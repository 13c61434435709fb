// Package backend is a client for the local property-management backend.
//
// The backend exposes pre-computed "sync views" so that field derivation and
// validation live server-side, plus a small write surface for persisting
// resolved remote ids back onto local records.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when the backend has no record for the requested id.
var ErrNotFound = errors.New("backend record not found")

// Client talks to the local backend REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a backend client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PropertySyncView fetches the sync view of a property.
func (c *Client) PropertySyncView(ctx context.Context, propertyID string) (*PropertySyncView, error) {
	var view PropertySyncView
	if err := c.get(ctx, "/properties/"+url.PathEscape(propertyID)+"/sync-view", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// RatePlanSyncView fetches the sync view of a rate plan.
func (c *Client) RatePlanSyncView(ctx context.Context, ratePlanID string) (*RatePlanSyncView, error) {
	var view RatePlanSyncView
	if err := c.get(ctx, "/rate-plans/"+url.PathEscape(ratePlanID)+"/sync-view", &view); err != nil {
		return nil, err
	}
	// Compacted so formatting alone never changes the fingerprint.
	if len(view.AutoRateSettings) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, view.AutoRateSettings); err == nil {
			view.AutoRateSettings = buf.Bytes()
		}
	}
	return &view, nil
}

// TaxSetSyncView fetches the sync view of a tax set with its taxes.
func (c *Client) TaxSetSyncView(ctx context.Context, taxSetID string) (*TaxSetSyncView, error) {
	var view TaxSetSyncView
	if err := c.get(ctx, "/tax-sets/"+url.PathEscape(taxSetID)+"/sync-view", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// RatesView fetches rate ranges and period rules for a rate plan.
func (c *Client) RatesView(ctx context.Context, ratePlanID string) (*RatesView, error) {
	var view RatesView
	if err := c.get(ctx, "/rate-plans/"+url.PathEscape(ratePlanID)+"/rates-view", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// AvailabilityView fetches availability ranges for a room type.
func (c *Client) AvailabilityView(ctx context.Context, roomTypeID string) (*AvailabilityView, error) {
	var view AvailabilityView
	if err := c.get(ctx, "/room-types/"+url.PathEscape(roomTypeID)+"/availability-view", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// SetPropertyWebhookID persists the resolved remote webhook id on the local property.
func (c *Client) SetPropertyWebhookID(ctx context.Context, propertyID, webhookID string) error {
	body := map[string]string{"channex_webhook_id": webhookID}
	return c.do(ctx, http.MethodPatch, "/properties/"+url.PathEscape(propertyID), body, nil)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend error (status %d): %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
