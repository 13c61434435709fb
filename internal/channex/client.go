// Package channex is a REST client for the Channex channel-manager API.
package channex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the remote channel-manager API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a channel-manager client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Resource is one JSON:API resource object as returned by the remote API.
type Resource struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Attributes Attributes `json:"attributes"`
}

// Attributes holds the resource attributes the sync engine reads back.
type Attributes struct {
	Title       string `json:"title"`
	PropertyID  string `json:"property_id"`
	RoomTypeID  string `json:"room_type_id"`
	CallbackURL string `json:"callback_url"`
	EventMask   string `json:"event_mask"`
	IsActive    bool   `json:"is_active"`
}

type singleResponse struct {
	Data Resource `json:"data"`
}

type listResponse struct {
	Data []Resource `json:"data"`
}

// ListFilter narrows list calls.
type ListFilter struct {
	PropertyID string
	Title      string
}

func (f ListFilter) query() string {
	q := url.Values{}
	if f.PropertyID != "" {
		q.Set("filter[property_id]", f.PropertyID)
	}
	if f.Title != "" {
		q.Set("filter[title]", f.Title)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// GetProperty fetches a property by remote id.
func (c *Client) GetProperty(ctx context.Context, id string) (*Resource, error) {
	return c.getOne(ctx, "/properties/"+url.PathEscape(id))
}

// ListProperties lists properties matching the filter.
func (c *Client) ListProperties(ctx context.Context, f ListFilter) ([]Resource, error) {
	return c.list(ctx, "/properties"+f.query())
}

// CreateProperty creates a property from a transformed payload.
func (c *Client) CreateProperty(ctx context.Context, payload any) (*Resource, error) {
	return c.write(ctx, http.MethodPost, "/properties", "property", payload)
}

// UpdateProperty updates an existing property.
func (c *Client) UpdateProperty(ctx context.Context, id string, payload any) (*Resource, error) {
	return c.write(ctx, http.MethodPut, "/properties/"+url.PathEscape(id), "property", payload)
}

// GetRatePlan fetches a rate plan by remote id.
func (c *Client) GetRatePlan(ctx context.Context, id string) (*Resource, error) {
	return c.getOne(ctx, "/rate_plans/"+url.PathEscape(id))
}

// ListRatePlans lists rate plans matching the filter.
func (c *Client) ListRatePlans(ctx context.Context, f ListFilter) ([]Resource, error) {
	return c.list(ctx, "/rate_plans"+f.query())
}

// CreateRatePlan creates a rate plan.
func (c *Client) CreateRatePlan(ctx context.Context, payload any) (*Resource, error) {
	return c.write(ctx, http.MethodPost, "/rate_plans", "rate_plan", payload)
}

// UpdateRatePlan updates an existing rate plan.
func (c *Client) UpdateRatePlan(ctx context.Context, id string, payload any) (*Resource, error) {
	return c.write(ctx, http.MethodPut, "/rate_plans/"+url.PathEscape(id), "rate_plan", payload)
}

// ListTaxes lists taxes matching the filter.
func (c *Client) ListTaxes(ctx context.Context, f ListFilter) ([]Resource, error) {
	return c.list(ctx, "/taxes"+f.query())
}

// CreateTax creates a tax.
func (c *Client) CreateTax(ctx context.Context, payload any) (*Resource, error) {
	return c.write(ctx, http.MethodPost, "/taxes", "tax", payload)
}

// GetTaxSet fetches a tax set by remote id.
func (c *Client) GetTaxSet(ctx context.Context, id string) (*Resource, error) {
	return c.getOne(ctx, "/tax_sets/"+url.PathEscape(id))
}

// ListTaxSets lists tax sets matching the filter.
func (c *Client) ListTaxSets(ctx context.Context, f ListFilter) ([]Resource, error) {
	return c.list(ctx, "/tax_sets"+f.query())
}

// CreateTaxSet creates a tax set.
func (c *Client) CreateTaxSet(ctx context.Context, payload any) (*Resource, error) {
	return c.write(ctx, http.MethodPost, "/tax_sets", "tax_set", payload)
}

// UpdateTaxSet updates an existing tax set.
func (c *Client) UpdateTaxSet(ctx context.Context, id string, payload any) (*Resource, error) {
	return c.write(ctx, http.MethodPut, "/tax_sets/"+url.PathEscape(id), "tax_set", payload)
}

// ListWebhooks lists webhooks registered for a remote property.
func (c *Client) ListWebhooks(ctx context.Context, propertyID string) ([]Resource, error) {
	return c.list(ctx, "/webhooks"+ListFilter{PropertyID: propertyID}.query())
}

// CreateWebhook registers a webhook.
func (c *Client) CreateWebhook(ctx context.Context, payload any) (*Resource, error) {
	return c.write(ctx, http.MethodPost, "/webhooks", "webhook", payload)
}

// UpdateWebhook updates a registered webhook.
func (c *Client) UpdateWebhook(ctx context.Context, id string, payload any) (*Resource, error) {
	return c.write(ctx, http.MethodPut, "/webhooks/"+url.PathEscape(id), "webhook", payload)
}

// UpdateRestrictions pushes a batch of rate/restriction values.
func (c *Client) UpdateRestrictions(ctx context.Context, values any) error {
	return c.do(ctx, http.MethodPost, "/restrictions", map[string]any{"values": values}, nil)
}

// UpdateAvailability pushes a batch of availability values.
func (c *Client) UpdateAvailability(ctx context.Context, values any) error {
	return c.do(ctx, http.MethodPost, "/availability", map[string]any{"values": values}, nil)
}

func (c *Client) getOne(ctx context.Context, path string) (*Resource, error) {
	var resp singleResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) list(ctx context.Context, path string) ([]Resource, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) write(ctx context.Context, method, path, key string, payload any) (*Resource, error) {
	var resp singleResponse
	if err := c.do(ctx, method, path, map[string]any{key: payload}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
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
	if c.apiKey != "" {
		req.Header.Set("user-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return parseValidationError(respBody)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(respBody))}
	}

	if result == nil {
		return nil
	}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	// A create that reports success must name the new resource.
	if created, ok := result.(*singleResponse); ok && method == http.MethodPost && created.Data.ID == "" {
		return &APIError{Status: resp.StatusCode, Body: "created resource has no id: " + string(bytes.TrimSpace(respBody))}
	}
	return nil
}
