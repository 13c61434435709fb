package channex

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when the remote API answers 404.
var ErrNotFound = errors.New("channex resource not found")

// ValidationError is a 422 response carrying field-level details.
type ValidationError struct {
	Code    string
	Title   string
	Details map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("channex validation failed: %s", e.Title)
	}
	return fmt.Sprintf("channex validation failed: %s (%s)", e.Title, strings.Join(e.Fields(), ", "))
}

// Fields returns the sorted list of rejected field keys.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Details))
	for k := range e.Details {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// HasField reports whether name was rejected, either as a full key or as the
// last segment of a dotted key ("property.logo_url" matches "logo_url").
func (e *ValidationError) HasField(name string) bool {
	for k := range e.Details {
		if k == name || strings.HasSuffix(k, "."+name) {
			return true
		}
	}
	return false
}

// APIError is any other non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("channex error (status %d): %s", e.Status, e.Body)
}

type errorBody struct {
	Errors struct {
		Code    string          `json:"code"`
		Title   string          `json:"title"`
		Details json.RawMessage `json:"details"`
	} `json:"errors"`
}

func parseValidationError(body []byte) *ValidationError {
	verr := &ValidationError{Details: map[string][]string{}}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		verr.Title = strings.TrimSpace(string(body))
		return verr
	}
	verr.Code = eb.Errors.Code
	verr.Title = eb.Errors.Title

	if len(eb.Errors.Details) > 0 {
		var details any
		if err := json.Unmarshal(eb.Errors.Details, &details); err == nil {
			flattenDetails("", details, verr.Details)
		}
	}
	return verr
}

// flattenDetails walks nested detail objects, joining keys with dots.
func flattenDetails(prefix string, v any, out map[string][]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenDetails(key, child, out)
		}
	case []any:
		for _, item := range val {
			switch it := item.(type) {
			case string:
				out[prefix] = append(out[prefix], it)
			case map[string]any:
				flattenDetails(prefix, it, out)
			default:
				out[prefix] = append(out[prefix], fmt.Sprint(it))
			}
		}
	case string:
		out[prefix] = append(out[prefix], val)
	case nil:
	default:
		out[prefix] = append(out[prefix], fmt.Sprint(val))
	}
}
