// Package webhook validates inbound channel-manager webhook envelopes and
// decomposes them into normalized event records.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEnvelope is wrapped by every validation failure. Nothing is
// persisted for an invalid envelope.
var ErrInvalidEnvelope = errors.New("invalid webhook envelope")

// EventType is the envelope discriminator.
type EventType string

const (
	EventMessage             EventType = "message"
	EventARI                 EventType = "ari"
	EventBooking             EventType = "booking"
	EventBookingUnmappedRoom EventType = "booking_unmapped_room"
	EventBookingUnmappedRate EventType = "booking_unmapped_rate"
	EventSyncError           EventType = "sync_error"
	EventReservationRequest  EventType = "reservation_request"
	EventReview              EventType = "review"
)

// EventTypes lists the accepted event types.
var EventTypes = []EventType{
	EventMessage,
	EventARI,
	EventBooking,
	EventBookingUnmappedRoom,
	EventBookingUnmappedRate,
	EventSyncError,
	EventReservationRequest,
	EventReview,
}

// Known reports whether t is an accepted event type.
func (t EventType) Known() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Envelope is the webhook body as received.
type Envelope struct {
	Event      EventType         `json:"event"`
	PropertyID string            `json:"property_id"`
	UserID     *string           `json:"user_id"`
	Timestamp  json.RawMessage   `json:"timestamp"`
	Payload    json.RawMessage   `json:"payload"`
	Payloads   []json.RawMessage `json:"payloads"`
}

// ParseEnvelope decodes and validates an envelope, returning its payloads as
// a non-empty ordered list.
func ParseEnvelope(data []byte) (*Envelope, []json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	items, err := env.Items()
	if err != nil {
		return nil, nil, err
	}
	return &env, items, nil
}

// Items validates the envelope and normalizes payload/payloads into a list.
func (e *Envelope) Items() ([]json.RawMessage, error) {
	if !e.Event.Known() {
		return nil, invalid("unsupported event type %q", e.Event)
	}
	if strings.TrimSpace(e.PropertyID) == "" {
		return nil, invalid("missing property_id")
	}

	hasSingle := !isNull(e.Payload)
	switch {
	case hasSingle && e.Payloads != nil:
		return nil, invalid("both payload and payloads present")
	case hasSingle:
		return e.checkItems([]json.RawMessage{e.Payload})
	case len(e.Payloads) > 0:
		return e.checkItems(e.Payloads)
	default:
		return nil, invalid("no payload")
	}
}

func (e *Envelope) checkItems(items []json.RawMessage) ([]json.RawMessage, error) {
	for i, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			return nil, invalid("payload %d is not an object", i)
		}
		if e.Event == EventMessage {
			for _, key := range []string{"message", "sender"} {
				if _, ok := fields[key]; !ok {
					return nil, invalid("message payload %d is missing %q", i, key)
				}
			}
		}
	}
	return items, nil
}

// TimestampString renders the timestamp as text, or nil when absent.
func (e *Envelope) TimestampString() *string {
	if isNull(e.Timestamp) {
		return nil
	}
	var s string
	if err := json.Unmarshal(e.Timestamp, &s); err == nil {
		return &s
	}
	raw := string(bytes.TrimSpace(e.Timestamp))
	return &raw
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEnvelope, fmt.Sprintf(format, args...))
}
