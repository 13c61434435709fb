// Package models contains the persisted records of the sync service.
package models

import (
	"encoding/json"
	"time"
)

// WebhookEvent is the header row written once per inbound envelope.
type WebhookEvent struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	EventType  string    `json:"event_type"`
	UserID     *string   `json:"user_id,omitempty"`
	Timestamp  *string   `json:"timestamp,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// WebhookEventDetail is one normalized payload of an envelope. Only the
// columns projected for its event type are set.
type WebhookEventDetail struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`

	// message
	Message         *string         `json:"message,omitempty"`
	Sender          *string         `json:"sender,omitempty"`
	MessageThreadID *string         `json:"message_thread_id,omitempty"`
	OTAMessageID    *string         `json:"ota_message_id,omitempty"`
	HaveAttachment  *bool           `json:"have_attachment,omitempty"`
	Meta            json.RawMessage `json:"meta,omitempty"`

	// shared by message, booking and review events
	BookingID       *string `json:"booking_id,omitempty"`
	LiveFeedEventID *string `json:"live_feed_event_id,omitempty"`

	// ari
	Availability *int    `json:"availability,omitempty"`
	Booked       *int    `json:"booked,omitempty"`
	Date         *string `json:"date,omitempty"`
	RatePlanID   *string `json:"rate_plan_id,omitempty"`
	RoomTypeID   *string `json:"room_type_id,omitempty"`
	StopSell     *bool   `json:"stop_sell,omitempty"`

	// booking and unmapped bookings
	RevisionID        *string `json:"revision_id,omitempty"`
	BookingRevisionID *string `json:"booking_revision_id,omitempty"`

	// sync_error
	Channel        *string `json:"channel,omitempty"`
	ChannelEventID *string `json:"channel_event_id,omitempty"`
	ChannelID      *string `json:"channel_id,omitempty"`
	ChannelName    *string `json:"channel_name,omitempty"`
	ErrorType      *string `json:"error_type,omitempty"`
	PropertyName   *string `json:"property_name,omitempty"`

	// reservation_request
	BMS      json.RawMessage `json:"bms,omitempty"`
	Resolved *bool           `json:"resolved,omitempty"`

	// review
	ReviewID         *string         `json:"review_id,omitempty"`
	Reply            json.RawMessage `json:"reply,omitempty"`
	Content          *string         `json:"content,omitempty"`
	OTA              *string         `json:"ota,omitempty"`
	ReviewPropertyID *string         `json:"review_property_id,omitempty"`
	ExpiredAt        *string         `json:"expired_at,omitempty"`
	IsHidden         *bool           `json:"is_hidden,omitempty"`
	IsReplied        *bool           `json:"is_replied,omitempty"`
	OTAOverallScore  *float64        `json:"ota_overall_score,omitempty"`
	OTAReservationID *string         `json:"ota_reservation_id,omitempty"`
	OTAReviewID      *string         `json:"ota_review_id,omitempty"`
	OverallScore     *float64        `json:"overall_score,omitempty"`
	RawContent       json.RawMessage `json:"raw_content,omitempty"`
	ReceivedAt       *string         `json:"received_at,omitempty"`
	ReviewerName     *string         `json:"reviewer_name,omitempty"`
	OTAInsertedAt    *string         `json:"ota_inserted_at,omitempty"`
	ReplyScheduledAt *string         `json:"reply_scheduled_at,omitempty"`
	ReplySentAt      *string         `json:"reply_sent_at,omitempty"`

	// Payload holds the whole payload for event types without a projection.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebhookAttachment is one attachment of a message event.
type WebhookAttachment struct {
	ID        string    `json:"id"`
	DetailID  string    `json:"detail_id"`
	Filename  *string   `json:"filename,omitempty"`
	Type      *string   `json:"type,omitempty"`
	Size      *int64    `json:"size,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewScore is one category score of a review, either our own or the OTA's.
type ReviewScore struct {
	ID        string    `json:"id"`
	DetailID  string    `json:"detail_id"`
	Category  string    `json:"category"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
