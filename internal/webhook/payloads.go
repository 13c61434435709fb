package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/channel-sync/backend/internal/storage/models"
)

// Payload is one decoded payload. The set of implementations is closed; each
// one projects its own columns into a detail record.
type Payload interface {
	EventType() EventType
	project(d *models.WebhookEventDetail)
}

// MessagePayload is a guest message.
type MessagePayload struct {
	Message         *string         `json:"message"`
	Sender          *string         `json:"sender"`
	BookingID       *string         `json:"booking_id"`
	MessageThreadID *string         `json:"message_thread_id"`
	LiveFeedEventID *string         `json:"live_feed_event_id"`
	OTAMessageID    *string         `json:"ota_message_id"`
	HaveAttachment  *bool           `json:"have_attachment"`
	Meta            json.RawMessage `json:"meta"`
	Attachments     []Attachment    `json:"attachments"`
}

// Attachment is a message attachment. Every field is optional.
type Attachment struct {
	Filename *string `json:"filename"`
	Type     *string `json:"type"`
	Size     *int64  `json:"size"`
}

// ARIPayload is an availability/rates change notification.
type ARIPayload struct {
	Availability *int    `json:"availability"`
	Booked       *int    `json:"booked"`
	Date         *string `json:"date"`
	RatePlanID   *string `json:"rate_plan_id"`
	RoomTypeID   *string `json:"room_type_id"`
	StopSell     *bool   `json:"stop_sell"`
}

// BookingPayload announces a new booking revision.
type BookingPayload struct {
	BookingID  *string `json:"booking_id"`
	RevisionID *string `json:"revision_id"`
}

// UnmappedBookingPayload is a booking for a room or rate that is not mapped.
// It covers both booking_unmapped_room and booking_unmapped_rate.
type UnmappedBookingPayload struct {
	Event             EventType `json:"-"`
	BookingID         *string   `json:"booking_id"`
	BookingRevisionID *string   `json:"booking_revision_id"`
}

// SyncErrorPayload reports a channel-side sync failure.
type SyncErrorPayload struct {
	Channel        *string `json:"channel"`
	ChannelEventID *string `json:"channel_event_id"`
	ChannelID      *string `json:"channel_id"`
	ChannelName    *string `json:"channel_name"`
	ErrorType      *string `json:"error_type"`
	PropertyName   *string `json:"property_name"`
}

// ReservationRequestPayload is a request-to-book awaiting confirmation.
type ReservationRequestPayload struct {
	BMS      json.RawMessage `json:"bms"`
	Resolved *bool           `json:"resolved"`
}

// ReviewPayload is a guest review with optional score breakdowns.
type ReviewPayload struct {
	ID               *string         `json:"id"`
	Reply            json.RawMessage `json:"reply"`
	Content          *string         `json:"content"`
	ChannelID        *string         `json:"channel_id"`
	OTA              *string         `json:"ota"`
	PropertyID       *string         `json:"property_id"`
	ExpiredAt        *string         `json:"expired_at"`
	IsHidden         *bool           `json:"is_hidden"`
	IsReplied        *bool           `json:"is_replied"`
	OTAOverallScore  *float64        `json:"ota_overall_score"`
	OTAReservationID *string         `json:"ota_reservation_id"`
	OTAReviewID      *string         `json:"ota_review_id"`
	OverallScore     *float64        `json:"overall_score"`
	RawContent       json.RawMessage `json:"raw_content"`
	ReceivedAt       *string         `json:"received_at"`
	ReviewerName     *string         `json:"reviewer_name"`
	BookingID        *string         `json:"booking_id"`
	LiveFeedEventID  *string         `json:"live_feed_event_id"`
	OTAInsertedAt    *string         `json:"ota_inserted_at"`
	ReplyScheduledAt *string         `json:"reply_scheduled_at"`
	ReplySentAt      *string         `json:"reply_sent_at"`
	Scores           []Score         `json:"scores"`
	OTAScores        []Score         `json:"ota_scores"`
}

// Score is one review category score.
type Score struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// UnknownPayload keeps a payload without a projection verbatim.
type UnknownPayload struct {
	Event EventType
	Raw   json.RawMessage
}

func (MessagePayload) EventType() EventType            { return EventMessage }
func (ARIPayload) EventType() EventType                { return EventARI }
func (BookingPayload) EventType() EventType            { return EventBooking }
func (p UnmappedBookingPayload) EventType() EventType  { return p.Event }
func (SyncErrorPayload) EventType() EventType          { return EventSyncError }
func (ReservationRequestPayload) EventType() EventType { return EventReservationRequest }
func (ReviewPayload) EventType() EventType             { return EventReview }
func (p UnknownPayload) EventType() EventType          { return p.Event }

func (p MessagePayload) project(d *models.WebhookEventDetail) {
	d.Message = p.Message
	d.Sender = p.Sender
	d.BookingID = p.BookingID
	d.MessageThreadID = p.MessageThreadID
	d.LiveFeedEventID = p.LiveFeedEventID
	d.OTAMessageID = p.OTAMessageID
	d.HaveAttachment = p.HaveAttachment
	d.Meta = nonNull(p.Meta)
}

func (p ARIPayload) project(d *models.WebhookEventDetail) {
	d.Availability = p.Availability
	d.Booked = p.Booked
	d.Date = p.Date
	d.RatePlanID = p.RatePlanID
	d.RoomTypeID = p.RoomTypeID
	d.StopSell = p.StopSell
}

func (p BookingPayload) project(d *models.WebhookEventDetail) {
	d.BookingID = p.BookingID
	d.RevisionID = p.RevisionID
}

func (p UnmappedBookingPayload) project(d *models.WebhookEventDetail) {
	d.BookingID = p.BookingID
	d.BookingRevisionID = p.BookingRevisionID
}

func (p SyncErrorPayload) project(d *models.WebhookEventDetail) {
	d.Channel = p.Channel
	d.ChannelEventID = p.ChannelEventID
	d.ChannelID = p.ChannelID
	d.ChannelName = p.ChannelName
	d.ErrorType = p.ErrorType
	d.PropertyName = p.PropertyName
}

func (p ReservationRequestPayload) project(d *models.WebhookEventDetail) {
	d.BMS = nonNull(p.BMS)
	d.Resolved = p.Resolved
}

func (p ReviewPayload) project(d *models.WebhookEventDetail) {
	d.ReviewID = p.ID
	d.Reply = nonNull(p.Reply)
	d.Content = p.Content
	d.ChannelID = p.ChannelID
	d.OTA = p.OTA
	d.ReviewPropertyID = p.PropertyID
	d.ExpiredAt = p.ExpiredAt
	d.IsHidden = p.IsHidden
	d.IsReplied = p.IsReplied
	d.OTAOverallScore = p.OTAOverallScore
	d.OTAReservationID = p.OTAReservationID
	d.OTAReviewID = p.OTAReviewID
	d.OverallScore = p.OverallScore
	d.RawContent = nonNull(p.RawContent)
	d.ReceivedAt = p.ReceivedAt
	d.ReviewerName = p.ReviewerName
	d.BookingID = p.BookingID
	d.LiveFeedEventID = p.LiveFeedEventID
	d.OTAInsertedAt = p.OTAInsertedAt
	d.ReplyScheduledAt = p.ReplyScheduledAt
	d.ReplySentAt = p.ReplySentAt
}

func (p UnknownPayload) project(d *models.WebhookEventDetail) {
	d.Payload = p.Raw
}

// DecodePayload decodes one payload into its event type's variant.
func DecodePayload(event EventType, raw json.RawMessage) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch event {
	case EventMessage:
		var v MessagePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case EventARI:
		var v ARIPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case EventBooking:
		var v BookingPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case EventBookingUnmappedRoom, EventBookingUnmappedRate:
		v := UnmappedBookingPayload{Event: event}
		err = json.Unmarshal(raw, &v)
		p = v
	case EventSyncError:
		var v SyncErrorPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case EventReservationRequest:
		var v ReservationRequestPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case EventReview:
		var v ReviewPayload
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		p = UnknownPayload{Event: event, Raw: raw}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s payload: %v", ErrInvalidEnvelope, event, err)
	}
	return p, nil
}

// Project builds the detail record for a payload.
func Project(p Payload) *models.WebhookEventDetail {
	d := &models.WebhookEventDetail{EventType: string(p.EventType())}
	p.project(d)
	return d
}

func nonNull(raw json.RawMessage) json.RawMessage {
	if isNull(raw) {
		return nil
	}
	return raw
}
