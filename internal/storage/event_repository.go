package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/channel-sync/backend/internal/storage/models"
)

// EventRepository stores normalized webhook envelopes.
type EventRepository struct {
	BaseRepository
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// CreateEvent inserts an envelope header.
func (r *EventRepository) CreateEvent(ctx context.Context, e *models.WebhookEvent) error {
	e.ID = GenerateID()
	e.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO webhook_events (id, property_id, event_type, user_id, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.PropertyID, e.EventType, e.UserID, e.Timestamp, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting webhook event: %w", err)
	}
	return nil
}

// GetEvent retrieves an envelope header by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*models.WebhookEvent, error) {
	e := &models.WebhookEvent{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT id, property_id, event_type, user_id, timestamp, created_at
		FROM webhook_events WHERE id = ?
	`, id).Scan(&e.ID, &e.PropertyID, &e.EventType, &e.UserID, &e.Timestamp, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying webhook event: %w", err)
	}
	return e, nil
}

// CountEvents returns the number of stored envelope headers.
func (r *EventRepository) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := r.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting webhook events: %w", err)
	}
	return n, nil
}

// detailColumns lists webhook_event_details columns in the order of detailFields.
var detailColumns = []string{
	"id", "event_id", "event_type", "position", "created_at",
	"message", "sender", "message_thread_id", "ota_message_id", "have_attachment", "meta",
	"booking_id", "live_feed_event_id",
	"availability", "booked", "date", "rate_plan_id", "room_type_id", "stop_sell",
	"revision_id", "booking_revision_id",
	"channel", "channel_event_id", "channel_id", "channel_name", "error_type", "property_name",
	"bms", "resolved",
	"review_id", "reply", "content", "ota", "review_property_id", "expired_at",
	"is_hidden", "is_replied", "ota_overall_score", "ota_reservation_id", "ota_review_id",
	"overall_score", "raw_content", "received_at", "reviewer_name",
	"ota_inserted_at", "reply_scheduled_at", "reply_sent_at",
	"payload",
}

// detailFields returns pointers to d's fields, usable both as insert
// arguments and as scan destinations.
func detailFields(d *models.WebhookEventDetail) []any {
	return []any{
		&d.ID, &d.EventID, &d.EventType, &d.Position, &d.CreatedAt,
		&d.Message, &d.Sender, &d.MessageThreadID, &d.OTAMessageID, &d.HaveAttachment, jsonColumn{&d.Meta},
		&d.BookingID, &d.LiveFeedEventID,
		&d.Availability, &d.Booked, &d.Date, &d.RatePlanID, &d.RoomTypeID, &d.StopSell,
		&d.RevisionID, &d.BookingRevisionID,
		&d.Channel, &d.ChannelEventID, &d.ChannelID, &d.ChannelName, &d.ErrorType, &d.PropertyName,
		jsonColumn{&d.BMS}, &d.Resolved,
		&d.ReviewID, jsonColumn{&d.Reply}, &d.Content, &d.OTA, &d.ReviewPropertyID, &d.ExpiredAt,
		&d.IsHidden, &d.IsReplied, &d.OTAOverallScore, &d.OTAReservationID, &d.OTAReviewID,
		&d.OverallScore, jsonColumn{&d.RawContent}, &d.ReceivedAt, &d.ReviewerName,
		&d.OTAInsertedAt, &d.ReplyScheduledAt, &d.ReplySentAt,
		jsonColumn{&d.Payload},
	}
}

var (
	insertDetailSQL = fmt.Sprintf(
		"INSERT INTO webhook_event_details (%s) VALUES (%s)",
		strings.Join(detailColumns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(detailColumns)), ", "),
	)
	selectDetailSQL = fmt.Sprintf(
		"SELECT %s FROM webhook_event_details WHERE event_id = ? ORDER BY position",
		strings.Join(detailColumns, ", "),
	)
)

// CreateDetail inserts one normalized payload.
func (r *EventRepository) CreateDetail(ctx context.Context, d *models.WebhookEventDetail) error {
	d.ID = GenerateID()
	d.CreatedAt = r.Now()

	if _, err := r.DB().ExecContext(ctx, insertDetailSQL, detailFields(d)...); err != nil {
		return fmt.Errorf("inserting webhook event detail: %w", err)
	}
	return nil
}

// ListDetails returns an envelope's details in payload order.
func (r *EventRepository) ListDetails(ctx context.Context, eventID string) ([]models.WebhookEventDetail, error) {
	rows, err := r.DB().QueryContext(ctx, selectDetailSQL, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying webhook event details: %w", err)
	}
	defer rows.Close()

	var details []models.WebhookEventDetail
	for rows.Next() {
		var d models.WebhookEventDetail
		if err := rows.Scan(detailFields(&d)...); err != nil {
			return nil, fmt.Errorf("scanning webhook event detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// CreateAttachment inserts a message attachment.
func (r *EventRepository) CreateAttachment(ctx context.Context, a *models.WebhookAttachment) error {
	a.ID = GenerateID()
	a.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO webhook_attachments (id, detail_id, filename, type, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.DetailID, a.Filename, a.Type, a.Size, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting webhook attachment: %w", err)
	}
	return nil
}

// ListAttachments returns the attachments of a detail.
func (r *EventRepository) ListAttachments(ctx context.Context, detailID string) ([]models.WebhookAttachment, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, detail_id, filename, type, size, created_at
		FROM webhook_attachments WHERE detail_id = ? ORDER BY created_at, id
	`, detailID)
	if err != nil {
		return nil, fmt.Errorf("querying webhook attachments: %w", err)
	}
	defer rows.Close()

	var out []models.WebhookAttachment
	for rows.Next() {
		var a models.WebhookAttachment
		if err := rows.Scan(&a.ID, &a.DetailID, &a.Filename, &a.Type, &a.Size, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning webhook attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateReviewScore inserts one of a review's own category scores.
func (r *EventRepository) CreateReviewScore(ctx context.Context, s *models.ReviewScore) error {
	return r.createScore(ctx, "review_scores", s)
}

// CreateOTAScore inserts one of a review's OTA category scores.
func (r *EventRepository) CreateOTAScore(ctx context.Context, s *models.ReviewScore) error {
	return r.createScore(ctx, "review_ota_scores", s)
}

// ListReviewScores returns a review detail's own category scores.
func (r *EventRepository) ListReviewScores(ctx context.Context, detailID string) ([]models.ReviewScore, error) {
	return r.listScores(ctx, "review_scores", detailID)
}

// ListOTAScores returns a review detail's OTA category scores.
func (r *EventRepository) ListOTAScores(ctx context.Context, detailID string) ([]models.ReviewScore, error) {
	return r.listScores(ctx, "review_ota_scores", detailID)
}

func (r *EventRepository) createScore(ctx context.Context, table string, s *models.ReviewScore) error {
	s.ID = GenerateID()
	s.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx,
		"INSERT INTO "+table+" (id, detail_id, category, score, created_at) VALUES (?, ?, ?, ?, ?)",
		s.ID, s.DetailID, s.Category, s.Score, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting %s row: %w", table, err)
	}
	return nil
}

func (r *EventRepository) listScores(ctx context.Context, table, detailID string) ([]models.ReviewScore, error) {
	rows, err := r.DB().QueryContext(ctx,
		"SELECT id, detail_id, category, score, created_at FROM "+table+" WHERE detail_id = ? ORDER BY category",
		detailID)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.ReviewScore
	for rows.Next() {
		var s models.ReviewScore
		if err := rows.Scan(&s.ID, &s.DetailID, &s.Category, &s.Score, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// jsonColumn stores a raw JSON value as TEXT, NULL when empty.
type jsonColumn struct {
	raw *json.RawMessage
}

func (c jsonColumn) Value() (driver.Value, error) {
	if len(*c.raw) == 0 {
		return nil, nil
	}
	return string(*c.raw), nil
}

func (c jsonColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c.raw = nil
	case string:
		*c.raw = json.RawMessage(v)
	case []byte:
		*c.raw = append(json.RawMessage(nil), v...)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	return nil
}
