package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/channel-sync/backend/internal/metrics"
	"github.com/channel-sync/backend/internal/storage/models"
)

// subEntityConcurrency bounds concurrent attachment/score inserts per payload.
const subEntityConcurrency = 8

// Store persists normalized records. Create methods assign record ids.
type Store interface {
	CreateEvent(ctx context.Context, e *models.WebhookEvent) error
	CreateDetail(ctx context.Context, d *models.WebhookEventDetail) error
	CreateAttachment(ctx context.Context, a *models.WebhookAttachment) error
	CreateReviewScore(ctx context.Context, s *models.ReviewScore) error
	CreateOTAScore(ctx context.Context, s *models.ReviewScore) error
}

// Notifier is told about every ingested envelope.
type Notifier interface {
	WebhookIngested(r Result)
}

// Result summarizes one ingested envelope.
type Result struct {
	EventID           string    `json:"event_id"`
	EventType         EventType `json:"event_type"`
	PropertyID        string    `json:"property_id"`
	Details           int       `json:"details"`
	Attachments       int       `json:"attachments"`
	Scores            int       `json:"scores"`
	OTAScores         int       `json:"ota_scores"`
	SubEntityFailures int       `json:"sub_entity_failures"`
}

// Normalizer ingests webhook envelopes.
type Normalizer struct {
	store    Store
	notifier Notifier
}

// NewNormalizer creates a normalizer. notifier may be nil.
func NewNormalizer(store Store, notifier Notifier) *Normalizer {
	return &Normalizer{store: store, notifier: notifier}
}

// Ingest validates the raw envelope and persists it.
//
// Validation happens before any write. Payloads are stored in order; a failed
// detail insert stops the envelope and is returned, leaving earlier rows in
// place. Attachment and score failures are logged and counted only.
func (n *Normalizer) Ingest(ctx context.Context, data []byte) (*Result, error) {
	env, items, err := ParseEnvelope(data)
	if err != nil {
		metrics.RecordWebhook("invalid", metrics.OutcomeRejected)
		return nil, err
	}

	payloads := make([]Payload, len(items))
	for i, item := range items {
		if payloads[i], err = DecodePayload(env.Event, item); err != nil {
			metrics.RecordWebhook(string(env.Event), metrics.OutcomeRejected)
			return nil, err
		}
	}

	result, err := n.persist(ctx, env, payloads)
	if err != nil {
		metrics.RecordWebhook(string(env.Event), metrics.OutcomeError)
		return result, err
	}

	metrics.RecordWebhook(string(env.Event), metrics.OutcomeSuccess)
	if n.notifier != nil {
		n.notifier.WebhookIngested(*result)
	}
	return result, nil
}

func (n *Normalizer) persist(ctx context.Context, env *Envelope, payloads []Payload) (*Result, error) {
	event := &models.WebhookEvent{
		PropertyID: env.PropertyID,
		EventType:  string(env.Event),
		UserID:     env.UserID,
		Timestamp:  env.TimestampString(),
	}
	if err := n.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("creating event header: %w", err)
	}

	result := &Result{EventID: event.ID, EventType: env.Event, PropertyID: env.PropertyID}
	for i, p := range payloads {
		detail := Project(p)
		detail.EventID = event.ID
		detail.Position = i
		if err := n.store.CreateDetail(ctx, detail); err != nil {
			return result, fmt.Errorf("creating detail %d of event %s: %w", i, event.ID, err)
		}
		result.Details++

		n.fanOut(ctx, p, detail.ID, result)
	}
	return result, nil
}

// fanOut creates the sub-entities of one detail as an unordered concurrent batch.
func (n *Normalizer) fanOut(ctx context.Context, p Payload, detailID string, result *Result) {
	var (
		g                                 errgroup.Group
		attachments, scores, ota, failure atomic.Int32
	)
	g.SetLimit(subEntityConcurrency)

	run := func(counter *atomic.Int32, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				failure.Add(1)
				return err
			}
			counter.Add(1)
			return nil
		})
	}

	switch v := p.(type) {
	case MessagePayload:
		for _, a := range v.Attachments {
			rec := &models.WebhookAttachment{DetailID: detailID, Filename: a.Filename, Type: a.Type, Size: a.Size}
			run(&attachments, func() error { return n.store.CreateAttachment(ctx, rec) })
		}
	case ReviewPayload:
		for _, s := range v.Scores {
			rec := &models.ReviewScore{DetailID: detailID, Category: s.Category, Score: s.Score}
			run(&scores, func() error { return n.store.CreateReviewScore(ctx, rec) })
		}
		for _, s := range v.OTAScores {
			rec := &models.ReviewScore{DetailID: detailID, Category: s.Category, Score: s.Score}
			run(&ota, func() error { return n.store.CreateOTAScore(ctx, rec) })
		}
	default:
		return
	}

	if err := g.Wait(); err != nil {
		log.Printf("Webhook %s detail %s: %d sub-entities not stored, first error: %v",
			p.EventType(), detailID, failure.Load(), err)
		for i := int32(0); i < failure.Load(); i++ {
			metrics.RecordSubEntityFailure(string(p.EventType()))
		}
	}

	result.Attachments += int(attachments.Load())
	result.Scores += int(scores.Load())
	result.OTAScores += int(ota.Load())
	result.SubEntityFailures += int(failure.Load())
}

// IsInvalid reports whether err is an envelope validation failure.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidEnvelope)
}

// MarshalResult is a helper for CLI output.
func MarshalResult(r *Result) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
