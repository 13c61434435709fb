package websocket

import (
	"fmt"
	"log"

	"github.com/channel-sync/backend/internal/syncer"
	"github.com/channel-sync/backend/internal/webhook"
)

// Broadcaster turns sync and ingestion outcomes into hub messages. It
// satisfies both syncer.Notifier and webhook.Notifier.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a broadcaster for hub.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// SyncCompleted sends a sync.completed event.
func (b *Broadcaster) SyncCompleted(s syncer.Status) {
	b.broadcast(NewMessage(TypeSyncCompleted, SyncPayload{
		Kind:     s.Kind,
		LocalID:  s.LocalID,
		State:    string(s.State),
		RemoteID: s.RemoteID,
	}))
}

// SyncFailed sends a sync.error event. Precondition failures also raise a
// notification since only a data fix resolves them.
func (b *Broadcaster) SyncFailed(s syncer.Status) {
	b.broadcast(NewMessage(TypeSyncError, SyncErrorPayload{
		Kind:       s.Kind,
		LocalID:    s.LocalID,
		ErrorClass: string(s.ErrorClass),
		Message:    s.LastError,
	}))

	if s.ErrorClass == syncer.ClassPrecondition {
		b.Notify("warning", "Sync blocked",
			fmt.Sprintf("%s %s is missing required data: %s", s.Kind, s.LocalID, s.LastError))
	}
}

// WebhookIngested sends a webhook.ingested event.
func (b *Broadcaster) WebhookIngested(r webhook.Result) {
	b.broadcast(NewMessage(TypeWebhookIngested, WebhookPayload{
		EventID:           r.EventID,
		EventType:         string(r.EventType),
		PropertyID:        r.PropertyID,
		Details:           r.Details,
		SubEntityFailures: r.SubEntityFailures,
	}))
}

// Notify sends a dismissible notification to every client.
func (b *Broadcaster) Notify(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}))
}

func (b *Broadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
