package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client
	TypeSyncCompleted   MessageType = "sync.completed"
	TypeSyncError       MessageType = "sync.error"
	TypeWebhookIngested MessageType = "webhook.ingested"
	TypeNotification    MessageType = "notification"

	// Client -> Server
	TypePing MessageType = "ping"

	// Server -> Client responses
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message is the WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncPayload is the payload for sync.completed events.
type SyncPayload struct {
	Kind     string `json:"kind"`
	LocalID  string `json:"local_id"`
	State    string `json:"state"`
	RemoteID string `json:"remote_id,omitempty"`
}

// SyncErrorPayload is the payload for sync.error events.
type SyncErrorPayload struct {
	Kind       string `json:"kind"`
	LocalID    string `json:"local_id"`
	ErrorClass string `json:"error_class"`
	Message    string `json:"message"`
}

// WebhookPayload is the payload for webhook.ingested events.
type WebhookPayload struct {
	EventID           string `json:"event_id"`
	EventType         string `json:"event_type"`
	PropertyID        string `json:"property_id"`
	Details           int    `json:"details"`
	SubEntityFailures int    `json:"sub_entity_failures,omitempty"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload answers a client message the server could not handle.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
