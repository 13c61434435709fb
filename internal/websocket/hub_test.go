package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/channel-sync/backend/internal/syncer"
	"github.com/channel-sync/backend/internal/webhook"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, chan struct{}) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	return hub, cancel, done
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send():
		require.True(t, ok, "client channel closed")
		var raw struct {
			Type    MessageType     `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &raw))
		return Message{Type: raw.Type, Payload: raw.Payload}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubBroadcastAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	client := NewClient(hub)
	hub.Register(client)

	NewBroadcaster(hub).SyncCompleted(syncer.Status{
		Kind: "property", LocalID: "p1", State: syncer.StateSynced, RemoteID: "R1",
	})

	msg := receive(t, client)
	assert.Equal(t, TypeSyncCompleted, msg.Type)
	assert.JSONEq(t, `{"kind":"property","local_id":"p1","state":"SYNCED","remote_id":"R1"}`,
		string(msg.Payload.(json.RawMessage)))
	assert.Equal(t, 1, hub.ClientCount())

	cancel()
	<-done

	_, ok := <-client.Send()
	assert.False(t, ok, "shutdown closes client channels")
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubUnregister(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	defer func() { cancel(); <-done }()

	client := NewClient(hub)
	hub.Register(client)
	hub.Unregister(client)

	_, ok := <-client.Send()
	assert.False(t, ok)
}

func TestBroadcasterPreconditionAddsNotification(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	defer func() { cancel(); <-done }()
	client := NewClient(hub)
	hub.Register(client)

	NewBroadcaster(hub).SyncFailed(syncer.Status{
		Kind: "tax_set", LocalID: "ts1", State: syncer.StateError,
		ErrorClass: syncer.ClassPrecondition, LastError: "tax VAT has no currency",
	})

	first := receive(t, client)
	assert.Equal(t, TypeSyncError, first.Type)
	assert.Contains(t, string(first.Payload.(json.RawMessage)), `"error_class":"precondition"`)

	second := receive(t, client)
	assert.Equal(t, TypeNotification, second.Type)
	assert.Contains(t, string(second.Payload.(json.RawMessage)), "ts1")
}

func TestBroadcasterWebhookIngested(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	defer func() { cancel(); <-done }()
	client := NewClient(hub)
	hub.Register(client)

	NewBroadcaster(hub).WebhookIngested(webhook.Result{
		EventID: "e1", EventType: webhook.EventReview, PropertyID: "P1", Details: 1,
	})

	msg := receive(t, client)
	assert.Equal(t, TypeWebhookIngested, msg.Type)
	assert.JSONEq(t, `{"event_id":"e1","event_type":"review","property_id":"P1","details":1}`,
		string(msg.Payload.(json.RawMessage)))
}

func TestHubCallsAfterShutdownDoNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	client := NewClient(hub)
	hub.Register(client)
	cancel()
	<-done

	returned := make(chan struct{})
	go func() {
		hub.Unregister(client)
		late := NewClient(hub)
		hub.Register(late)
		_, ok := <-late.Send()
		assert.False(t, ok, "late clients are closed immediately")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
}
