package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/jasperedu/jasper-backend/internal/logger"
)

func newTestHub(t *testing.T) *SSEHub {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewSSEHub(log)
}

func TestBroadcastReachesSubscribedChannelOnly(t *testing.T) {
	hub := newTestHub(t)

	alice := hub.NewSSEClient(uuid.New())
	bob := hub.NewSSEClient(uuid.New())
	hub.AddChannel(alice, alice.UserID.String())
	hub.AddChannel(bob, bob.UserID.String())

	hub.Broadcast(SSEMessage{Channel: alice.UserID.String(), Event: SSEEventChatMessageCreated})

	select {
	case msg := <-alice.Outbound:
		if msg.Event != SSEEventChatMessageCreated {
			t.Fatalf("event = %q", msg.Event)
		}
	default:
		t.Fatalf("subscribed client received nothing")
	}
	select {
	case <-bob.Outbound:
		t.Fatalf("message leaked to another user's channel")
	default:
	}
}

func TestRemoveClientStopsDelivery(t *testing.T) {
	hub := newTestHub(t)
	client := hub.NewSSEClient(uuid.New())
	channel := client.UserID.String()
	hub.AddChannel(client, channel)
	hub.RemoveClient(client)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventChatTurnCompleted})
	select {
	case <-client.Outbound:
		t.Fatalf("removed client still receives messages")
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub(t)
	client := hub.NewSSEClient(uuid.New())
	channel := client.UserID.String()
	hub.AddChannel(client, channel)

	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventChatMessageCreated})
	}
	if len(client.Outbound) != cap(client.Outbound) {
		t.Fatalf("outbound len = %d, want full buffer %d", len(client.Outbound), cap(client.Outbound))
	}
}
