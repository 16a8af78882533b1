package chat

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"dmchat/internal/pkg/errs"
)

// nextEvent pops one queued frame from the client's send queue and decodes it.
func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()

	select {
	case frame := <-c.send:
		var event Event
		if err := json.Unmarshal(frame, &event); err != nil {
			t.Fatalf("undecodable frame: %v", err)
		}
		return event
	default:
		t.Fatal("no event queued")
		return Event{}
	}
}

func presenceSet(t *testing.T, event Event) []string {
	t.Helper()

	if event.Type != EventPresenceUpdate {
		t.Fatalf("event type = %q, want %q", event.Type, EventPresenceUpdate)
	}

	var payload PresencePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("undecodable presence payload: %v", err)
	}
	return payload.UserIDs
}

func routedMessage(t *testing.T, event Event) Message {
	t.Helper()

	if event.Type != EventNewMessage {
		t.Fatalf("event type = %q, want %q", event.Type, EventNewMessage)
	}

	var message Message
	if err := json.Unmarshal(event.Payload, &message); err != nil {
		t.Fatalf("undecodable message payload: %v", err)
	}
	return message
}

func queuedFrames(c *Client) int {
	return len(c.send)
}

func TestHubPresenceBroadcasts(t *testing.T) {
	hub := NewHub()

	alice1 := newTestClient(hub, "alice")
	if err := hub.Register(alice1); err != nil {
		t.Fatalf("register alice1: %v", err)
	}

	// The identity whose own state changed receives the broadcast too.
	if got := presenceSet(t, nextEvent(t, alice1)); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("presence = %v, want [alice]", got)
	}

	// A second device for the same user is not a presence change: no broadcast.
	alice2 := newTestClient(hub, "alice")
	if err := hub.Register(alice2); err != nil {
		t.Fatalf("register alice2: %v", err)
	}
	if n := queuedFrames(alice1) + queuedFrames(alice2); n != 0 {
		t.Fatalf("second device triggered %d broadcast frames, want 0", n)
	}

	// Bob coming online reaches every live connection.
	bob := newTestClient(hub, "bob")
	if err := hub.Register(bob); err != nil {
		t.Fatalf("register bob: %v", err)
	}
	for _, c := range []*Client{alice1, alice2, bob} {
		if got := presenceSet(t, nextEvent(t, c)); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
			t.Fatalf("presence on %s = %v, want [alice bob]", c.id, got)
		}
	}

	// Dropping one of alice's devices: still online, no broadcast.
	hub.Unregister(alice2)
	if n := queuedFrames(alice1) + queuedFrames(bob); n != 0 {
		t.Fatalf("intra-identity disconnect triggered %d frames, want 0", n)
	}

	// Dropping the last one takes alice offline: exactly one broadcast.
	hub.Unregister(alice1)
	if got := presenceSet(t, nextEvent(t, bob)); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Fatalf("presence = %v, want [bob]", got)
	}
	if n := queuedFrames(bob); n != 0 {
		t.Fatalf("offline transition queued %d extra frames, want 0", n)
	}
}

func TestHubRegisterDuplicate(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, "alice")
	if err := hub.Register(client); err != nil {
		t.Fatalf("first register: %v", err)
	}

	err := hub.Register(client)
	if err == nil {
		t.Fatal("duplicate register succeeded")
	}
	if err.Code != errs.ErrDuplicateConnection {
		t.Fatalf("error code = %d, want %d", err.Code, errs.ErrDuplicateConnection)
	}
}

func TestRouteToOfflineRecipientIsNoOp(t *testing.T) {
	hub := NewHub()

	sender := newTestClient(hub, "alice")
	if err := hub.Register(sender); err != nil {
		t.Fatal(err)
	}
	nextEvent(t, sender) // drain own presence broadcast

	hub.Route(Message{
		ID:         "m1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Text:       "hi",
		CreatedAt:  time.Now(),
	})

	// No delivery anywhere, and the registry is untouched.
	if n := queuedFrames(sender); n != 0 {
		t.Fatalf("offline route queued %d frames on sender, want 0", n)
	}
	if got := hub.OnlineIdentities(); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("online after offline route = %v, want [alice]", got)
	}
}

func TestRoutePreservesSenderOrder(t *testing.T) {
	hub := NewHub()

	bob := newTestClient(hub, "bob")
	if err := hub.Register(bob); err != nil {
		t.Fatal(err)
	}
	nextEvent(t, bob) // drain presence broadcast

	first := Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "one"}
	second := Message{ID: "m2", SenderID: "alice", ReceiverID: "bob", Text: "two"}

	hub.Route(first)
	hub.Route(second)

	if got := routedMessage(t, nextEvent(t, bob)); got.ID != "m1" {
		t.Fatalf("first delivery = %s, want m1", got.ID)
	}
	if got := routedMessage(t, nextEvent(t, bob)); got.ID != "m2" {
		t.Fatalf("second delivery = %s, want m2", got.ID)
	}
}

func TestRouteFansOutToAllDevices(t *testing.T) {
	hub := NewHub()

	device1 := newTestClient(hub, "alice")
	device2 := newTestClient(hub, "alice")
	if err := hub.Register(device1); err != nil {
		t.Fatal(err)
	}
	if err := hub.Register(device2); err != nil {
		t.Fatal(err)
	}
	nextEvent(t, device1) // only the first registration broadcast presence

	message := Message{ID: "m1", SenderID: "bob", ReceiverID: "alice", Text: "yo"}
	hub.Route(message)

	for _, device := range []*Client{device1, device2} {
		got := routedMessage(t, nextEvent(t, device))
		if got.ID != "m1" || got.SenderID != "bob" {
			t.Fatalf("device %s received %+v, want message m1 from bob", device.id, got)
		}
	}
}

func TestRouteDropsWhenQueueFull(t *testing.T) {
	hub := NewHub()

	bob := newTestClient(hub, "bob")
	if err := hub.Register(bob); err != nil {
		t.Fatal(err)
	}
	nextEvent(t, bob)

	// Saturate the send queue; further deliveries must drop, not block.
	for i := 0; i < sendQueueSize; i++ {
		if !bob.enqueue([]byte("x")) {
			t.Fatalf("queue filled early at %d", i)
		}
	}

	done := make(chan struct{})
	go func() {
		hub.Route(Message{ID: "m1", SenderID: "alice", ReceiverID: "bob"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Route blocked on a full send queue")
	}
}
