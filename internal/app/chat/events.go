/*
Package chat contains the realtime session and presence layer: the connection
registry, the presence broadcaster, and the message router.

This file defines the typed events carried over a live connection. The wire
contract is deliberately small: the server pushes full presence snapshots and
newly persisted messages; clients send nothing but transport-level pongs.
*/
package chat

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event carried by an Event envelope.
type EventType string

const (
	// EventPresenceUpdate carries the full authoritative set of online user
	// ids. Receivers always replace their local set, never merge.
	EventPresenceUpdate EventType = "presence-update"

	// EventNewMessage carries a newly persisted message routed to the
	// recipient's live connections.
	EventNewMessage EventType = "new-message"
)

// Event is the envelope for every frame pushed over a live connection.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent constructs an Event of the given type with the marshaled payload.
func NewEvent(eventType EventType, payload any) (Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{
		Type:    eventType,
		Payload: payloadBytes,
	}, nil
}

// PresencePayload is the payload of an EventPresenceUpdate frame.
type PresencePayload struct {
	// UserIDs is the complete sorted set of currently online user ids.
	UserIDs []string `json:"userIds"`
}

// Message is the persisted message record routed to live connections.
// The registry layer never mutates a Message; it is created by the storage
// layer before routing and delivered as-is.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
