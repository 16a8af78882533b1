/*
Package chat contains the realtime session and presence layer.

This file hosts the message router: delivery of newly persisted messages to
the recipient's live connections.
*/
package chat

import "encoding/json"

// Route delivers an already-persisted message to every live connection of its
// recipient. An offline recipient is a no-op: the message is retrievable via
// the conversation history on the next login. Each delivery is independent and
// best-effort; a full send queue on one connection never affects the others,
// and is never retried here because persistence, not live delivery, is the
// sender's success criterion.
//
// Per-connection FIFO holds because each connection drains its send queue
// single-threaded in its write pump: two messages routed in order from the
// same sender are enqueued in order and written in order.
func (h *Hub) Route(message Message) {
	targets := h.registry.ConnectionsFor(message.ReceiverID)
	if len(targets) == 0 {
		return
	}

	event, err := NewEvent(EventNewMessage, message)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("message_id", message.ID).
			Msg("Failed to build new-message event.")
		return
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("message_id", message.ID).
			Msg("Failed to marshal new-message event.")
		return
	}

	for _, client := range targets {
		if !client.enqueue(eventBytes) {
			h.logger.Warn().
				Str("conn_id", client.id).
				Str("user_id", client.userID).
				Str("message_id", message.ID).
				Msg("Live delivery dropped: client send queue full.")
		}
	}
}
