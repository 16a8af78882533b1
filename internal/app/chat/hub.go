/*
Package chat contains the realtime session and presence layer.

This file defines the Hub struct, which owns the connection Registry and
serializes presence transitions with their broadcasts. It also hosts the
message router that fans newly persisted messages out to the recipient's
live connections.
*/
package chat

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
)

// Hub coordinates the connection registry, presence broadcasts, and message
// routing for the whole process.
type Hub struct {
	// mu serializes register/unregister calls with the presence-change
	// computation, so two near-simultaneous connect/disconnect events for the
	// same identity cannot interleave an inconsistent broadcast.
	mu sync.Mutex

	// registry is the single source of truth for who is online.
	registry *Registry

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub constructs a Hub with an empty registry.
func NewHub() *Hub {
	hubLogger := logx.Logger().With().Str("component", "Hub").Logger()

	return &Hub{
		registry: NewRegistry(),
		logger:   hubLogger,
	}
}

// Register adds the client's connection to the registry and, when the client's
// user just came online, broadcasts the new presence set to every live
// connection. Registering an already-live connection fails with
// ErrDuplicateConnection and leaves the registry untouched.
func (h *Hub) Register(client *Client) *errs.CustomError {
	h.mu.Lock()
	defer h.mu.Unlock()

	wentOnline, err := h.registry.Register(client)
	if err != nil {
		h.logger.Warn().
			Str("conn_id", client.id).
			Str("user_id", client.userID).
			Msg("Rejected duplicate connection registration.")
		return err
	}

	h.logger.Info().
		Str("conn_id", client.id).
		Str("user_id", client.userID).
		Bool("went_online", wentOnline).
		Msg("Connection registered.")

	if wentOnline {
		h.broadcastPresenceLocked()
	}

	return nil
}

// Unregister removes the client's connection and, when this was the user's
// last connection, broadcasts the shrunken presence set. Safe to call more
// than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	wentOffline := h.registry.Unregister(client)

	h.logger.Info().
		Str("conn_id", client.id).
		Str("user_id", client.userID).
		Bool("went_offline", wentOffline).
		Msg("Connection unregistered.")

	if wentOffline {
		h.broadcastPresenceLocked()
	}
}

// OnlineIdentities returns the current sorted set of online user ids.
func (h *Hub) OnlineIdentities() []string {
	return h.registry.OnlineIdentities()
}

// broadcastPresenceLocked recomputes the full online set and pushes it to
// every live connection, including the one whose state just changed. Delivery
// is best-effort per connection: a full send queue drops the frame, and the
// next presence change resends the complete set anyway.
func (h *Hub) broadcastPresenceLocked() {
	event, err := NewEvent(EventPresenceUpdate, PresencePayload{
		UserIDs: h.registry.OnlineIdentities(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build presence-update event.")
		return
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal presence-update event.")
		return
	}

	for _, client := range h.registry.allClients() {
		if !client.enqueue(eventBytes) {
			h.logger.Warn().
				Str("conn_id", client.id).
				Str("user_id", client.userID).
				Msg("Presence update dropped: client send queue full.")
		}
	}
}

// Shutdown closes the send queue of every live connection, terminating their
// write pumps. Connections unregister themselves as their read pumps fail.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger.Info().Msg("Shutting down Hub, closing all live connections...")

	for _, client := range h.registry.allClients() {
		client.closeSend()
	}
}
