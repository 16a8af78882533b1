/*
Package chat contains the realtime session and presence layer.

This file defines the Client struct, representing one live WebSocket
connection bound to one authenticated user for its whole lifetime. It manages
the connection's read/write loops and its registration with the Hub.
*/
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dmchat/internal/pkg/logx"
)

var (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	// A silent connection past this deadline is treated as failed and unregistered.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10
)

const (
	// maximum allowed size (in bytes) of an inbound frame. The socket is
	// server-push only, so inbound traffic beyond control frames is noise.
	maxMessageSize = 512

	// capacity of the outbound send queue per connection.
	sendQueueSize = 256
)

// Client represents one live connection and the user identity it is bound to.
// The Hub's registry owns the Client for its lifetime; handlers only hold a
// non-owning handle.
type Client struct {
	// id uniquely identifies this connection, distinct from the user id so a
	// user can hold several connections at once.
	id string

	// hub the connection registers with.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// userID is the verified identity this connection is bound to. Immutable
	// after the handshake; the server performs no re-verification per message.
	userID string

	// send queues outbound frames. The write pump drains it single-threaded,
	// which preserves enqueue order per connection.
	send chan []byte

	// closeOnce guards against double-closing the send queue.
	closeOnce sync.Once

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client bound to the given user identity.
func NewClient(hub *Hub, wsConn *websocket.Conn, userID string) *Client {
	connID := uuid.New().String()

	clientLogger := logx.Logger().With().
		Str("conn_id", connID).
		Str("user_id", userID).
		Logger()

	return &Client{
		id:     connID,
		hub:    hub,
		conn:   wsConn,
		userID: userID,
		send:   make(chan []byte, sendQueueSize),
		logger: clientLogger,
	}
}

// UserID returns the identity this connection is bound to.
func (c *Client) UserID() string {
	return c.userID
}

// ReadPump consumes the inbound side of the connection. The client never
// sends application frames, but the read loop is still required to process
// Pong control frames (the liveness heartbeat) and to detect closure. It
// unregisters the connection on exit.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection read failed (client close/going away)")
			}
			break
		}
		// Inbound application frames are ignored: message sends go over REST.
	}
}

// cleanupOnDisconnect unregisters the connection and closes the socket when
// the read pump terminates, whether by explicit logout close or transport failure.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.hub.Unregister(c)
	c.closeSend()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error during cleanup")
	}
}

// WritePump drains the send queue onto the WebSocket connection and emits
// periodic Ping frames to keep the heartbeat alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one frame pulled from the send queue.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping to maintain the heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue appends a frame to the send queue without blocking. It reports
// false when the queue is full; callers treat that as a dropped best-effort
// delivery.
func (c *Client) enqueue(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend closes the send queue exactly once, signalling the write pump to
// send a close frame and exit.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Close shuts down the outbound queue, terminating the write pump promptly.
// For connections that never registered (or were rejected), this is the only
// path that stops the pump; registered connections are also closed through
// their read pump's cleanup.
func (c *Client) Close() {
	c.closeSend()
}
