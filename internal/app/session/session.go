/*
Package session implements the client-side half of the realtime protocol: the
session lifecycle state machine that binds a live connection to the
authenticated user, the local presence cache, and the conversation
subscription filter.

A Session owns exactly zero or one live connection. Connect is driven by the
authentication flow (login success or session-restore); Logout or a transport
failure tears the connection down. The session never reconnects on its own; a
fresh login or auth-check is required.
*/
package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dmchat/internal/app/chat"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
)

// State is the lifecycle state of a Session.
type State int

const (
	// Disconnected means no live connection exists and none is being established.
	Disconnected State = iota

	// Connecting means the WebSocket handshake is in flight.
	Connecting

	// Connected means a live connection is bound and the read loop is running.
	Connected
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// HistoryReader retrieves the persisted transcript with a peer. A newly
// subscribed session uses it to backfill the gap the live layer does not
// buffer.
type HistoryReader interface {
	Conversation(ctx context.Context, peerID string) ([]chat.Message, error)
}

// Config carries the parameters needed to establish a session.
type Config struct {
	// URL is the server's WebSocket endpoint (ws:// or wss://).
	URL string

	// AuthToken is the identity token issued at login, presented as the
	// session cookie during the handshake.
	AuthToken string

	// History backfills transcripts on Subscribe. Optional; without it a new
	// subscription starts from the next live message.
	History HistoryReader

	// Dialer overrides the default WebSocket dialer, mainly for tests.
	Dialer *websocket.Dialer
}

// Session is one client instance's connection lifecycle manager.
type Session struct {
	cfg Config

	// mu guards all mutable state below.
	mu sync.Mutex

	state State
	conn  *websocket.Conn

	// dials counts Connect attempts. A dial that returns after Logout (or a
	// newer Connect) has moved the session on sees a stale count and must not
	// commit its connection.
	dials uint64

	presence     []string
	selectedPeer string
	transcript   []chat.Message

	// structured logger with session context.
	logger zerolog.Logger
}

// New constructs a Session in the Disconnected state.
func New(cfg Config) *Session {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	return &Session{
		cfg:    cfg,
		logger: logx.Logger().With().Str("component", "Session").Logger(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Presence returns a copy of the last presence snapshot pushed by the server.
func (s *Session) Presence() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]string, len(s.presence))
	copy(snapshot, s.presence)
	return snapshot
}

// Connect establishes the live connection. Calling Connect while Connecting
// or Connected is a no-op, enforcing at most one active connection per
// session. A handshake failure is reported to the caller and is not retried;
// the session returns to Disconnected.
func (s *Session) Connect(ctx context.Context) *errs.CustomError {
	s.mu.Lock()
	if s.state != Disconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = Connecting
	s.dials++
	attempt := s.dials
	s.mu.Unlock()

	header := http.Header{}
	if s.cfg.AuthToken != "" {
		header.Set("Cookie", jwt.SessionCookieName+"="+s.cfg.AuthToken)
	}

	conn, resp, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("url", s.cfg.URL).Msg("Handshake failed.")

		s.mu.Lock()
		if s.dials == attempt && s.state == Connecting {
			s.state = Disconnected
		}
		s.mu.Unlock()

		return errs.NewError(errs.ErrConnectionLost)
	}

	s.mu.Lock()
	if s.dials != attempt || s.state != Connecting {
		// Logout raced the handshake and already moved the session on. The
		// dialed connection must not be committed; drop it.
		s.mu.Unlock()
		_ = conn.Close()

		s.logger.Info().Str("url", s.cfg.URL).Msg("Handshake abandoned: session moved on during dial.")
		return errs.NewError(errs.ErrConnectionLost)
	}
	s.conn = conn
	s.state = Connected
	s.mu.Unlock()

	s.logger.Info().Str("url", s.cfg.URL).Msg("Session connected.")

	go s.readLoop(conn)

	return nil
}

// Logout closes the live connection and returns the session to Disconnected,
// discarding the presence cache and any active conversation subscription.
// A no-op when already Disconnected.
func (s *Session) Logout() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		// Best-effort close frame; the read loop finishes the teardown.
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "logout"),
		)
		_ = conn.Close()
	}

	s.teardown(conn)
}

// readLoop consumes server-pushed events until the connection fails or is
// closed, then tears the session down. Transport failure is the only exit.
// The owning conn travels with every call so that a loop outliving its
// connection (Logout followed by a fresh Connect) cannot touch the
// replacement's state.
func (s *Session) readLoop(conn *websocket.Conn) {
	defer s.teardown(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Connection lost.")
			}
			return
		}

		s.handleEvent(conn, data)
	}
}

// handleEvent dispatches one server-pushed frame from the given connection.
func (s *Session) handleEvent(conn *websocket.Conn, data []byte) {
	event, err := decodeEvent(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Server sent an undecodable event.")
		return
	}

	switch event.Type {
	case chat.EventPresenceUpdate:
		var payload chat.PresencePayload
		if err := decodePayload(event.Payload, &payload); err != nil {
			s.logger.Warn().Err(err).Msg("Invalid presence-update payload.")
			return
		}
		s.replacePresence(conn, payload.UserIDs)

	case chat.EventNewMessage:
		var message chat.Message
		if err := decodePayload(event.Payload, &message); err != nil {
			s.logger.Warn().Err(err).Msg("Invalid new-message payload.")
			return
		}
		s.deliver(conn, message)

	default:
		s.logger.Warn().Str("event_type", string(event.Type)).Msg("Server sent an unknown event type.")
	}
}

// replacePresence swaps in the full authoritative presence set. Snapshots are
// always replaced, never merged, so a dropped update self-heals on the next
// one. A frame from a connection the session no longer owns is dropped.
func (s *Session) replacePresence(conn *websocket.Conn, userIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected || s.conn != conn {
		return
	}
	s.presence = userIDs
}

// teardown moves the session to Disconnected and discards connection-scoped
// state: the presence cache and the conversation subscription. Idempotent. A
// call owned by a connection that has already been replaced is a no-op, so a
// stale read loop cannot tear down its successor.
func (s *Session) teardown(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Disconnected {
		return
	}
	if s.conn != conn {
		return
	}

	s.state = Disconnected
	s.conn = nil
	s.presence = nil
	s.selectedPeer = ""
	s.transcript = nil

	s.logger.Info().Msg("Session disconnected.")
}
