/*
Package session implements the client-side half of the realtime protocol.

This file contains the conversation subscription: a pure-data filter binding
live-message acceptance to one selected peer, plus the in-memory transcript of
the open conversation.
*/
package session

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"dmchat/internal/app/chat"
	"dmchat/internal/pkg/errs"
)

// Subscribe binds live-message delivery to the given peer: only messages whose
// sender equals peerID are appended to the transcript. Subscribing while
// already subscribed to a different peer silently replaces the filter; at most
// one subscription is active per session. An empty peerID fails with
// ErrNoPeerSelected.
//
// When a HistoryReader is configured, the transcript is backfilled from
// persisted history, closing the gap between the last live delivery and this
// call. The live layer itself never buffers or replays.
func (s *Session) Subscribe(ctx context.Context, peerID string) *errs.CustomError {
	if peerID == "" {
		return errs.NewError(errs.ErrNoPeerSelected)
	}

	s.mu.Lock()
	s.selectedPeer = peerID
	s.transcript = nil
	s.mu.Unlock()

	if s.cfg.History == nil {
		return nil
	}

	backfill, err := s.cfg.History.Conversation(ctx, peerID)
	if err != nil {
		// The filter stays active; the transcript just starts from the next
		// live message. History stays retrievable on a later read.
		s.logger.Warn().Err(err).Str("peer_id", peerID).Msg("Transcript backfill failed.")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent Subscribe/Unsubscribe may have replaced the filter while
	// the history read was in flight; its backfill wins, not ours.
	if s.selectedPeer != peerID {
		return nil
	}

	s.transcript = append(backfill, s.transcript...)
	return nil
}

// Unsubscribe removes the filter entirely. Messages arriving afterward are not
// appended anywhere by this layer; they remain retrievable via history.
func (s *Session) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedPeer = ""
	s.transcript = nil
}

// SelectedPeer returns the peer id the session is currently subscribed to,
// empty when unsubscribed.
func (s *Session) SelectedPeer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedPeer
}

// Transcript returns a copy of the open conversation's in-memory transcript.
func (s *Session) Transcript() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	transcript := make([]chat.Message, len(s.transcript))
	copy(transcript, s.transcript)
	return transcript
}

// deliver applies the subscription filter to one live message: accepted when
// its sender equals the selected peer, silently dropped otherwise. A frame
// from a connection the session no longer owns is dropped before filtering.
func (s *Session) deliver(conn *websocket.Conn, message chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != conn {
		return
	}

	if s.selectedPeer == "" || message.SenderID != s.selectedPeer {
		return
	}

	s.transcript = append(s.transcript, message)
}

// decodeEvent unmarshals a raw frame into an Event envelope.
func decodeEvent(data []byte) (chat.Event, error) {
	var event chat.Event
	err := json.Unmarshal(data, &event)
	return event, err
}

// decodePayload unmarshals an event payload into dst.
func decodePayload(payload json.RawMessage, dst any) error {
	return json.Unmarshal(payload, dst)
}
