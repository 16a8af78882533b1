package session

import (
	"context"
	"errors"
	"testing"

	"dmchat/internal/app/chat"
	"dmchat/internal/pkg/errs"
)

// fakeHistory is a canned HistoryReader keyed by peer id.
type fakeHistory struct {
	transcripts map[string][]chat.Message
	err         error
	calls       []string
}

func (f *fakeHistory) Conversation(_ context.Context, peerID string) ([]chat.Message, error) {
	f.calls = append(f.calls, peerID)
	if f.err != nil {
		return nil, f.err
	}
	return f.transcripts[peerID], nil
}

// msg builds a live message. Filter tests run on sessions with no live
// connection, so deliveries pass a nil conn to match the session's own.
func msg(id, sender string) chat.Message {
	return chat.Message{ID: id, SenderID: sender, ReceiverID: "me", Text: "t-" + id}
}

func TestSubscribeRequiresPeer(t *testing.T) {
	s := New(Config{})

	err := s.Subscribe(context.Background(), "")
	if err == nil || err.Code != errs.ErrNoPeerSelected {
		t.Fatalf("Subscribe(\"\") err = %v, want code %d", err, errs.ErrNoPeerSelected)
	}
	if peer := s.SelectedPeer(); peer != "" {
		t.Fatalf("failed Subscribe set peer %q", peer)
	}
}

func TestSubscriptionFiltersBySender(t *testing.T) {
	s := New(Config{})

	if err := s.Subscribe(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}

	s.deliver(nil, msg("m1", "alice"))
	s.deliver(nil, msg("m2", "bob")) // not the selected peer
	s.deliver(nil, msg("m3", "alice"))

	transcript := s.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(transcript))
	}
	if transcript[0].ID != "m1" || transcript[1].ID != "m3" {
		t.Fatalf("transcript = %v, want [m1 m3]", transcript)
	}
}

func TestDeliverWithoutSubscriptionDrops(t *testing.T) {
	s := New(Config{})

	s.deliver(nil, msg("m1", "alice"))

	if transcript := s.Transcript(); len(transcript) != 0 {
		t.Fatalf("unsubscribed session accepted %d messages", len(transcript))
	}
}

func TestSubscribeReplacesSilently(t *testing.T) {
	s := New(Config{})

	if err := s.Subscribe(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	s.deliver(nil, msg("m1", "alice"))

	// Switching peers replaces the filter and resets the transcript.
	if err := s.Subscribe(context.Background(), "bob"); err != nil {
		t.Fatal(err)
	}
	if peer := s.SelectedPeer(); peer != "bob" {
		t.Fatalf("selected peer = %q, want bob", peer)
	}
	if transcript := s.Transcript(); len(transcript) != 0 {
		t.Fatalf("transcript carried over across peers: %v", transcript)
	}

	// Messages from the previous peer now drop.
	s.deliver(nil, msg("m2", "alice"))
	s.deliver(nil, msg("m3", "bob"))

	transcript := s.Transcript()
	if len(transcript) != 1 || transcript[0].ID != "m3" {
		t.Fatalf("transcript = %v, want [m3]", transcript)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New(Config{})

	if err := s.Subscribe(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	s.deliver(nil, msg("m1", "alice"))

	s.Unsubscribe()

	if peer := s.SelectedPeer(); peer != "" {
		t.Fatalf("selected peer after Unsubscribe = %q, want empty", peer)
	}
	if transcript := s.Transcript(); len(transcript) != 0 {
		t.Fatalf("transcript after Unsubscribe = %v, want empty", transcript)
	}

	s.deliver(nil, msg("m2", "alice"))
	if transcript := s.Transcript(); len(transcript) != 0 {
		t.Fatal("delivery accepted after Unsubscribe")
	}
}

func TestSubscribeBackfillsFromHistory(t *testing.T) {
	history := &fakeHistory{
		transcripts: map[string][]chat.Message{
			"alice": {msg("h1", "alice"), msg("h2", "me")},
		},
	}
	s := New(Config{History: history})

	if err := s.Subscribe(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}

	transcript := s.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("backfilled transcript length = %d, want 2", len(transcript))
	}
	if transcript[0].ID != "h1" || transcript[1].ID != "h2" {
		t.Fatalf("backfill order = %v, want [h1 h2]", transcript)
	}
	if len(history.calls) != 1 || history.calls[0] != "alice" {
		t.Fatalf("history calls = %v, want [alice]", history.calls)
	}

	// Live messages append after the backfill.
	s.deliver(nil, msg("m1", "alice"))
	transcript = s.Transcript()
	if len(transcript) != 3 || transcript[2].ID != "m1" {
		t.Fatalf("transcript after live delivery = %v, want backfill then m1", transcript)
	}
}

func TestSubscribeSurvivesHistoryFailure(t *testing.T) {
	history := &fakeHistory{err: errors.New("store unavailable")}
	s := New(Config{History: history})

	// The filter activates even when the backfill read fails.
	if err := s.Subscribe(context.Background(), "alice"); err != nil {
		t.Fatalf("Subscribe failed on history error: %v", err)
	}
	if peer := s.SelectedPeer(); peer != "alice" {
		t.Fatalf("selected peer = %q, want alice", peer)
	}

	s.deliver(nil, msg("m1", "alice"))
	transcript := s.Transcript()
	if len(transcript) != 1 || transcript[0].ID != "m1" {
		t.Fatalf("transcript = %v, want [m1]", transcript)
	}
}
