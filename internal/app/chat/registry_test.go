package chat

import (
	"reflect"
	"testing"

	"dmchat/internal/pkg/errs"
)

func newTestClient(hub *Hub, userID string) *Client {
	return NewClient(hub, nil, userID)
}

func TestRegistryOnlineIdentities(t *testing.T) {
	hub := NewHub()
	reg := NewRegistry()

	alice1 := newTestClient(hub, "alice")
	alice2 := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")

	if got := reg.OnlineIdentities(); len(got) != 0 {
		t.Fatalf("empty registry reported online users: %v", got)
	}

	steps := []struct {
		name       string
		apply      func() bool
		wantChange bool
		wantOnline []string
	}{
		{
			name:       "first connection brings alice online",
			apply:      func() bool { changed, _ := reg.Register(alice1); return changed },
			wantChange: true,
			wantOnline: []string{"alice"},
		},
		{
			name:       "second device is not a presence change",
			apply:      func() bool { changed, _ := reg.Register(alice2); return changed },
			wantChange: false,
			wantOnline: []string{"alice"},
		},
		{
			name:       "bob comes online",
			apply:      func() bool { changed, _ := reg.Register(bob); return changed },
			wantChange: true,
			wantOnline: []string{"alice", "bob"},
		},
		{
			name:       "dropping one of two devices keeps alice online",
			apply:      func() bool { return reg.Unregister(alice1) },
			wantChange: false,
			wantOnline: []string{"alice", "bob"},
		},
		{
			name:       "dropping the last device takes alice offline",
			apply:      func() bool { return reg.Unregister(alice2) },
			wantChange: true,
			wantOnline: []string{"bob"},
		},
		{
			name:       "unregistering an unknown connection is a no-op",
			apply:      func() bool { return reg.Unregister(alice2) },
			wantChange: false,
			wantOnline: []string{"bob"},
		},
	}

	for _, step := range steps {
		changed := step.apply()
		if changed != step.wantChange {
			t.Fatalf("%s: presence change = %v, want %v", step.name, changed, step.wantChange)
		}
		if got := reg.OnlineIdentities(); !reflect.DeepEqual(got, step.wantOnline) {
			t.Fatalf("%s: online = %v, want %v", step.name, got, step.wantOnline)
		}
	}
}

func TestRegistryDuplicateConnection(t *testing.T) {
	hub := NewHub()
	reg := NewRegistry()

	client := newTestClient(hub, "alice")

	if _, err := reg.Register(client); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	_, err := reg.Register(client)
	if err == nil {
		t.Fatal("re-registering a live connection succeeded, want DuplicateConnection")
	}
	if err.Code != errs.ErrDuplicateConnection {
		t.Fatalf("error code = %d, want %d", err.Code, errs.ErrDuplicateConnection)
	}

	// The failed registration must not have disturbed the entry.
	if got := reg.OnlineIdentities(); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("online after duplicate = %v, want [alice]", got)
	}
	if conns := reg.ConnectionsFor("alice"); len(conns) != 1 {
		t.Fatalf("connection count after duplicate = %d, want 1", len(conns))
	}
}

func TestRegistryConnectionsFor(t *testing.T) {
	hub := NewHub()
	reg := NewRegistry()

	if conns := reg.ConnectionsFor("ghost"); len(conns) != 0 {
		t.Fatalf("offline user reported %d connections", len(conns))
	}

	first := newTestClient(hub, "alice")
	second := newTestClient(hub, "alice")
	if _, err := reg.Register(first); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Register(second); err != nil {
		t.Fatal(err)
	}

	conns := reg.ConnectionsFor("alice")
	if len(conns) != 2 {
		t.Fatalf("connection count = %d, want 2", len(conns))
	}
	for _, c := range conns {
		if c.UserID() != "alice" {
			t.Fatalf("connection bound to %q, want alice", c.UserID())
		}
	}
}
