/*
Package chat contains the realtime session and presence layer.

This file defines the Registry struct, the single source of truth for which
users are online. It maps a user identity to its live connections (a user may
hold several, one per device or tab) and reports the binary online/offline
transitions that drive presence broadcasts.
*/
package chat

import (
	"sort"
	"sync"

	"dmchat/internal/pkg/errs"
)

// Registry is the process-wide mapping from user identity to live connections.
// All mutation goes through Register/Unregister; every other component only
// reads snapshots.
type Registry struct {
	// mu protects both indexes.
	mu sync.RWMutex

	// byUser maps a user id to its live connections, keyed by connection id.
	byUser map[string]map[string]*Client

	// byConn maps a connection id to its client, for duplicate detection and
	// O(1) removal.
	byConn map[string]*Client
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]*Client),
		byConn: make(map[string]*Client),
	}
}

// Register adds the client under its user identity. It reports whether the
// identity transitioned from offline to online (its first live connection).
// Registering a connection id that is already live fails with
// ErrDuplicateConnection; a second distinct connection for the same user is
// allowed and does not count as a presence change.
func (reg *Registry) Register(client *Client) (wentOnline bool, err *errs.CustomError) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.byConn[client.id]; exists {
		return false, errs.NewError(errs.ErrDuplicateConnection)
	}

	conns := reg.byUser[client.userID]
	if conns == nil {
		conns = make(map[string]*Client)
		reg.byUser[client.userID] = conns
	}

	conns[client.id] = client
	reg.byConn[client.id] = client

	return len(conns) == 1, nil
}

// Unregister removes the client from its user's entry. It reports whether the
// identity transitioned from online to offline (its last live connection).
// The entry is deleted atomically with the last connection's removal, so an
// entry exists iff at least one live connection does. Unregistering an unknown
// connection is a no-op.
func (reg *Registry) Unregister(client *Client) (wentOffline bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.byConn[client.id]; !exists {
		return false
	}
	delete(reg.byConn, client.id)

	conns := reg.byUser[client.userID]
	delete(conns, client.id)

	if len(conns) == 0 {
		delete(reg.byUser, client.userID)
		return true
	}

	return false
}

// ConnectionsFor returns the live connections of the given identity, empty
// when the user is offline.
func (reg *Registry) ConnectionsFor(userID string) []*Client {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	conns := reg.byUser[userID]
	clients := make([]*Client, 0, len(conns))
	for _, client := range conns {
		clients = append(clients, client)
	}

	return clients
}

// OnlineIdentities returns a sorted snapshot of every user id with at least
// one live connection.
func (reg *Registry) OnlineIdentities() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	ids := make([]string, 0, len(reg.byUser))
	for userID := range reg.byUser {
		ids = append(ids, userID)
	}
	sort.Strings(ids)

	return ids
}

// allClients returns a snapshot of every live connection, for presence fan-out.
func (reg *Registry) allClients() []*Client {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	clients := make([]*Client, 0, len(reg.byConn))
	for _, client := range reg.byConn {
		clients = append(clients, client)
	}

	return clients
}
