package core

import (
	"context"
	"sync"
)

// Peer is one live connection as seen by the core layer.
// Send must be safe to call concurrently with the connection's own reader.
type Peer interface {
	// ID is a stable identifier used for logs.
	ID() string
	// Send delivers one chat message, honouring ctx for timeouts.
	Send(ctx context.Context, msg *Message) error
	// Close tears down the connection. Calling it more than once is allowed.
	Close(reason string) error
}

// Entry pairs a peer with the identity it authenticated as.
type Entry struct {
	Peer     Peer
	Identity Identity
}

// Registry is the set of open, authenticated connections.
// A single RWMutex serializes Register/Remove with Snapshot.
type Registry struct {
	mu      sync.RWMutex
	entries map[Peer]Identity
	max     int

	onChange func(size int)
}

// NewRegistry creates a registry. max <= 0 means no connection limit.
func NewRegistry(max int) *Registry {
	return &Registry{
		entries: make(map[Peer]Identity),
		max:     max,
	}
}

// OnChange installs a callback invoked with the new size after every
// successful Register or Remove. It runs under the registry lock so calls
// arrive in the same order as the changes; fn must not call back into the
// registry.
func (r *Registry) OnChange(fn func(size int)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Register adds peer with the given identity. Registering a peer that is
// already present replaces its identity and never creates a second entry.
func (r *Registry) Register(peer Peer, identity Identity) error {
	r.mu.Lock()
	if _, exists := r.entries[peer]; !exists && r.max > 0 && len(r.entries) >= r.max {
		r.mu.Unlock()
		return ErrRegistryFull
	}
	r.entries[peer] = identity
	r.notifyLocked()
	r.mu.Unlock()
	return nil
}

// Remove deletes peer. Returns true if it was present; removing an absent
// peer is a no-op.
func (r *Registry) Remove(peer Peer) bool {
	r.mu.Lock()
	if _, exists := r.entries[peer]; !exists {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, peer)
	r.notifyLocked()
	r.mu.Unlock()
	return true
}

func (r *Registry) notifyLocked() {
	if r.onChange != nil {
		r.onChange(len(r.entries))
	}
}

// Contains reports whether peer is registered.
func (r *Registry) Contains(peer Peer) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[peer]
	return ok
}

// Len returns the number of registered peers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a copy of the current entries. Callers may iterate it
// while other goroutines register or remove peers.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.entries))
	for peer, identity := range r.entries {
		entries = append(entries, Entry{Peer: peer, Identity: identity})
	}
	return entries
}
