package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndRemove(t *testing.T) {
	reg := NewRegistry(0)
	alice := newFakePeer("alice")
	bob := newFakePeer("bob")

	require.NoError(t, reg.Register(alice, Identity{Email: "alice@example.com", Username: "alice"}))
	require.NoError(t, reg.Register(bob, Identity{Email: "bob@example.com", Username: "bob"}))
	require.Equal(t, 2, reg.Len())

	require.True(t, reg.Remove(alice))
	require.False(t, reg.Contains(alice))
	require.Equal(t, 1, reg.Len())
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry(0)
	peer := newFakePeer("p")

	var sizes []int
	reg.OnChange(func(size int) { sizes = append(sizes, size) })

	require.NoError(t, reg.Register(peer, Identity{Email: "p@example.com"}))
	require.True(t, reg.Remove(peer))
	require.False(t, reg.Remove(peer))
	require.Equal(t, 0, reg.Len())
	require.Equal(t, []int{1, 0}, sizes, "second remove must not report a change")
}

func TestRegistryReRegisterDoesNotDuplicate(t *testing.T) {
	reg := NewRegistry(0)
	peer := newFakePeer("p")

	require.NoError(t, reg.Register(peer, Identity{Email: "old@example.com"}))
	require.NoError(t, reg.Register(peer, Identity{Email: "new@example.com"}))

	entries := reg.Snapshot()
	require.Len(t, entries, 1)
	require.Equal(t, "new@example.com", entries[0].Identity.Email)
}

func TestRegistryCapacity(t *testing.T) {
	reg := NewRegistry(2)
	a, b, c := newFakePeer("a"), newFakePeer("b"), newFakePeer("c")

	require.NoError(t, reg.Register(a, Identity{}))
	require.NoError(t, reg.Register(b, Identity{}))
	require.ErrorIs(t, reg.Register(c, Identity{}), ErrRegistryFull)

	// Re-registering an existing peer at capacity is allowed.
	require.NoError(t, reg.Register(a, Identity{Email: "a@example.com"}))

	reg.Remove(b)
	require.NoError(t, reg.Register(c, Identity{}))
	require.Equal(t, 2, reg.Len())
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	reg := NewRegistry(0)
	peer := newFakePeer("p")
	require.NoError(t, reg.Register(peer, Identity{}))

	snap := reg.Snapshot()
	reg.Remove(peer)

	require.Len(t, snap, 1)
	require.Equal(t, 0, reg.Len())
}

func TestRegistryConcurrentChurn(t *testing.T) {
	reg := NewRegistry(0)
	const workers = 16
	const rounds = 200

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			peer := newFakePeer(fmt.Sprintf("peer-%d", w))
			for range rounds {
				_ = reg.Register(peer, Identity{})
				_ = reg.Register(peer, Identity{})
				_ = reg.Snapshot()
				reg.Remove(peer)
				if reg.Contains(peer) {
					t.Errorf("peer %s still registered after Remove", peer.ID())
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range rounds {
			seen := make(map[Peer]struct{})
			for _, entry := range reg.Snapshot() {
				if _, dup := seen[entry.Peer]; dup {
					t.Errorf("duplicate entry for %s", entry.Peer.ID())
					return
				}
				seen[entry.Peer] = struct{}{}
			}
		}
	}()

	wg.Wait()
	require.Equal(t, 0, reg.Len())
}

func TestRegistryOnChangeTracksFinalSize(t *testing.T) {
	reg := NewRegistry(0)

	var (
		mu   sync.Mutex
		last = -1
	)
	reg.OnChange(func(size int) {
		mu.Lock()
		last = size
		mu.Unlock()
	})

	const workers = 16
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			peer := newFakePeer(fmt.Sprintf("peer-%d", w))
			for range 100 {
				_ = reg.Register(peer, Identity{})
				reg.Remove(peer)
			}
			if w%2 == 0 {
				_ = reg.Register(peer, Identity{})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, workers/2, reg.Len())
	require.Equal(t, reg.Len(), last)
}
