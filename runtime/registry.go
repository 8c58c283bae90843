// Package runtime holds the shared chat state and the components that
// deliver lines to it: the registry, the broadcaster and the whisper router.
package runtime

import (
	"fmt"
	"line-chat/contract"
	"line-chat/errors"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Registry maps live connections to their display names.
// Entries keep their registration order, which makes snapshots stable
// and name lookups deterministic when names collide.
// The lock only guards the structure, never socket I/O.
type Registry struct {
	mu      sync.RWMutex
	members []contract.Member
	index   map[contract.Peer]struct{}
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[contract.Peer]struct{})}
}

// Add registers a peer once its handshake succeeded.
// Names are not required to be unique.
func (r *Registry) Add(peer contract.Peer, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[peer]; ok {
		return fmt.Errorf("%w: %s", errors.ErrAlreadyRegistered, peer.ID())
	}
	r.index[peer] = struct{}{}
	r.members = append(r.members, contract.Member{Peer: peer, Name: name, JoinedAt: time.Now().UTC()})
	return nil
}

// Remove unregisters a peer and returns the name it had.
// It is idempotent: every teardown path may call it.
func (r *Registry) Remove(peer contract.Peer) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[peer]; !ok {
		return "", false
	}
	delete(r.index, peer)
	member, i, _ := lo.FindIndexOf(r.members, func(m contract.Member) bool {
		return m.Peer == peer
	})
	r.members = append(r.members[:i:i], r.members[i+1:]...)
	return member.Name, true
}

// LookupByName returns the earliest registered peer using that name.
func (r *Registry) LookupByName(name string) (contract.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := lo.Find(r.members, func(m contract.Member) bool {
		return m.Name == name
	})
	return member.Peer, ok
}

// Snapshot copies the entries so callers can iterate and write without
// holding the lock.
func (r *Registry) Snapshot() []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]contract.Member, len(r.members))
	copy(snapshot, r.members)
	return snapshot
}

// Clear empties the registry and returns what it held.
func (r *Registry) Clear() []contract.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.members
	r.members = nil
	r.index = make(map[contract.Peer]struct{})
	return members
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
