/*
Package presence tracks which identities currently hold a live connection and
fans out the online set whenever it changes.

The Registry is the single piece of shared mutable state in the chat
subsystem; everything else coordinates through its atomic operations.
*/
package presence

import (
	"sort"
	"sync"
	"time"
)

// Handle is an abstract reference to one live bidirectional channel to a
// client. The registry never writes to or closes a handle itself; it only
// stores and hands them out.
type Handle interface {
	// Deliver enqueues an encoded event for the client without blocking.
	// It returns an error when the client's outbound queue is full or the
	// connection is already gone.
	Deliver(payload []byte) error

	// Kick asks the connection to close because its session was superseded.
	Kick(reason string)
}

// entry is one live registration. Owned exclusively by the registry.
type entry struct {
	handle      Handle
	connectedAt time.Time
}

// Registry is the authority on who is online. At most one entry exists per
// identity: a new admission for an already-registered identity replaces the
// previous one.
type Registry struct {
	// mu serializes every registry operation. Admit and Evict are compound
	// (lookup plus mutate) and must be atomic as a whole.
	mu sync.Mutex

	entries map[string]entry

	// changes carries presence-change wakeups to the broadcaster. Capacity 1
	// with a non-blocking send: consecutive changes coalesce into one wakeup,
	// and a slow broadcaster never blocks Admit or Evict.
	changes chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
		changes: make(chan struct{}, 1),
	}
}

// Admit registers handle for identity and returns the superseded handle, if
// any. The caller decides what to do with the old handle (typically Kick);
// the registry itself never closes it.
func (r *Registry) Admit(identity string, handle Handle) (Handle, bool) {
	r.mu.Lock()
	prior, hadPrior := r.entries[identity]
	r.entries[identity] = entry{handle: handle, connectedAt: time.Now()}
	r.mu.Unlock()

	r.notifyChange()

	if hadPrior {
		return prior.handle, true
	}
	return nil, false
}

// Evict removes the entry for identity only if the stored handle is the one
// presented (compare-and-remove). A stale disconnect racing a newer admission
// for the same identity therefore no-ops instead of evicting the fresh
// session. Returns whether an entry was removed.
func (r *Registry) Evict(identity string, handle Handle) bool {
	r.mu.Lock()
	current, ok := r.entries[identity]
	if !ok || current.handle != handle {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, identity)
	r.mu.Unlock()

	r.notifyChange()
	return true
}

// Lookup returns the live handle for identity, if any. No side effects.
func (r *Registry) Lookup(identity string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.entries[identity]
	if !ok {
		return nil, false
	}
	return current.handle, true
}

// Snapshot returns the identities currently online, sorted for stable output.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	identities := make([]string, 0, len(r.entries))
	for identity := range r.entries {
		identities = append(identities, identity)
	}
	r.mu.Unlock()

	sort.Strings(identities)
	return identities
}

// Handles returns every currently registered handle.
func (r *Registry) Handles() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles := make([]Handle, 0, len(r.entries))
	for _, e := range r.entries {
		handles = append(handles, e.handle)
	}
	return handles
}

// Changes exposes the coalesced change signal consumed by the broadcaster.
func (r *Registry) Changes() <-chan struct{} {
	return r.changes
}

// notifyChange wakes the broadcaster. A pending wakeup already covers this
// change, so the send never blocks.
func (r *Registry) notifyChange() {
	select {
	case r.changes <- struct{}{}:
	default:
	}
}
