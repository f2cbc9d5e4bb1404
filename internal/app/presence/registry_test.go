package presence

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeHandle records delivered payloads and kicks for assertions.
type fakeHandle struct {
	mu        sync.Mutex
	delivered [][]byte
	kicked    bool
	full      bool
}

func (h *fakeHandle) Deliver(payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.full {
		return errors.New("send queue full")
	}
	h.delivered = append(h.delivered, payload)
	return nil
}

func (h *fakeHandle) Kick(string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kicked = true
}

func (h *fakeHandle) deliveredCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.delivered)
}

func (h *fakeHandle) lastDelivered() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.delivered) == 0 {
		return nil
	}
	return h.delivered[len(h.delivered)-1]
}

func TestRegistry_AdmitAndSnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.Empty(registry.Snapshot())

	registry.Admit("alice", &fakeHandle{})
	registry.Admit("bob", &fakeHandle{})

	req.Equal([]string{"alice", "bob"}, registry.Snapshot())
}

func TestRegistry_AdmitReplacesPriorSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	h1 := &fakeHandle{}
	h2 := &fakeHandle{}

	prior, hadPrior := registry.Admit("alice", h1)
	req.False(hadPrior)
	req.Nil(prior)

	prior, hadPrior = registry.Admit("alice", h2)
	req.True(hadPrior)
	req.Same(h1, prior.(*fakeHandle))

	// Single-session policy: the identity appears exactly once.
	req.Equal([]string{"alice"}, registry.Snapshot())

	current, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(h2, current.(*fakeHandle))
}

func TestRegistry_EvictComparesHandles(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	h1 := &fakeHandle{}
	h2 := &fakeHandle{}

	registry.Admit("alice", h1)
	registry.Admit("alice", h2)

	// A stale cleanup presenting the superseded handle must not evict the
	// fresher session.
	req.False(registry.Evict("alice", h1))
	req.Equal([]string{"alice"}, registry.Snapshot())

	req.True(registry.Evict("alice", h2))
	req.Empty(registry.Snapshot())

	// Evicting an already-absent identity is a no-op.
	req.False(registry.Evict("alice", h2))
}

func TestRegistry_LookupHasNoSideEffects(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, ok := registry.Lookup("nobody")
	req.False(ok)

	h := &fakeHandle{}
	registry.Admit("alice", h)

	for range 3 {
		got, ok := registry.Lookup("alice")
		req.True(ok)
		req.Same(h, got.(*fakeHandle))
	}

	req.Equal([]string{"alice"}, registry.Snapshot())
}

func TestRegistry_SnapshotTracksAdmitEvictSequence(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	handles := map[string]*fakeHandle{
		"a": {}, "b": {}, "c": {},
	}

	for id, h := range handles {
		registry.Admit(id, h)
	}
	req.Equal([]string{"a", "b", "c"}, registry.Snapshot())

	registry.Evict("b", handles["b"])
	req.Equal([]string{"a", "c"}, registry.Snapshot())

	registry.Admit("b", handles["b"])
	req.Equal([]string{"a", "b", "c"}, registry.Snapshot())
}

func TestRegistry_ChangeSignalCoalesces(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// No broadcaster draining the channel: a burst of changes collapses into
	// a single pending wakeup.
	for i := range 5 {
		registry.Admit(string(rune('a'+i)), &fakeHandle{})
	}

	select {
	case <-registry.Changes():
	default:
		req.Fail("expected a pending change signal")
	}

	select {
	case <-registry.Changes():
		req.Fail("expected changes to be coalesced into one signal")
	default:
	}
}

func TestRegistry_ConcurrentAdmitEvict(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	var wg sync.WaitGroup
	identities := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	for _, id := range identities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h := &fakeHandle{}
				registry.Admit(id, h)
				registry.Evict(id, h)
			}
			registry.Admit(id, &fakeHandle{})
		}()
	}
	wg.Wait()

	req.Equal(identities, registry.Snapshot())
}
