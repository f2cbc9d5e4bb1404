package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and database-less development.
type MemoryStore struct {
	mu       sync.RWMutex
	messages []Message
	byID     map[string]struct{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]struct{}),
	}
}

// Append stores the message in insertion order. Re-appending a known id is a
// no-op, matching the Postgres implementation.
func (s *MemoryStore) Append(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[msg.ID]; ok {
		return nil
	}

	s.byID[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)
	return nil
}

// ListBetween returns the conversation between two identities, oldest first.
func (s *MemoryStore) ListBetween(_ context.Context, identityA, identityB string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Message
	for _, msg := range s.messages {
		if (msg.SenderID == identityA && msg.RecipientID == identityB) ||
			(msg.SenderID == identityB && msg.RecipientID == identityA) {
			result = append(result, msg)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// All returns a copy of every stored message in insertion order.
func (s *MemoryStore) All() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
