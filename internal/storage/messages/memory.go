// Package messages holds the chat message stores selectable at startup.
package messages

import (
	"context"
	"sync"

	"github.com/zhouzirui/peoplemap/backend/internal/model/chat"
)

// MemoryStore keeps messages in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items []chat.Message
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make([]chat.Message, 0, 64)}
}

// Insert appends msg.
func (s *MemoryStore) Insert(_ context.Context, msg chat.Message) error {
	s.mu.Lock()
	s.items = append(s.items, msg)
	s.mu.Unlock()
	return nil
}

// Between returns the messages exchanged by a and b in insertion order.
func (s *MemoryStore) Between(_ context.Context, a, b string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Message, 0)
	for _, msg := range s.items {
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close(context.Context) error { return nil }
