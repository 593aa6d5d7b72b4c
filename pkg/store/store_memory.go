package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// InMemoryStore is a simple thread-safe map-based store for testing and local dev.
// It respects expiry but loses data on restart.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]*Entry
	now  func() time.Time
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: make(map[string]*Entry),
		now:  time.Now,
	}
}

func (s *InMemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok {
		return nil, nil
	}

	if entry.Expired(s.now()) {
		return nil, nil
	}

	// Return a copy so callers cannot mutate stored state
	return cloneEntry(entry), nil
}

func (s *InMemoryStore) Set(ctx context.Context, key string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := cloneEntry(entry)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = s.now()
	}
	s.data[key] = clone
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func cloneEntry(e *Entry) *Entry {
	out := &Entry{
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
		Metadata:  maps.Clone(e.Metadata),
	}
	if e.Value != nil {
		out.Value = proto.Clone(e.Value).(*structpb.Value)
	}
	return out
}
