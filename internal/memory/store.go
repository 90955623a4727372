// Package memory remembers the last website audited in each conversation.
package memory

import (
	"context"
	"sync"
	"time"
)

type Store interface {
	Remember(ctx context.Context, conversationID string, url string) error
	// Recall returns the remembered URL and whether one was found.
	Recall(ctx context.Context, conversationID string) (string, bool, error)
}

type entry struct {
	url       string
	expiresAt time.Time
}

// InMemory is a process-local Store. A zero TTL keeps entries forever.
type InMemory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func NewInMemory(ttl time.Duration) *InMemory {
	return &InMemory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (s *InMemory) Remember(_ context.Context, conversationID string, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{url: url}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[conversationID] = e
	return nil
}

func (s *InMemory) Recall(_ context.Context, conversationID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[conversationID]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, conversationID)
		return "", false, nil
	}
	return e.url, true, nil
}
