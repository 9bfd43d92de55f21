package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries bounds a MemoryStore created with size <= 0.
const DefaultMemoryEntries = 4096

type memEntry struct {
	value      []byte
	absolute   time.Time
	sliding    time.Duration
	lastAccess time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	if !now.Before(e.absolute) {
		return true
	}
	return e.sliding > 0 && !now.Before(e.lastAccess.Add(e.sliding))
}

// MemoryStore is an in-process Store bounded by an LRU. Expired entries are
// dropped lazily when read.
type MemoryStore struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *memEntry]
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a MemoryStore holding at most size entries.
func NewMemoryStore(size int, opts ...MemoryOption) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	entries, err := lru.New[string, *memEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	s := &MemoryStore{entries: entries, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	now := s.now()
	if e.expired(now) {
		s.entries.Remove(key)
		return nil, false, nil
	}
	e.lastAccess = now
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, exp Expiration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries.Add(key, &memEntry{
		value:      value,
		absolute:   now.Add(exp.TTL),
		sliding:    exp.Sliding,
		lastAccess: now,
	})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Remove(key)
	return nil
}

// Len reports the number of entries held, expired or not.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
