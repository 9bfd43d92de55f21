package slug

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryMappings is an in-process MappingStore safe for concurrent use.
type MemoryMappings struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryMappings returns an empty MemoryMappings.
func NewMemoryMappings() *MemoryMappings {
	return &MemoryMappings{data: make(map[string]string)}
}

func (m *MemoryMappings) Remember(_ context.Context, slug, original string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[slug]; !ok {
		m.data[slug] = original
	}
	return nil
}

func (m *MemoryMappings) Lookup(_ context.Context, slug string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[slug]
	return v, ok, nil
}

func (m *MemoryMappings) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

// Len returns the number of recorded mappings.
func (m *MemoryMappings) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// RedisMappings keeps slug mappings in a single Redis hash so that every
// instance behind a load balancer can reverse the same slugs.
type RedisMappings struct {
	client redis.UniversalClient
	key    string
}

// NewRedisMappings stores mappings in the hash named key.
func NewRedisMappings(client redis.UniversalClient, key string) *RedisMappings {
	if key == "" {
		key = "formgate:slugs"
	}
	return &RedisMappings{client: client, key: key}
}

func (m *RedisMappings) Remember(ctx context.Context, slug, original string) error {
	if err := m.client.HSetNX(ctx, m.key, slug, original).Err(); err != nil {
		return fmt.Errorf("redis hsetnx: %w", err)
	}
	return nil
}

func (m *RedisMappings) Lookup(ctx context.Context, slug string) (string, bool, error) {
	v, err := m.client.HGet(ctx, m.key, slug).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget: %w", err)
	}
	return v, true, nil
}

func (m *RedisMappings) Reset(ctx context.Context) error {
	if err := m.client.Del(ctx, m.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
