package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// envelope is what RedisStore writes under each key. Redis only knows the
// relative TTL, so the absolute deadline travels with the value.
type envelope struct {
	Value    []byte        `json:"v"`
	Absolute time.Time     `json:"a"`
	Sliding  time.Duration `json:"s,omitempty"`
}

// RedisStore is a Store shared between instances through Redis. The Redis
// key TTL is min(sliding, remaining absolute) and is pushed out on each read.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a RedisStore. Every key is written as prefix+key.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k := s.prefix + key
	raw, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, fmt.Errorf("decode envelope: %w", err)
	}

	remaining := env.Absolute.Sub(s.now())
	if remaining <= 0 {
		s.client.Del(ctx, k)
		return nil, false, nil
	}
	if env.Sliding > 0 {
		if err := s.client.PExpire(ctx, k, min(env.Sliding, remaining)).Err(); err != nil {
			return nil, false, fmt.Errorf("redis pexpire: %w", err)
		}
	}
	return env.Value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, exp Expiration) error {
	if exp.TTL <= 0 {
		return nil
	}
	env := envelope{
		Value:    value,
		Absolute: s.now().Add(exp.TTL),
		Sliding:  exp.Sliding,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	ttl := exp.TTL
	if exp.Sliding > 0 {
		ttl = min(exp.Sliding, exp.TTL)
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
