package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OnceStore records one-shot events per browsing session. MarkOnce returns
// true only for the first caller for a given session and key.
type OnceStore interface {
	MarkOnce(ctx context.Context, sessionID, key string) (bool, error)
}

// Marks outlive the browsing session they belong to by default.
const defaultOnceTTL = DefaultMaxAge

// MemoryStore keeps marks in process memory. Marks older than the TTL are
// swept on write.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	marks     map[string]time.Time
	lastSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultOnceTTL
	}
	return &MemoryStore{
		ttl:   ttl,
		marks: make(map[string]time.Time),
	}
}

func (m *MemoryStore) MarkOnce(_ context.Context, sessionID, key string) (bool, error) {
	now := time.Now()
	k := sessionID + ":" + key

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) > m.ttl {
		for mk, at := range m.marks {
			if now.Sub(at) > m.ttl {
				delete(m.marks, mk)
			}
		}
		m.lastSweep = now
	}

	if at, ok := m.marks[k]; ok && now.Sub(at) <= m.ttl {
		return false, nil
	}
	m.marks[k] = now
	return true, nil
}

// RedisStore shares marks between dashboard instances using SETNX.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultOnceTTL
	}
	return &RedisStore{
		client: client,
		prefix: "course-admin:once:",
		ttl:    ttl,
	}
}

// NewRedisStoreFromURL parses a redis:// URL and checks connectivity.
func NewRedisStoreFromURL(ctx context.Context, rawURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

func (r *RedisStore) MarkOnce(ctx context.Context, sessionID, key string) (bool, error) {
	first, err := r.client.SetNX(ctx, r.prefix+sessionID+":"+key, 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return first, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
