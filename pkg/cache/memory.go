package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// MemoryCache is an in-process cache with TTL eviction. Values are stored as
// JSON so Get semantics match the Redis backend exactly.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	maxSize int
	done    chan struct{}
}

// NewMemoryCache creates a memory cache with a background janitor.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := defaultMemoryConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		entries: make(map[string]memoryEntry),
		maxSize: cfg.MaxSize,
		done:    make(chan struct{}),
	}
	go mc.janitor(cfg.CleanupInterval)
	return mc
}

func (mc *MemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			for k, e := range mc.entries {
				if e.expired() {
					delete(mc.entries, k)
				}
			}
			mc.mu.Unlock()
		case <-mc.done:
			return
		}
	}
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if len(mc.entries) >= mc.maxSize {
		// Evict expired entries first; if still full, drop an arbitrary one.
		for k, e := range mc.entries {
			if e.expired() {
				delete(mc.entries, k)
			}
		}
		if len(mc.entries) >= mc.maxSize {
			for k := range mc.entries {
				delete(mc.entries, k)
				break
			}
		}
	}
	mc.entries[key] = memoryEntry{data: b, expiresAt: expiresAt}
	return nil
}

func (mc *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	mc.mu.RLock()
	e, ok := mc.entries[key]
	mc.mu.RUnlock()
	if !ok || e.expired() {
		return ErrCacheMiss
	}
	return json.Unmarshal(e.data, dest)
}

func (mc *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		delete(mc.entries, k)
	}
	return nil
}

func (mc *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	e, ok := mc.entries[key]
	return ok && !e.expired(), nil
}

// Close stops the janitor.
func (mc *MemoryCache) Close() {
	close(mc.done)
}
