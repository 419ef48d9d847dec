package cache

import (
	"fmt"
	"time"
)

// The cache holds one breadth snapshot per index so API consumers and
// restarting instances can read the last run without waiting for a refresh.
// Keys follow "<prefix>:snapshot:<index>".
const (
	// DefaultPrefix namespaces every key written by this service.
	DefaultPrefix = "breadthlab"

	// SnapshotTTL outlives a trading day but not a weekend, so a stale
	// snapshot ages out before the next session needs it.
	SnapshotTTL = 6 * time.Hour
)

// SnapshotKey builds the cache key for one index's latest breadth snapshot.
func SnapshotKey(index string) string {
	return fmt.Sprintf("snapshot:%s", index)
}

// RedisOption configures the Redis backend.
type RedisOption func(*RedisConfig)

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	Prefix       string
}

func defaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		Prefix:       DefaultPrefix,
	}
}

// WithRedisHost sets the Redis host.
func WithRedisHost(host string) RedisOption {
	return func(c *RedisConfig) {
		c.Host = host
	}
}

// WithRedisPort sets the Redis port.
func WithRedisPort(port int) RedisOption {
	return func(c *RedisConfig) {
		c.Port = port
	}
}

// WithRedisPassword sets the Redis password.
func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

// WithRedisDB sets the Redis database number.
func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithRedisPrefix overrides the key prefix. Empty keeps the default so two
// services sharing one Redis never collide on bare keys.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		if prefix != "" {
			c.Prefix = prefix
		}
	}
}

// MemoryOption configures the in-process backend.
type MemoryOption func(*MemoryConfig)

// MemoryConfig holds the in-process cache settings. The defaults are sized for
// this service's working set: a handful of snapshot entries per index, far
// below the eviction ceiling.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
}

func defaultMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: time.Minute,
	}
}

// WithMemoryMaxSize sets the entry ceiling.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		c.MaxSize = size
	}
}

// WithMemoryCleanup sets the janitor interval.
func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.CleanupInterval = interval
	}
}
