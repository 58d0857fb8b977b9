package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type localEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e localEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LocalCache is a process-local Cache used when Redis is disabled. Locks only
// exclude sessions served by this process.
type LocalCache struct {
	mu      sync.Mutex
	entries map[string]localEntry
	now     func() time.Time
}

var _ Cache = (*LocalCache)(nil)

func NewLocalCache() *LocalCache {
	return &LocalCache{
		entries: make(map[string]localEntry),
		now:     time.Now,
	}
}

func (c *LocalCache) AcquireLock(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && !e.expired(now) {
		return false, nil
	}
	c.entries[key] = localEntry{value: []byte(value), expiresAt: expiry(now, ttl)}
	return true, nil
}

func (c *LocalCache) ReleaseLock(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && string(e.value) == value {
		delete(c.entries, key)
	}
	return nil
}

func (c *LocalCache) GetJSON(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.expired(c.now()) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(e.value, dest)
}

func (c *LocalCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = localEntry{value: data, expiresAt: expiry(c.now(), ttl)}
	return nil
}

func (c *LocalCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
