package cache

import (
	"sync"
	"time"
)

// Memory is a process-local cache.
type Memory struct {
	data map[string]entry
	mu   sync.RWMutex
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]entry)}
}

// Get retrieves a value if it exists and hasn't expired.
func (c *Memory) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || e.expired(time.Now()) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value.
func (c *Memory) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.data[key] = e
	return nil
}

// Delete removes a value.
func (c *Memory) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Clear removes all entries.
func (c *Memory) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]entry)
	return nil
}

// Len returns the number of live entries.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, e := range c.data {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Close is a no-op.
func (c *Memory) Close() error { return nil }
