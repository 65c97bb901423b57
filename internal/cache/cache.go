// Package cache stores raw remote responses for a limited time so repeated
// loads of the same object do not hit the network.
package cache

import (
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Cache is a byte-oriented TTL cache. A zero ttl means the entry never
// expires.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
	Len() int
	Close() error
}

// New opens the cache for the configured backend. An empty backend selects
// the in-memory cache.
func New(backend, dir string) (Cache, error) {
	switch strings.ToLower(backend) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendBadger:
		return OpenBadger(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// Key joins a namespace and its parts into a cache key.
func Key(namespace string, parts ...string) string {
	return namespace + ":" + strings.Join(parts, ":")
}
