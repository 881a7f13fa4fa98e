// Package cache holds bounded in-process caches and their cleanup loop.
package cache

import (
	"context"
	"time"

	"bujit/internal/log"
)

// Cache is implemented by LRUCache.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, data V)
	Delete(key K)
	Size() int
}

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans the caches it was built with.
type Manager struct {
	caches []Cleaner
	logger *log.Logger
}

func NewManager(caches ...Cleaner) *Manager {
	return &Manager{
		caches: caches,
		logger: log.ForComponent(log.ComponentWorker),
	}
}

// CleanAll runs one cleanup pass and returns the number of removed entries.
func (m *Manager) CleanAll() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run cleans every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				m.logger.DebugContext(ctx, "Cache cleanup completed", "entries_removed", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
