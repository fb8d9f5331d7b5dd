package statscache

import (
	"sync"

	"github.com/arturave/lasercost/internal/models"
)

// MemoryCache is a map-backed Cache guarded by a sync.RWMutex, suitable for single-process
// deployments and tests. Safe for concurrent use, per spec.md §5 ("many
// readers, write-on-miss").
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]models.ToolpathStats
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]models.ToolpathStats)}
}

// Get implements Cache.
func (c *MemoryCache) Get(key string) (models.ToolpathStats, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats, ok := c.entries[key]
	return stats, ok, nil
}

// Put implements Cache.
func (c *MemoryCache) Put(key string, stats models.ToolpathStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		return nil
	}
	c.entries[key] = stats
	return nil
}
