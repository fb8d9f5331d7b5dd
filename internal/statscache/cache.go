// Package statscache implements the Stats Cache component (C): a
// content-addressed memo of extracted ToolpathStats keyed by drawing hash
// (spec.md §4.C). Entries are immutable, so concurrent writers racing on a
// miss only duplicate work, never corrupt state (spec.md §5).
package statscache

import "github.com/arturave/lasercost/internal/models"

// Cache is the get/put contract of spec.md §4.C/§6. Implementations must
// treat entries as immutable once written.
type Cache interface {
	// Get returns the cached Stats for key, or ok=false on a miss.
	Get(key string) (stats models.ToolpathStats, ok bool, err error)
	// Put stores stats under key. Puts for an already-present key are no-ops
	// (content-addressed: the same key always implies the same value).
	Put(key string, stats models.ToolpathStats) error
}
