package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/arturave/lasercost/internal/facade"
	"github.com/arturave/lasercost/internal/statscache"
)

// openStatsCache builds the Stats Cache backend selected by
// STATS_CACHE_DRIVER ("memory", the default, or "sqlite"). The close func
// is non-nil only for backends owning an OS resource.
func openStatsCache(logger *slog.Logger) (statscache.Cache, func(), error) {
	switch getEnv("STATS_CACHE_DRIVER", "memory") {
	case "sqlite":
		dbPath := getEnv("STATS_CACHE_DB_PATH", "./database/stats_cache.db")
		os.MkdirAll(filepath.Dir(dbPath), 0755)
		cache, err := statscache.OpenSQLiteCache(dbPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return cache, func() { cache.Close() }, nil
	default:
		return statscache.NewMemoryCache(), nil, nil
	}
}

func newFacade(cache statscache.Cache, logger *slog.Logger) *facade.Facade {
	return facade.NewFacade(cache, logger)
}
