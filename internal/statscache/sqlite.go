package statscache

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"log/slog"

	"github.com/arturave/lasercost/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteCache persists ToolpathStats in a SQLite database, content-addressed
// by drawing hash. Rows are never updated in place, matching the
// content-addressed, append-only contract of spec.md §4.C/§9 ("The Stats
// Cache is the only shared mutable resource and is append-only keyed by
// content hash").
type SQLiteCache struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLiteCache opens (creating if necessary) a SQLite database at dbPath
// and ensures the toolpath_stats table exists.
func OpenSQLiteCache(dbPath string, logger *slog.Logger) (*SQLiteCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("stats cache database ready", "path", dbPath)
	return &SQLiteCache{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error { return c.db.Close() }

// Get implements Cache.
func (c *SQLiteCache) Get(key string) (models.ToolpathStats, bool, error) {
	var stats models.ToolpathStats
	var entityCountsJSON string

	row := c.db.QueryRow(`
		SELECT cut_length_mm, pierce_count, contour_count, short_segment_ratio,
		       occupied_area_mm2, net_area_mm2, entity_counts
		FROM toolpath_stats WHERE drawing_hash = ?`, key)

	err := row.Scan(&stats.CutLengthMM, &stats.PierceCount, &stats.ContourCount,
		&stats.ShortSegmentRatio, &stats.OccupiedAreaMM2, &stats.NetAreaMM2, &entityCountsJSON)
	if err == sql.ErrNoRows {
		return models.ToolpathStats{}, false, nil
	}
	if err != nil {
		return models.ToolpathStats{}, false, err
	}

	if err := json.Unmarshal([]byte(entityCountsJSON), &stats.EntityCounts); err != nil {
		return models.ToolpathStats{}, false, err
	}
	return stats, true, nil
}

// Put implements Cache. Inserts are idempotent: an existing row for the same
// hash is left untouched (content-addressed immutability).
func (c *SQLiteCache) Put(key string, stats models.ToolpathStats) error {
	entityCountsJSON, err := json.Marshal(stats.EntityCounts)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(`
		INSERT INTO toolpath_stats
			(drawing_hash, cut_length_mm, pierce_count, contour_count,
			 short_segment_ratio, occupied_area_mm2, net_area_mm2, entity_counts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(drawing_hash) DO NOTHING`,
		key, stats.CutLengthMM, stats.PierceCount, stats.ContourCount,
		stats.ShortSegmentRatio, stats.OccupiedAreaMM2, stats.NetAreaMM2, string(entityCountsJSON))
	if err != nil {
		c.logger.Error("failed to persist toolpath stats", "error", err, "drawing_hash", key)
		return err
	}
	return nil
}
