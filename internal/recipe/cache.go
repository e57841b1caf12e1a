package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"macromate-client/internal/api"
	"macromate-client/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	id INTEGER PRIMARY KEY,
	data TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);`

// DefaultTTL is how long a cached recipe is served before a refetch.
const DefaultTTL = 24 * time.Hour

// Cache is a local SQLite cache of recipe detail responses, stored as JSON
// blobs keyed by recipe ID. Recipe content is effectively immutable upstream,
// the TTL only bounds drift.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	log *logger.Logger
	now func() time.Time
}

func OpenCache(path string, log *logger.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening recipe cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing recipe cache schema: %w", err)
	}
	return &Cache{db: db, ttl: DefaultTTL, log: log, now: time.Now}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached recipe and true on a fresh hit.
func (c *Cache) Get(ctx context.Context, id int64) (*api.Recipe, bool) {
	var data string
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		"SELECT data, fetched_at FROM recipes WHERE id = ?", id,
	).Scan(&data, &fetchedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.log.Warnw("recipe cache read failed", "recipe_id", id, "error", err)
		}
		return nil, false
	}
	if c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false
	}

	var r api.Recipe
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		c.log.Warnw("recipe cache entry corrupt", "recipe_id", id, "error", err)
		return nil, false
	}
	return &r, true
}

// Put stores a recipe. Failures only log; the cache is best-effort.
func (c *Cache) Put(ctx context.Context, r *api.Recipe) {
	data, err := json.Marshal(r)
	if err != nil {
		c.log.Warnw("recipe cache encode failed", "recipe_id", r.ID, "error", err)
		return
	}
	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO recipes (id, data, fetched_at) VALUES (?, ?, ?)",
		r.ID, string(data), c.now().Unix(),
	)
	if err != nil {
		c.log.Warnw("recipe cache write failed", "recipe_id", r.ID, "error", err)
	}
}
