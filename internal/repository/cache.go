package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/feedgrid/feedgrid/internal/models"
)

// PostgresCacheRepository implements feed cache persistence against a
// PostgreSQL database. There is at most one row per widget.
type PostgresCacheRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresCacheRepository creates a new PostgresCacheRepository using the
// provided *sql.DB.
func NewPostgresCacheRepository(db *sql.DB) *PostgresCacheRepository {
	return &PostgresCacheRepository{DB: db}
}

// Get fetches the cache row for a widget. A missing row is not an error;
// it returns (nil, nil).
func (r *PostgresCacheRepository) Get(ctx context.Context, widgetID string) (*models.WidgetCache, error) {
	var c models.WidgetCache
	var feedData []byte
	err := r.DB.QueryRowContext(ctx, `
		SELECT widget_id, feed_data, cached_at FROM widget_cache WHERE widget_id = $1
	`, widgetID).Scan(&c.WidgetID, &feedData, &c.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cache: %w", err)
	}
	if err := json.Unmarshal(feedData, &c.Posts); err != nil {
		return nil, fmt.Errorf("decode cached feed: %w", err)
	}
	return &c, nil
}

// Upsert fully replaces the cache row for a widget. The write is a single
// atomic statement keyed by widget id, so concurrent refreshes resolve to
// last-writer-wins with no torn state.
func (r *PostgresCacheRepository) Upsert(ctx context.Context, c models.WidgetCache) error {
	posts := c.Posts
	if posts == nil {
		// An empty feed is still cached, so the next request inside the
		// freshness window does not refetch.
		posts = []models.Post{}
	}
	feedData, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO widget_cache (widget_id, feed_data, cached_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (widget_id) DO UPDATE SET
			feed_data = EXCLUDED.feed_data,
			cached_at = EXCLUDED.cached_at
	`, c.WidgetID, feedData, c.CachedAt)
	if err != nil {
		return fmt.Errorf("upsert cache: %w", err)
	}
	return nil
}
