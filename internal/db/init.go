package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS api_tokens (
    token_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS social_connections (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    page_id TEXT NOT NULL,
    page_name TEXT NOT NULL,
    ig_business_account_id TEXT NOT NULL,
    ig_username TEXT NOT NULL,
    access_token TEXT NOT NULL,
    token_expiry TIMESTAMPTZ NOT NULL,
    connected_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS widgets (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    connection_id TEXT REFERENCES social_connections(id) ON DELETE SET NULL,
    widget_type TEXT NOT NULL,
    name TEXT NOT NULL,
    layout TEXT NOT NULL DEFAULT 'grid',
    theme TEXT NOT NULL DEFAULT 'light',
    post_count INT NOT NULL DEFAULT 6,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS widget_embeds (
    id TEXT PRIMARY KEY,
    widget_id TEXT NOT NULL REFERENCES widgets(id) ON DELETE CASCADE,
    post_url TEXT NOT NULL,
    oembed_html TEXT NOT NULL,
    thumbnail_url TEXT,
    caption TEXT,
    author_name TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (widget_id, post_url)
);

CREATE TABLE IF NOT EXISTS widget_cache (
    widget_id TEXT PRIMARY KEY REFERENCES widgets(id) ON DELETE CASCADE,
    feed_data JSONB NOT NULL,
    cached_at TIMESTAMPTZ NOT NULL
);
`

func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
