package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Retention of old articles is an external policy; the created_at index
// exists so that policy can run its sliding 7-day window cheaply.
const schema = `
CREATE TABLE IF NOT EXISTS sources (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	feed_url TEXT NOT NULL UNIQUE,
	favicon TEXT,
	orientation TEXT[] NOT NULL DEFAULT '{}',
	categories TEXT[] NOT NULL DEFAULT '{}',
	last_fetched_at TIMESTAMPTZ,
	fetch_success BOOLEAN,
	fetch_message TEXT,
	fetch_status_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	source_id BIGINT NOT NULL REFERENCES sources (id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	link TEXT NOT NULL UNIQUE,
	description TEXT,
	content TEXT,
	image TEXT,
	tags TEXT[] NOT NULL DEFAULT '{}',
	language TEXT NOT NULL DEFAULT '',
	creator TEXT NOT NULL DEFAULT '',
	categories TEXT[] NOT NULL DEFAULT '{}',
	source_name TEXT NOT NULL DEFAULT '',
	source_favicon TEXT,
	orientation TEXT[] NOT NULL DEFAULT '{}',
	published_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS articles_title_source_idx ON articles (title, source_id);
CREATE INDEX IF NOT EXISTS articles_created_at_idx ON articles (created_at);
`

// Ensure creates the tables and indexes when they do not exist yet.
func Ensure(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)

	return err
}
