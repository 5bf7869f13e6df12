package store

import "github.com/example/movie-library/internal/platform/db"

// Migrations is the append-only schema history. Never edit an applied entry.
var Migrations = []db.Migration{
	{
		Version: 1,
		Name:    "users",
		SQL: `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);`,
	},
	{
		Version: 2,
		Name:    "collections",
		SQL: `
CREATE TABLE IF NOT EXISTS collections (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS collections_user_idx ON collections (user_id, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS collections_user_name_key ON collections (user_id, lower(name));

CREATE TABLE IF NOT EXISTS collection_movies (
	id            UUID PRIMARY KEY,
	collection_id UUID NOT NULL REFERENCES collections (id) ON DELETE CASCADE,
	imdb_id       TEXT NOT NULL,
	title         TEXT NOT NULL,
	year          TEXT NOT NULL,
	poster        TEXT NOT NULL DEFAULT '',
	type          TEXT NOT NULL DEFAULT '',
	added_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (collection_id, imdb_id)
);
CREATE INDEX IF NOT EXISTS collection_movies_imdb_idx ON collection_movies (imdb_id);`,
	},
	{
		Version: 3,
		Name:    "reviews",
		SQL: `
CREATE TABLE IF NOT EXISTS reviews (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	imdb_id     TEXT NOT NULL,
	rating      SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 10),
	review_text TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ,
	UNIQUE (user_id, imdb_id)
);
CREATE INDEX IF NOT EXISTS reviews_imdb_created_idx ON reviews (imdb_id, created_at DESC);

CREATE TABLE IF NOT EXISTS rating_cache (
	imdb_id        TEXT PRIMARY KEY,
	average_rating NUMERIC(3,1) NOT NULL,
	review_count   INTEGER NOT NULL CHECK (review_count > 0),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Version: 4,
		Name:    "collection_movies_genre",
		SQL:     `ALTER TABLE collection_movies ADD COLUMN IF NOT EXISTS genre TEXT;`,
	},
}
