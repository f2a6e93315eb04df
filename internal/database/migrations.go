package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    article_id TEXT PRIMARY KEY,
    url TEXT UNIQUE NOT NULL,
    date TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    authors TEXT NOT NULL DEFAULT '[]',
    mandarin_title TEXT NOT NULL DEFAULT '',
    english_title TEXT NOT NULL DEFAULT '',
    mandarin_content TEXT NOT NULL DEFAULT '',
    english_content TEXT NOT NULL DEFAULT '',
    mandarin_sections TEXT NOT NULL DEFAULT '[]',
    english_sections TEXT NOT NULL DEFAULT '[]',
    image_url TEXT NOT NULL DEFAULT '',
    metadata TEXT NOT NULL DEFAULT '{}',
    processed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS entities (
    article_id TEXT NOT NULL REFERENCES articles(article_id) ON DELETE CASCADE,
    category TEXT NOT NULL,
    entity_text TEXT NOT NULL,
    definition TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (article_id, category, entity_text)
);

CREATE TABLE IF NOT EXISTS word_levels (
    article_id TEXT NOT NULL REFERENCES articles(article_id) ON DELETE CASCADE,
    word TEXT NOT NULL,
    level TEXT NOT NULL,
    PRIMARY KEY (article_id, word)
);

CREATE TABLE IF NOT EXISTS graded_content (
    article_id TEXT NOT NULL REFERENCES articles(article_id) ON DELETE CASCADE,
    level TEXT NOT NULL,
    content TEXT NOT NULL,
    PRIMARY KEY (article_id, level)
);

CREATE TABLE IF NOT EXISTS annotations (
    article_id TEXT NOT NULL REFERENCES articles(article_id) ON DELETE CASCADE,
    variant TEXT NOT NULL,
    html TEXT NOT NULL,
    PRIMARY KEY (article_id, variant)
);

CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);
CREATE INDEX IF NOT EXISTS idx_articles_processed ON articles(processed);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version.
func latestVersion() int {
	return migrations[len(migrations)-1].Version
}
