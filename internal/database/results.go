package database

import (
	"fmt"

	"github.com/Colmmm/xuexinwen/internal/entity"
	"github.com/Colmmm/xuexinwen/internal/levels"
)

// SaveResults replaces all stored pipeline output for an article and marks it
// processed. The whole write is one transaction so readers never see a
// half-updated article.
func (db *DB) SaveResults(articleID string, r *Results) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entities", "word_levels", "graded_content", "annotations"} {
		if _, err := tx.Exec(
			fmt.Sprintf("DELETE FROM %s WHERE article_id = ?", table), articleID,
		); err != nil {
			return fmt.Errorf("clearing %s for %s: %w", table, articleID, err)
		}
	}

	for category, words := range r.Entities {
		for word, definition := range words {
			if _, err := tx.Exec(
				"INSERT INTO entities (article_id, category, entity_text, definition) VALUES (?, ?, ?, ?)",
				articleID, category, word, definition,
			); err != nil {
				return fmt.Errorf("inserting entity %q: %w", word, err)
			}
		}
	}

	for word, level := range r.WordLevels {
		if _, err := tx.Exec(
			"INSERT INTO word_levels (article_id, word, level) VALUES (?, ?, ?)",
			articleID, word, string(level),
		); err != nil {
			return fmt.Errorf("inserting word level %q: %w", word, err)
		}
	}

	for level, content := range r.Graded {
		if _, err := tx.Exec(
			"INSERT INTO graded_content (article_id, level, content) VALUES (?, ?, ?)",
			articleID, string(level), content,
		); err != nil {
			return fmt.Errorf("inserting graded content %s: %w", level, err)
		}
	}

	for variant, html := range r.Annotations {
		if _, err := tx.Exec(
			"INSERT INTO annotations (article_id, variant, html) VALUES (?, ?, ?)",
			articleID, variant, html,
		); err != nil {
			return fmt.Errorf("inserting annotation %s: %w", variant, err)
		}
	}

	if _, err := tx.Exec(
		"UPDATE articles SET processed = 1, updated_at = datetime('now') WHERE article_id = ?",
		articleID,
	); err != nil {
		return fmt.Errorf("marking %s processed: %w", articleID, err)
	}

	return tx.Commit()
}

// GetResults loads stored pipeline output for an article. Missing results
// come back as empty maps, not an error.
func (db *DB) GetResults(articleID string) (*Results, error) {
	r := &Results{
		Entities:    entity.NewTable(),
		WordLevels:  make(map[string]levels.Level),
		Graded:      make(map[levels.Level]string),
		Annotations: make(map[string]string),
	}

	rows, err := db.conn.Query(
		"SELECT category, entity_text, definition FROM entities WHERE article_id = ?", articleID,
	)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var category, word, definition string
		if err := rows.Scan(&category, &word, &definition); err != nil {
			rows.Close()
			return nil, err
		}
		if _, ok := r.Entities[category]; !ok {
			r.Entities[category] = make(map[string]string)
		}
		r.Entities[category][word] = definition
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.conn.Query(
		"SELECT word, level FROM word_levels WHERE article_id = ?", articleID,
	)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var word, level string
		if err := rows.Scan(&word, &level); err != nil {
			rows.Close()
			return nil, err
		}
		r.WordLevels[word] = levels.Parse(level)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.conn.Query(
		"SELECT level, content FROM graded_content WHERE article_id = ?", articleID,
	)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var level, content string
		if err := rows.Scan(&level, &content); err != nil {
			rows.Close()
			return nil, err
		}
		r.Graded[levels.Parse(level)] = content
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.conn.Query(
		"SELECT variant, html FROM annotations WHERE article_id = ?", articleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var variant, html string
		if err := rows.Scan(&variant, &html); err != nil {
			return nil, err
		}
		r.Annotations[variant] = html
	}
	return r, rows.Err()
}
