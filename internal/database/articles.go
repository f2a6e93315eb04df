package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Colmmm/xuexinwen/internal/article"
	"github.com/Colmmm/xuexinwen/internal/levels"
)

// UpsertArticle inserts an article or, when the URL already exists, refreshes
// its source fields. Processing results are left untouched.
func (db *DB) UpsertArticle(a *article.Article) error {
	authors, err := json.Marshal(a.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}
	mandSections, err := json.Marshal(a.MandarinSections)
	if err != nil {
		return fmt.Errorf("encoding mandarin sections: %w", err)
	}
	engSections, err := json.Marshal(a.EnglishSections)
	if err != nil {
		return fmt.Errorf("encoding english sections: %w", err)
	}
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO articles (
			article_id, url, date, source, authors,
			mandarin_title, english_title, mandarin_content, english_content,
			mandarin_sections, english_sections, image_url, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			date = excluded.date,
			source = excluded.source,
			authors = excluded.authors,
			mandarin_title = excluded.mandarin_title,
			english_title = excluded.english_title,
			mandarin_content = excluded.mandarin_content,
			english_content = excluded.english_content,
			mandarin_sections = excluded.mandarin_sections,
			english_sections = excluded.english_sections,
			image_url = excluded.image_url,
			metadata = excluded.metadata,
			updated_at = datetime('now')`,
		a.ID, a.URL, a.Date, a.Source, string(authors),
		a.MandarinTitle, a.EnglishTitle, a.MandarinContent, a.EnglishContent,
		string(mandSections), string(engSections), a.ImageURL, string(metadata),
	)
	if err != nil {
		return fmt.Errorf("upserting article %s: %w", a.ID, err)
	}
	return nil
}

// GetArticle loads one article by ID, including any graded rewrites.
// Returns sql.ErrNoRows wrapped when the article does not exist.
func (db *DB) GetArticle(articleID string) (*article.Article, error) {
	row := db.conn.QueryRow(
		`SELECT article_id, url, date, source, authors,
			mandarin_title, english_title, mandarin_content, english_content,
			mandarin_sections, english_sections, image_url, metadata
		FROM articles WHERE article_id = ?`, articleID,
	)
	a, err := scanArticle(row)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		"SELECT level, content FROM graded_content WHERE article_id = ?", articleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var level, content string
		if err := rows.Scan(&level, &content); err != nil {
			return nil, err
		}
		a.GradedContent[levels.Parse(level)] = content
	}
	return a, rows.Err()
}

// HasArticle reports whether an article with the given ID exists.
func (db *DB) HasArticle(articleID string) (bool, error) {
	var n int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM articles WHERE article_id = ?", articleID,
	).Scan(&n)
	return n > 0, err
}

// ListArticles returns article summaries, newest first. An empty source
// matches everything; limit <= 0 means no limit.
func (db *DB) ListArticles(source string, limit int) ([]Summary, error) {
	query := `SELECT article_id, url, date, source, authors,
		mandarin_title, english_title, image_url, processed
		FROM articles`
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY date DESC, created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		var authors string
		if err := rows.Scan(&s.ID, &s.URL, &s.Date, &s.Source, &authors,
			&s.MandarinTitle, &s.EnglishTitle, &s.ImageURL, &s.Processed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(authors), &s.Authors); err != nil {
			s.Authors = nil
		}
		levels, err := db.gradedLevels(s.ID)
		if err != nil {
			return nil, err
		}
		s.GradedLevels = levels
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetUnprocessed returns articles that have not been through the annotation
// pipeline yet, oldest first.
func (db *DB) GetUnprocessed() ([]*article.Article, error) {
	rows, err := db.conn.Query(
		`SELECT article_id, url, date, source, authors,
			mandarin_title, english_title, mandarin_content, english_content,
			mandarin_sections, english_sections, image_url, metadata
		FROM articles WHERE processed = 0 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*article.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// IsProcessed reports whether the article has pipeline results stored.
func (db *DB) IsProcessed(articleID string) (bool, error) {
	var processed bool
	err := db.conn.QueryRow(
		"SELECT processed FROM articles WHERE article_id = ?", articleID,
	).Scan(&processed)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("article %s: %w", articleID, err)
	}
	return processed, err
}

// GetStats returns row counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM articles", &stats.Articles},
		{"SELECT COUNT(*) FROM articles WHERE processed = 1", &stats.Processed},
		{"SELECT COUNT(*) FROM articles WHERE processed = 0", &stats.Unprocessed},
		{"SELECT COUNT(*) FROM entities", &stats.Entities},
		{"SELECT COUNT(*) FROM word_levels", &stats.WordLevels},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (db *DB) gradedLevels(articleID string) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT level FROM graded_content WHERE article_id = ?", articleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var level string
		if err := rows.Scan(&level); err != nil {
			return nil, err
		}
		out = append(out, level)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*article.Article, error) {
	a := &article.Article{
		GradedContent: make(map[levels.Level]string),
		Metadata:      make(map[string]string),
	}
	var authors, mandSections, engSections, metadata string
	err := row.Scan(&a.ID, &a.URL, &a.Date, &a.Source, &authors,
		&a.MandarinTitle, &a.EnglishTitle, &a.MandarinContent, &a.EnglishContent,
		&mandSections, &engSections, &a.ImageURL, &metadata)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(authors), &a.Authors); err != nil {
		a.Authors = nil
	}
	if err := json.Unmarshal([]byte(mandSections), &a.MandarinSections); err != nil {
		return nil, fmt.Errorf("decoding mandarin sections for %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(engSections), &a.EnglishSections); err != nil {
		return nil, fmt.Errorf("decoding english sections for %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(metadata), &a.Metadata); err != nil {
		a.Metadata = make(map[string]string)
	}
	return a, nil
}
