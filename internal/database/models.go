package database

import (
	"github.com/Colmmm/xuexinwen/internal/entity"
	"github.com/Colmmm/xuexinwen/internal/levels"
)

// Summary is a lightweight article listing row.
type Summary struct {
	ID            string   `json:"article_id"`
	URL           string   `json:"url"`
	Date          string   `json:"date"`
	Source        string   `json:"source"`
	Authors       []string `json:"authors"`
	MandarinTitle string   `json:"mandarin_title"`
	EnglishTitle  string   `json:"english_title"`
	ImageURL      string   `json:"image_url,omitempty"`
	Processed     bool     `json:"processed"`
	GradedLevels  []string `json:"graded_levels"`
}

// Results holds everything the annotation pipeline produced for one article.
type Results struct {
	Entities    entity.Table            `json:"entities"`
	WordLevels  map[string]levels.Level `json:"word_levels"`
	Graded      map[levels.Level]string `json:"graded_content"`
	Annotations map[string]string       `json:"annotations"`
}

// Stats summarizes database contents for the status command.
type Stats struct {
	Articles    int
	Processed   int
	Unprocessed int
	Entities    int
	WordLevels  int
}
