// Package entity normalizes named entities extracted from bilingual text
// into a fixed four-category table with English glosses.
package entity

import "sort"

// Fixed category keys. Unrecognized categories are dropped, not stored.
const (
	CategoryNames         = "names"
	CategoryPlaces        = "places"
	CategoryOrganizations = "organizations"
	CategoryMisc          = "misc"
)

// Categories lists the category keys in display order.
var Categories = []string{CategoryNames, CategoryPlaces, CategoryOrganizations, CategoryMisc}

// categoryFor maps raw extraction types to internal categories.
var categoryFor = map[string]string{
	"person":       CategoryNames,
	"place":        CategoryPlaces,
	"organization": CategoryOrganizations,
	"other":        CategoryMisc,
}

// Raw is one entity as reported by the extraction service.
type Raw struct {
	Word    string `json:"word"`
	Type    string `json:"type"`
	English string `json:"english"`
}

// Table maps each category to entity word -> English gloss. All four
// category keys are always present.
type Table map[string]map[string]string

// NewTable returns a table with all four categories initialized empty.
func NewTable() Table {
	t := make(Table, len(Categories))
	for _, c := range Categories {
		t[c] = make(map[string]string)
	}
	return t
}

// Resolve normalizes raw extraction results. Entries missing a word, a
// gloss, or using a category outside the fixed set are silently skipped.
func Resolve(raw []Raw) Table {
	t := NewTable()
	for _, r := range raw {
		if r.Word == "" || r.English == "" {
			continue
		}
		category, ok := categoryFor[r.Type]
		if !ok {
			continue
		}
		t[category][r.Word] = r.English
	}
	return t
}

// Flatten returns every distinct entity word across categories, sorted.
// Used as extra segmenter vocabulary so entity names are never split.
func (t Table) Flatten() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, words := range t {
		for w := range words {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

// Gloss looks a word up across all categories.
func (t Table) Gloss(word string) (string, bool) {
	for _, words := range t {
		if gloss, ok := words[word]; ok {
			return gloss, true
		}
	}
	return "", false
}

// Count returns the total number of entities in the table.
func (t Table) Count() int {
	n := 0
	for _, words := range t {
		n += len(words)
	}
	return n
}
