// Package dict loads the static TOCFL word list that maps Mandarin words to
// CEFR levels. The store is immutable after load and safe for concurrent
// reads.
package dict

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Colmmm/xuexinwen/internal/levels"
)

// ErrMalformedRow is returned (wrapped) when a dictionary row is missing a
// written form or a level.
var ErrMalformedRow = fmt.Errorf("malformed dictionary row")

type entry struct {
	level      levels.Level
	simplified string
}

// Store maps both traditional and simplified written forms of each word to
// one canonical level and one canonical (simplified) form.
type Store struct {
	words map[string]entry
}

// Load reads a CSV dictionary with rows of the form
// traditional,simplified,cefr_level. A header row is tolerated. Both written
// forms of an entry become lookup keys for the same level and the same
// canonical form.
func Load(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	words := make(map[string]entry)
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dictionary: %w", err)
		}
		line++

		if line == 1 && isHeader(record) {
			continue
		}

		if len(record) < 3 {
			return nil, fmt.Errorf("%w: line %d has %d fields, want 3", ErrMalformedRow, line, len(record))
		}

		traditional := strings.TrimSpace(record[0])
		simplified := strings.TrimSpace(record[1])
		level := levels.Level(strings.TrimSpace(record[2]))

		if traditional == "" || simplified == "" {
			return nil, fmt.Errorf("%w: line %d is missing a written form", ErrMalformedRow, line)
		}
		if !level.Valid() || level == levels.Unknown {
			return nil, fmt.Errorf("%w: line %d has invalid level %q", ErrMalformedRow, line, record[2])
		}

		e := entry{level: level, simplified: simplified}
		words[traditional] = e
		words[simplified] = e
	}

	return &Store{words: words}, nil
}

// LoadFile opens and loads a CSV dictionary from disk.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dictionary: %w", err)
	}
	defer f.Close()

	store, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Lookup returns the level and canonical form for a word in either written
// form. ok is false when the word is not in the dictionary.
func (s *Store) Lookup(word string) (level levels.Level, canonical string, ok bool) {
	e, ok := s.words[word]
	if !ok {
		return "", "", false
	}
	return e.level, e.simplified, true
}

// Words returns every written form in the store, for seeding the segmenter
// lexicon. The order is unspecified.
func (s *Store) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	return out
}

// Len returns the number of lookup keys in the store.
func (s *Store) Len() int {
	return len(s.words)
}

func isHeader(record []string) bool {
	if len(record) < 3 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "traditional" || first == "word"
}
