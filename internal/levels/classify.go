package levels

import (
	"context"
	"log"
	"sort"
)

// Lexicon is the read-only dictionary consulted before the fallback.
// Implemented by dict.Store.
type Lexicon interface {
	Lookup(word string) (level Level, canonical string, ok bool)
}

// WordClassifier is the external fallback for words the lexicon misses.
// Best-effort: words omitted from the result default to Unknown.
type WordClassifier interface {
	ClassifyWords(ctx context.Context, words []string) (map[string]Level, error)
}

// Group is one tier's word set, sorted for stable output.
type Group struct {
	Level Level
	Words []string
}

// Classifier assigns a level to every token, preferring the lexicon and
// falling back to a single batched external call for the rest.
type Classifier struct {
	lexicon  Lexicon
	fallback WordClassifier
}

// NewClassifier creates a classifier. fallback may be nil, in which case
// words outside the lexicon are simply Unknown.
func NewClassifier(lexicon Lexicon, fallback WordClassifier) *Classifier {
	return &Classifier{lexicon: lexicon, fallback: fallback}
}

// Classify maps every distinct token to a level and returns the inverse
// grouping in canonical tier order (Unknown last, empty tiers omitted).
// A fallback failure degrades its words to Unknown rather than erroring.
func (c *Classifier) Classify(ctx context.Context, tokens []string) (map[string]Level, []Group) {
	levelMap := make(map[string]Level, len(tokens))
	var misses []string

	for _, tok := range tokens {
		if _, done := levelMap[tok]; done {
			continue
		}
		if level, _, ok := c.lexicon.Lookup(tok); ok {
			levelMap[tok] = level
		} else {
			levelMap[tok] = Unknown
			misses = append(misses, tok)
		}
	}

	if len(misses) > 0 && c.fallback != nil {
		classified, err := c.fallback.ClassifyWords(ctx, misses)
		if err != nil {
			log.Printf("Fallback word classification failed, marking %d words unknown: %v", len(misses), err)
		} else {
			for _, word := range misses {
				if level, ok := classified[word]; ok && level.Valid() {
					levelMap[word] = level
				}
			}
		}
	}

	return levelMap, groupByLevel(levelMap)
}

func groupByLevel(levelMap map[string]Level) []Group {
	byLevel := make(map[Level][]string)
	for word, level := range levelMap {
		byLevel[level] = append(byLevel[level], word)
	}

	var groups []Group
	for _, tier := range Tiers {
		words := byLevel[tier]
		if len(words) == 0 {
			continue
		}
		sort.Strings(words)
		groups = append(groups, Group{Level: tier, Words: words})
	}
	return groups
}
