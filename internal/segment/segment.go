// Package segment splits Mandarin text into word tokens by longest-match
// lookup against a fixed lexicon plus optional per-call vocabulary.
package segment

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
)

// Segmenter tokenizes text against a base lexicon. The base automaton is
// built once and never mutated; per-call vocabulary gets its own automaton
// so additions cannot leak into later calls.
type Segmenter struct {
	base *ahocorasick.Automaton
}

// New builds a segmenter from the base lexicon. An empty lexicon is allowed;
// segmentation then falls back to per-rune tokens for CJK text.
func New(lexicon []string) (*Segmenter, error) {
	base, err := buildAutomaton(lexicon)
	if err != nil {
		return nil, fmt.Errorf("building lexicon automaton: %w", err)
	}
	return &Segmenter{base: base}, nil
}

// Segment splits text into tokens. Words in extra take priority over
// base-lexicon matches, so multi-character entity names are never split.
// Tokens that are purely punctuation or whitespace are dropped; the result
// never contains an empty token.
func (s *Segmenter) Segment(text string, extra []string) []string {
	if text == "" {
		return nil
	}

	var locked []span
	if len(extra) > 0 {
		ex, err := buildAutomaton(dedupe(extra))
		if err == nil && ex != nil {
			locked = matchSpans(ex, text)
		}
	}

	var tokens []string
	pos := 0
	for _, sp := range locked {
		if sp.start > pos {
			tokens = appendRegion(tokens, s.base, text[pos:sp.start])
		}
		tokens = append(tokens, text[sp.start:sp.end])
		pos = sp.end
	}
	if pos < len(text) {
		tokens = appendRegion(tokens, s.base, text[pos:])
	}

	out := tokens[:0]
	for _, tok := range tokens {
		if hasWordRune(tok) {
			out = append(out, tok)
		}
	}
	return out
}

type span struct {
	start, end int
}

func buildAutomaton(patterns []string) (*ahocorasick.Automaton, error) {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	return ahocorasick.NewBuilder().
		AddStrings(cleaned).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
}

// matchSpans returns non-overlapping matches, leftmost first, longest
// preferred at each position. Matches that would split a UTF-8 sequence are
// discarded.
func matchSpans(ac *ahocorasick.Automaton, text string) []span {
	if ac == nil {
		return nil
	}
	matches := ac.FindAllOverlapping([]byte(text))
	if len(matches) == 0 {
		return nil
	}

	cands := make([]span, 0, len(matches))
	for _, m := range matches {
		if !runeAligned(text, m.Start, m.End) {
			continue
		}
		cands = append(cands, span{start: m.Start, end: m.End})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].start != cands[j].start {
			return cands[i].start < cands[j].start
		}
		return cands[i].end > cands[j].end
	})

	var out []span
	pos := 0
	for _, c := range cands {
		if c.start < pos {
			continue
		}
		out = append(out, c)
		pos = c.end
	}
	return out
}

// appendRegion tokenizes a stretch of text with the base lexicon, splitting
// uncovered CJK runs into single runes and keeping latin/digit runs whole.
func appendRegion(tokens []string, base *ahocorasick.Automaton, region string) []string {
	pos := 0
	for _, sp := range matchSpans(base, region) {
		if sp.start > pos {
			tokens = appendFallback(tokens, region[pos:sp.start])
		}
		tokens = append(tokens, region[sp.start:sp.end])
		pos = sp.end
	}
	if pos < len(region) {
		tokens = appendFallback(tokens, region[pos:])
	}
	return tokens
}

func appendFallback(tokens []string, text string) []string {
	runStart := -1
	for i, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			if runStart >= 0 {
				tokens = append(tokens, text[runStart:i])
				runStart = -1
			}
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if runStart < 0 {
				runStart = i
			}
		default:
			if runStart >= 0 {
				tokens = append(tokens, text[runStart:i])
				runStart = -1
			}
		}
	}
	if runStart >= 0 {
		tokens = append(tokens, text[runStart:])
	}
	return tokens
}

func runeAligned(text string, start, end int) bool {
	if start < 0 || end > len(text) || start >= end {
		return false
	}
	if !utf8.RuneStart(text[start]) {
		return false
	}
	return end == len(text) || utf8.RuneStart(text[end])
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
