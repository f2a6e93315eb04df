// Package article holds the bilingual article model: two full-text strings
// per language with paragraph offset tables, plus graded rewrites added by
// the simplification stage.
package article

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Colmmm/xuexinwen/internal/levels"
)

// SectionSeparator joins paragraphs into the stored full text. Offsets
// always exclude it.
const SectionSeparator = "\n\n"

var (
	// ErrSectionCountMismatch means the Mandarin and English paragraph lists
	// cannot be index-aligned. Fatal for the article.
	ErrSectionCountMismatch = errors.New("mandarin and english section counts differ")

	// ErrSectionOutOfRange is returned for a section index past the table.
	ErrSectionOutOfRange = errors.New("section index out of range")
)

// Span is a (start, end) byte range into a full-text string, end exclusive.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Article is one bilingual news article. Identity fields are immutable;
// GradedContent is filled in by the simplification stage.
type Article struct {
	ID       string
	URL      string
	Date     string
	Source   string
	Authors  []string
	ImageURL string

	MandarinTitle string
	EnglishTitle  string

	MandarinContent string
	EnglishContent  string

	// Parallel offset tables, one span per paragraph, equal length.
	MandarinSections []Span
	EnglishSections  []Span

	// GradedContent maps a difficulty tier to a full rewritten text using
	// the same paragraph separator as the originals.
	GradedContent map[levels.Level]string

	Metadata map[string]string
}

// MakeID derives a stable article ID from the source URL.
func MakeID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "a" + hex.EncodeToString(sum[:])[:15]
}

// New builds an article from parallel paragraph lists, concatenating each
// language's paragraphs and recording exact offsets. Fails with
// ErrSectionCountMismatch when the lists are not index-parallel.
func New(id, url string, mandarin, english []string) (*Article, error) {
	if len(mandarin) != len(english) {
		return nil, fmt.Errorf("%w: %d mandarin vs %d english", ErrSectionCountMismatch, len(mandarin), len(english))
	}

	a := &Article{ID: id, URL: url}
	a.MandarinContent, a.MandarinSections = Align(mandarin)
	a.EnglishContent, a.EnglishSections = Align(english)
	return a, nil
}

// Align joins paragraphs with SectionSeparator and returns the full text
// together with each paragraph's exact span (separator excluded).
func Align(paragraphs []string) (string, []Span) {
	if len(paragraphs) == 0 {
		return "", nil
	}

	var b strings.Builder
	spans := make([]Span, 0, len(paragraphs))
	for i, p := range paragraphs {
		if i > 0 {
			b.WriteString(SectionSeparator)
		}
		start := b.Len()
		b.WriteString(p)
		spans = append(spans, Span{Start: start, End: b.Len()})
	}
	return b.String(), spans
}

// SectionCount returns the number of aligned paragraph pairs.
func (a *Article) SectionCount() int {
	return len(a.MandarinSections)
}

// Section returns the i-th paragraph pair without re-splitting the text.
func (a *Article) Section(i int) (mandarin, english string, err error) {
	if i < 0 || i >= len(a.MandarinSections) || i >= len(a.EnglishSections) {
		return "", "", fmt.Errorf("%w: %d", ErrSectionOutOfRange, i)
	}
	m := a.MandarinSections[i]
	e := a.EnglishSections[i]
	return a.MandarinContent[m.Start:m.End], a.EnglishContent[e.Start:e.End], nil
}

// AddGraded stores a rewrite for a tier from its paragraph list. The rewrite
// must have the same paragraph count as the original; a mismatched tier is
// dropped with a warning so other tiers still proceed.
func (a *Article) AddGraded(tier levels.Level, paragraphs []string) bool {
	if len(paragraphs) != a.SectionCount() {
		log.Printf("Dropping graded tier %s for %s: %d paragraphs, want %d",
			tier, a.ID, len(paragraphs), a.SectionCount())
		return false
	}
	if a.GradedContent == nil {
		a.GradedContent = make(map[levels.Level]string)
	}
	full, _ := Align(paragraphs)
	a.GradedContent[tier] = full
	return true
}

// AddGradedText stores a rewrite that arrived as one flat string by
// splitting it on the paragraph separator. Same parity rule as AddGraded.
func (a *Article) AddGradedText(tier levels.Level, text string) bool {
	return a.AddGraded(tier, SplitSections(text))
}

// Graded returns the rewrite for a tier; the "native" content is the
// original Mandarin text.
func (a *Article) Graded(tier levels.Level) (string, bool) {
	text, ok := a.GradedContent[tier]
	return text, ok
}

// SplitSections splits a flat text back into paragraphs, ignoring blank
// runs produced by extra separator whitespace.
func SplitSections(text string) []string {
	var out []string
	for _, part := range strings.Split(text, SectionSeparator) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Sections reconstructs a language's paragraph list from its offset table.
func Sections(fullText string, spans []Span) []string {
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, fullText[s.Start:s.End])
	}
	return out
}
