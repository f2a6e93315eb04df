// Package simplify produces graded rewrites of an article's Mandarin text
// at the configured CEFR tiers.
package simplify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Colmmm/xuexinwen/internal/article"
	"github.com/Colmmm/xuexinwen/internal/levels"
	"github.com/Colmmm/xuexinwen/internal/llm"
)

const simplifyPrompt = `You are simplifying a Chinese news article for language learners. The English translation is provided for context only.

### Original Chinese (%d paragraphs):
%s

### English Translation:
%s

### Task:
Rewrite the Chinese article at each of these CEFR levels: %s.
For each level, keep the main meaning while using vocabulary and grammar
appropriate for learners at that level. Keep the SAME number of paragraphs
as the original: rewrite paragraph by paragraph, one output paragraph per
input paragraph.

Return ONLY a valid JSON object mapping each level to an array of rewritten
paragraphs, for example:
{
    "A2": ["paragraph 1", "paragraph 2"],
    "B1": ["paragraph 1", "paragraph 2"]
}`

// Result holds the outcome of one simplification run.
type Result struct {
	TiersAdded   int
	TiersDropped int
}

// defaultMaxTokens bounds the rewrite response when no budget is configured.
// Rewrites at several tiers share one response, so this runs larger than the
// other model calls.
const defaultMaxTokens = 4096

// Simplifier creates graded rewrites in one model call per article.
type Simplifier struct {
	provider llm.Provider
	tiers    []levels.Level

	// MaxTokens is the response budget for the rewrite call.
	MaxTokens int
}

// New creates a simplifier targeting the given tiers.
func New(provider llm.Provider, tiers []levels.Level) *Simplifier {
	return &Simplifier{provider: provider, tiers: tiers, MaxTokens: defaultMaxTokens}
}

// Simplify requests all target tiers at once and stores each well-formed
// rewrite on the article. A tier whose paragraph count does not match the
// original is dropped with a warning; other tiers still proceed. Any
// model-level failure yields an empty result, never an error.
func (s *Simplifier) Simplify(ctx context.Context, a *article.Article) *Result {
	r := &Result{}
	if s.provider == nil || len(s.tiers) == 0 {
		return r
	}

	rewrites := s.request(ctx, a)
	for _, tier := range s.tiers {
		paragraphs, ok := rewrites[tier]
		if !ok {
			continue
		}
		if a.AddGraded(tier, paragraphs) {
			r.TiersAdded++
		} else {
			r.TiersDropped++
		}
	}
	return r
}

// request performs the model call and parses tier->paragraphs from the
// response. Tiers outside the target set are ignored.
func (s *Simplifier) request(ctx context.Context, a *article.Article) map[levels.Level][]string {
	tierNames := make([]string, len(s.tiers))
	for i, t := range s.tiers {
		tierNames[i] = string(t)
	}

	prompt := fmt.Sprintf(simplifyPrompt,
		a.SectionCount(),
		a.MandarinContent,
		a.EnglishContent,
		strings.Join(tierNames, ", "),
	)

	responseText, err := s.provider.Generate(ctx, prompt, s.MaxTokens)
	if err != nil {
		log.Printf("Simplification failed for %s: %v", a.ID, err)
		return nil
	}

	parsed := llm.ParseJSONResponse(responseText)
	if parsed == nil {
		log.Printf("Simplification response for %s was not valid JSON", a.ID)
		return nil
	}

	out := make(map[levels.Level][]string)
	for _, tier := range s.tiers {
		raw, ok := parsed[string(tier)]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case []any:
			var paragraphs []string
			for _, item := range v {
				if p, ok := item.(string); ok && strings.TrimSpace(p) != "" {
					paragraphs = append(paragraphs, strings.TrimSpace(p))
				}
			}
			if len(paragraphs) > 0 {
				out[tier] = paragraphs
			}
		case string:
			// Some models return one flat string per tier.
			if paragraphs := article.SplitSections(v); len(paragraphs) > 0 {
				out[tier] = paragraphs
			}
		}
	}
	return out
}
