package entity

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/Colmmm/xuexinwen/internal/llm"
)

const extractPrompt = `Analyze the following parallel Chinese and English texts and extract named entities, paying special attention to identifying ALL people mentioned.

### Chinese Content:
%s

### English Content:
%s

### Instructions:
1. Extract all relevant entities, with special focus on:
   - Names of people: include ALL people mentioned (officials, experts, executives), with titles or roles when relevant.
   - Places: countries, cities, regions, landmarks.
   - Organizations: companies, agencies, institutions.
   - Other notable terms a Chinese learner would not find in a standard word list.
2. For each entity give the Chinese surface form exactly as it appears in the text and a short English gloss.

Return ONLY a valid JSON array, no additional text:
[
    {"word": "Chinese surface form", "type": "person" | "place" | "organization" | "other", "english": "English gloss"}
]`

// maxExtractChars caps how much of each text goes into the prompt.
const maxExtractChars = 6000

// Extractor pulls entities out of a bilingual article in one model call.
type Extractor struct {
	provider llm.Provider
}

// NewExtractor creates an extractor.
func NewExtractor(provider llm.Provider) *Extractor {
	return &Extractor{provider: provider}
}

// Extract returns the resolved entity table for the article's texts.
// Best-effort: any failure yields an empty table, never an error, so a bad
// model response degrades annotation instead of stopping it.
func (e *Extractor) Extract(ctx context.Context, mandarin, english string) Table {
	if e.provider == nil {
		return NewTable()
	}

	responseText, err := e.provider.Generate(ctx, buildExtractPrompt(mandarin, english), 2048)
	if err != nil {
		log.Printf("Entity extraction failed: %v", err)
		return NewTable()
	}

	parsed := llm.ParseJSONArray(responseText)
	if parsed == nil {
		log.Println("Entity extraction response was not a JSON array")
		return NewTable()
	}

	raw := make([]Raw, 0, len(parsed))
	for _, item := range parsed {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		raw = append(raw, Raw{
			Word:    getString(obj, "word"),
			Type:    getString(obj, "type"),
			English: getString(obj, "english"),
		})
	}
	return Resolve(raw)
}

func buildExtractPrompt(mandarin, english string) string {
	return fmt.Sprintf(extractPrompt, truncate(mandarin, maxExtractChars), truncate(english, maxExtractChars))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	// Back off to a rune boundary. Stripping continuation bytes alone is not
	// enough: the cut can land right after a lead byte.
	for len(cut) > 0 {
		if r, size := utf8.DecodeLastRuneInString(cut); r != utf8.RuneError || size > 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
