package levels

import (
	"context"
	"fmt"
	"strings"

	"github.com/Colmmm/xuexinwen/internal/llm"
)

const classifyPrompt = `Classify the following Chinese words into CEFR levels: A0, A1, A2, B1, B2, C1, or C2 based on their complexity, frequency of use, and alignment with the CEFR level descriptions.

Guidelines:
- A0: basic greetings, numbers, very simple nouns for basic needs.
- A1: familiar everyday expressions and very basic phrases.
- A2: frequently used expressions (family, shopping, employment), simple routine tasks.
- B1: main points of clear standard input on familiar topics (school, work, leisure).
- B2: complex text on concrete and abstract topics, including technical discussion.
- C1: demanding texts, implicit meaning, fluent academic and professional usage.
- C2: virtually everything; subtle shades of meaning.

Words: %s

Return ONLY a valid JSON object mapping each word to its level, for example:
{"word1": "A1", "word2": "B2"}`

// LLMClassifier classifies unknown words in a single batched model call.
type LLMClassifier struct {
	provider llm.Provider
}

// NewLLMClassifier creates the fallback classifier.
func NewLLMClassifier(provider llm.Provider) *LLMClassifier {
	return &LLMClassifier{provider: provider}
}

// ClassifyWords sends one request for all words and parses the JSON reply.
// Words the model skips or mislabels are left out of the result.
func (c *LLMClassifier) ClassifyWords(ctx context.Context, words []string) (map[string]Level, error) {
	if len(words) == 0 {
		return map[string]Level{}, nil
	}
	if c.provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}

	prompt := fmt.Sprintf(classifyPrompt, strings.Join(words, ", "))
	responseText, err := c.provider.Generate(ctx, prompt, 1024)
	if err != nil {
		return nil, fmt.Errorf("word classification request: %w", err)
	}

	parsed := llm.ParseJSONResponse(responseText)
	if parsed == nil {
		return nil, fmt.Errorf("word classification response was not valid JSON")
	}

	result := make(map[string]Level, len(parsed))
	for word, raw := range parsed {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		level := Parse(strings.ToUpper(strings.TrimSpace(s)))
		if level == Unknown {
			continue
		}
		result[word] = level
	}
	return result, nil
}
