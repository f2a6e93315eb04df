package llm

import (
	"encoding/json"
	"log"
	"strings"
)

// ParseJSONResponse parses a JSON object from an LLM response, handling
// markdown code fences and a few common truncation artifacts.
func ParseJSONResponse(text string) map[string]any {
	text = cleanResponse(text)
	if text == "" {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		repaired := repairJSON(text, '{', '}')
		if err2 := json.Unmarshal([]byte(repaired), &result); err2 != nil {
			log.Printf("Failed to parse LLM response as JSON object: %v", err)
			return nil
		}
	}
	return result
}

// ParseJSONArray parses a JSON array from an LLM response with the same
// cleanup as ParseJSONResponse.
func ParseJSONArray(text string) []any {
	text = cleanResponse(text)
	if text == "" {
		return nil
	}

	var result []any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		repaired := repairJSON(text, '[', ']')
		if err2 := json.Unmarshal([]byte(repaired), &result); err2 != nil {
			log.Printf("Failed to parse LLM response as JSON array: %v", err)
			return nil
		}
	}
	return result
}

// cleanResponse trims whitespace and strips markdown code fences.
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	return strings.TrimSpace(text)
}

// repairJSON applies best-effort fixes for truncated model output: a
// dangling trailing comma and unbalanced closing brackets.
func repairJSON(text string, open, closer rune) string {
	text = strings.TrimRight(text, " \n\t")
	text = strings.TrimSuffix(text, ",")

	opens := strings.Count(text, string(open))
	closes := strings.Count(text, string(closer))
	for ; closes < opens; closes++ {
		text += string(closer)
	}
	return text
}
