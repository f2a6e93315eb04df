// Package levels assigns CEFR difficulty levels to segmented Mandarin words,
// combining static dictionary lookups with an LLM fallback for words the
// dictionary does not cover.
package levels

// Level is a CEFR proficiency tier assigned to a word or a graded rewrite.
type Level string

const (
	A0 Level = "A0"
	A1 Level = "A1"
	A2 Level = "A2"
	B1 Level = "B1"
	B2 Level = "B2"
	C1 Level = "C1"
	C2 Level = "C2"

	// Unknown marks words neither the dictionary nor the fallback could place.
	Unknown Level = "unknown"
)

// Tiers is the canonical tier order, beginner first, Unknown last.
var Tiers = []Level{A0, A1, A2, B1, B2, C1, C2, Unknown}

// Valid reports whether l is one of the fixed tiers.
func (l Level) Valid() bool {
	for _, t := range Tiers {
		if l == t {
			return true
		}
	}
	return false
}

// Parse maps a raw string to a Level, returning Unknown for anything outside
// the fixed tier set.
func Parse(s string) Level {
	switch Level(s) {
	case A0, A1, A2, B1, B2, C1, C2:
		return Level(s)
	default:
		return Unknown
	}
}
