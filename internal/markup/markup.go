// Package markup renders segmented, level-tagged text as annotated HTML for
// the reader frontend.
package markup

import (
	"html"
	"strings"

	"github.com/Colmmm/xuexinwen/internal/entity"
	"github.com/Colmmm/xuexinwen/internal/levels"
)

// VariantNative names the original-content variant in annotation output.
const VariantNative = "native"

// Annotate wraps every token in a span carrying its level, optional gloss,
// and entity flag. Tokens keep their own adjacency; nothing is inserted
// between spans. Token text and glosses are escaped before embedding.
func Annotate(tokens []string, levelMap map[string]levels.Level, entities entity.Table) string {
	if len(tokens) == 0 {
		return ""
	}

	var b strings.Builder
	for _, tok := range tokens {
		level, ok := levelMap[tok]
		if !ok {
			level = levels.Unknown
		}
		gloss, isEntity := entities.Gloss(tok)
		writeSpan(&b, tok, level, gloss, isEntity)
	}
	return b.String()
}

func writeSpan(b *strings.Builder, word string, level levels.Level, gloss string, isEntity bool) {
	b.WriteString(`<span class="word-`)
	b.WriteString(strings.ToLower(string(level)))
	b.WriteString(`"`)
	if gloss != "" {
		b.WriteString(` data-definition="`)
		b.WriteString(html.EscapeString(gloss))
		b.WriteString(`"`)
	}
	if isEntity {
		b.WriteString(` data-entity="true"`)
	}
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(word))
	b.WriteString(`</span>`)
}
