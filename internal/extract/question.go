package extract

import (
	"strings"

	"github.com/ppiankov/askroute/internal/model"
)

// ParseQuestion normalizes raw question text. It never fails: an empty
// question yields an empty token set and is rejected by validation upstream.
func ParseQuestion(raw string) model.Question {
	trimmed := strings.TrimSpace(raw)
	terms := Tokenize(trimmed)

	return model.Question{
		Raw:        trimmed,
		Phrase:     strings.Join(terms, " "),
		Terms:      terms,
		Tokens:     model.NewTokenSet(Keywords(trimmed)...),
		ArticleRef: ArticleReference(trimmed),
	}
}
