package extract

import (
	"regexp"
	"strings"
)

var (
	tokenRe   = regexp.MustCompile(`[a-zA-Z0-9]+`)
	articleRe = regexp.MustCompile(`(?i)\bart\.?\s*(\d+(?:\.\d+)?)`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// stopwords are dropped before any token overlap is computed (English and Dutch)
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "to": true,
	"of": true, "in": true, "on": true, "for": true, "is": true, "are": true,
	"wat": true, "waar": true, "hoe": true, "een": true, "de": true, "het": true,
	"en": true, "met": true, "van": true, "op": true, "ik": true, "we": true,
	"what": true, "which": true, "define": true, "explain": true, "over": true,
	"about": true,
}

// Tokenize returns all lowercased alphanumeric tokens in order
func Tokenize(text string) []string {
	raw := tokenRe.FindAllString(text, -1)
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = strings.ToLower(t)
	}
	return tokens
}

// Keywords returns the tokens that carry signal: stopwords and tokens of
// two characters or fewer are removed
func Keywords(text string) []string {
	var keywords []string
	for _, t := range Tokenize(text) {
		if len(t) <= 2 || stopwords[t] {
			continue
		}
		keywords = append(keywords, t)
	}
	return keywords
}

// NormalizePhrase lowercases text and joins its tokens with single spaces
func NormalizePhrase(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// ContainsPhrase reports whether needle occurs in haystack on token boundaries.
// Both arguments must already be normalized phrases.
func ContainsPhrase(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// ArticleReference finds the first "Art. N" reference in text and returns it
// normalized as "art. N", or "" when there is none
func ArticleReference(text string) string {
	m := articleRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return "art. " + m[1]
}

// CollapseWhitespace replaces every whitespace run with a single space
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// Snippet collapses whitespace and truncates to at most max characters,
// cutting on a word boundary and appending "..." when anything was dropped
func Snippet(text string, max int) string {
	text = CollapseWhitespace(text)
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}

	limit := max - 3
	if limit < 0 {
		limit = 0
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
