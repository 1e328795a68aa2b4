package model

// Question is a normalized view of the raw question text
type Question struct {
	Raw        string   `json:"raw"`                   // Original text as received
	Phrase     string   `json:"phrase"`                // Lowercased tokens joined by single spaces
	Terms      []string `json:"terms"`                 // All lowercased tokens in order
	Tokens     TokenSet `json:"-"`                     // Filtered keywords (stopwords and short tokens removed)
	ArticleRef string   `json:"article_ref,omitempty"` // Normalized "art. N" reference, if present
}

// TokenSet is an unordered set of normalized tokens
type TokenSet map[string]struct{}

// NewTokenSet builds a set from a list of tokens
func NewTokenSet(tokens ...string) TokenSet {
	set := make(TokenSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Has reports whether the token is in the set
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Add merges tokens into the set
func (s TokenSet) Add(tokens ...string) {
	for _, t := range tokens {
		s[t] = struct{}{}
	}
}

// Overlap counts tokens present in both sets
func (s TokenSet) Overlap(other TokenSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}

	count := 0
	for t := range small {
		if large.Has(t) {
			count++
		}
	}
	return count
}
