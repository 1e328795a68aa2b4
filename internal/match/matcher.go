package match

import (
	"math"
	"sort"

	"github.com/ppiankov/askroute/internal/extract"
	"github.com/ppiankov/askroute/internal/model"
)

const (
	MinTopK     = 1
	MaxTopK     = 5
	DefaultTopK = 3

	// PhraseBoost is added when a record title occurs verbatim in the question
	PhraseBoost = 3
	// MinPhraseLength is the shortest normalized title eligible for PhraseBoost
	MinPhraseLength = 4
	// ArticleBoost is added when the question cites the record's article
	ArticleBoost = 10
	// ConfidenceCeiling is the score at which match confidence saturates
	ConfidenceCeiling = 5
)

// Document is the searchable view of one record
type Document struct {
	Phrase    string // Normalized title
	ArticleID string
	Tokens    model.TokenSet
	Order     int
}

// Valid reports whether the document has anything to match against
func (d Document) Valid() bool {
	return d.Phrase != "" || len(d.Tokens) > 0
}

// GeoDocument indexes a geo record by its name
func GeoDocument(r model.GeoRecord) Document {
	return Document{
		Phrase: extract.NormalizePhrase(r.Name),
		Tokens: r.Tokens,
		Order:  r.Order,
	}
}

// RegulationDocument indexes a regulation record by its title and article
func RegulationDocument(r model.RegulationRecord) Document {
	return Document{
		Phrase:    extract.NormalizePhrase(r.Title),
		ArticleID: r.ArticleID,
		Tokens:    r.Tokens,
		Order:     r.Order,
	}
}

// Candidate is a scored record
type Candidate[R any] struct {
	Record R
	Score  int
	Order  int
}

// Matcher ranks records of one variant against a question
type Matcher[R any] struct {
	document func(R) Document
}

// NewMatcher creates a matcher using the given document extractor
func NewMatcher[R any](document func(R) Document) *Matcher[R] {
	return &Matcher[R]{document: document}
}

// NewGeoMatcher creates a matcher for geo records
func NewGeoMatcher() *Matcher[model.GeoRecord] {
	return NewMatcher(GeoDocument)
}

// NewRegulationMatcher creates a matcher for regulation records
func NewRegulationMatcher() *Matcher[model.RegulationRecord] {
	return NewMatcher(RegulationDocument)
}

// Rank scores every record, drops zero scores and returns at most
// ClampTopK(topK) candidates, best first, ties in load order
func (m *Matcher[R]) Rank(q model.Question, records []R, topK int) []Candidate[R] {
	var candidates []Candidate[R]
	for _, rec := range records {
		doc := m.document(rec)
		if !doc.Valid() {
			continue
		}

		score := Score(q, doc)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, Candidate[R]{Record: rec, Score: score, Order: doc.Order})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Order < candidates[j].Order
	})

	if k := ClampTopK(topK); len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// Score computes token overlap plus phrase and article boosts
func Score(q model.Question, doc Document) int {
	score := q.Tokens.Overlap(doc.Tokens)

	if len(doc.Phrase) >= MinPhraseLength && extract.ContainsPhrase(q.Phrase, doc.Phrase) {
		score += PhraseBoost
	}
	if q.ArticleRef != "" && q.ArticleRef == doc.ArticleID {
		score += ArticleBoost
	}

	return score
}

// ClampTopK bounds topK to [MinTopK, MaxTopK]
func ClampTopK(topK int) int {
	if topK < MinTopK {
		return MinTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// Confidence maps the best score to [0,1], rounded to two decimals
func Confidence(best int) float64 {
	if best <= 0 {
		return 0
	}
	c := math.Min(1, float64(best)/ConfidenceCeiling)
	return math.Round(c*100) / 100
}
