package route

import (
	"math"

	"github.com/ppiankov/askroute/internal/extract"
	"github.com/ppiankov/askroute/internal/model"
)

const (
	// KeywordWeight is added per distinct keyword hit
	KeywordWeight = 2
	// VocabularyWeight is added per question token found in a source vocabulary
	VocabularyWeight = 1
	// ArticleBoost is added to the regulation score when the question cites an article
	ArticleBoost = 5
	// MinMargin is the smallest lead that still decides a route
	MinMargin = 2
)

// Vocabularies holds the per-source token sets built from record names and titles
type Vocabularies struct {
	Geo        model.TokenSet
	Regulation model.TokenSet
}

// BuildVocabulary collects the filtered tokens of the given names
func BuildVocabulary(names []string) model.TokenSet {
	vocab := make(model.TokenSet)
	for _, name := range names {
		vocab.Add(extract.Keywords(name)...)
	}
	return vocab
}

// Decision is the routing outcome for one question
type Decision struct {
	Source     model.Source
	Scores     model.RouteScores
	Confidence float64
	ArticleRef string
	Signals    []Signal // Per-source breakdown, in geo/regulation order
}

// Signal explains how one source's score was reached
type Signal struct {
	Source  model.Source
	Hits    []string
	Overlap int
	Boost   int
	Score   int
	Formula string
}

// Router scores a question against each source's keywords and vocabulary
type Router struct {
	geoKeywords        []Keyword
	regulationKeywords []Keyword
}

// NewRouter creates a router with the default keyword tables
func NewRouter() *Router {
	return NewRouterWithKeywords(GeoKeywords, RegulationKeywords)
}

// NewRouterWithKeywords creates a router with custom keyword tables
func NewRouterWithKeywords(geo, regulation []Keyword) *Router {
	return &Router{
		geoKeywords:        geo,
		regulationKeywords: regulation,
	}
}

// Route decides which source should answer the question
func (r *Router) Route(q model.Question, vocab Vocabularies) Decision {
	// 1. Score each source
	geo := r.scoreSource(model.SourceGeo, q, r.geoKeywords, vocab.Geo, 0)

	boost := 0
	if q.ArticleRef != "" {
		boost = ArticleBoost
	}
	reg := r.scoreSource(model.SourceRegulation, q, r.regulationKeywords, vocab.Regulation, boost)

	scores := model.RouteScores{Geo: geo.Score, Regulation: reg.Score}
	decision := Decision{
		Scores:     scores,
		ArticleRef: q.ArticleRef,
		Signals:    []Signal{geo, reg},
	}

	// 2. An article reference always selects the regulation source
	if q.ArticleRef != "" {
		decision.Source = model.SourceRegulation
		decision.Confidence = margin(reg.Score, geo.Score)
		return decision
	}

	// 3. Otherwise the leader wins only by a clear margin
	best, second := scores.Best()
	decision.Confidence = margin(best, second)

	switch {
	case best == 0, best-second < MinMargin:
		decision.Source = model.SourceUnknown
	case geo.Score > reg.Score:
		decision.Source = model.SourceGeo
	default:
		decision.Source = model.SourceRegulation
	}

	return decision
}

func (r *Router) scoreSource(source model.Source, q model.Question, keywords []Keyword, vocab model.TokenSet, boost int) Signal {
	var hits []string
	for _, k := range keywords {
		if k.Matches(q.Phrase, q.Terms) {
			hits = append(hits, k.Term)
		}
	}
	overlap := q.Tokens.Overlap(vocab)

	return Signal{
		Source:  source,
		Hits:    hits,
		Overlap: overlap,
		Boost:   boost,
		Score:   KeywordWeight*len(hits) + VocabularyWeight*overlap + boost,
		Formula: "2 * keyword_hits + vocabulary_overlap + article_boost",
	}
}

// margin returns (chosen - other) / chosen clamped to [0,1] and rounded to
// two decimals; 0 when chosen is 0
func margin(chosen, other int) float64 {
	if chosen <= 0 {
		return 0
	}
	m := float64(chosen-other) / float64(chosen)
	if m < 0 {
		m = 0
	}
	if m > 1 {
		m = 1
	}
	return math.Round(m*100) / 100
}
