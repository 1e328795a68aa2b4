package score

import (
	"math"
	"time"

	"github.com/ppiankov/askroute/internal/model"
)

const (
	// RouteWeight is the share of route confidence in the overall confidence
	RouteWeight = 0.4
	// MatchWeight is the share of match confidence in the overall confidence
	MatchWeight = 0.6
)

// Inputs carries everything needed to build the confidence envelope
type Inputs struct {
	Source          model.Source
	RouteScores     model.RouteScores
	RouteConfidence float64
	MatchConfidence float64
	TopMatches      []model.TopMatch
	Elapsed         time.Duration
	DataFile        string // Base name of the searched file, ignored for unknown
	MatchedArticle  string
}

// Synthesizer combines routing and matching strength into one confidence
type Synthesizer struct {
	routeWeight float64
	matchWeight float64
}

// NewSynthesizer creates a synthesizer with the default weights
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		routeWeight: RouteWeight,
		matchWeight: MatchWeight,
	}
}

// Confidence returns the weighted overall confidence, 0 for unknown
func (s *Synthesizer) Confidence(source model.Source, routeConfidence, matchConfidence float64) float64 {
	if source == model.SourceUnknown {
		return 0
	}
	c := s.routeWeight*clamp01(routeConfidence) + s.matchWeight*clamp01(matchConfidence)
	return round2(clamp01(c))
}

// Meta assembles the confidence envelope
func (s *Synthesizer) Meta(in Inputs) model.Meta {
	meta := model.Meta{
		Confidence:      s.Confidence(in.Source, in.RouteConfidence, in.MatchConfidence),
		RouteConfidence: round2(clamp01(in.RouteConfidence)),
		MatchConfidence: round2(clamp01(in.MatchConfidence)),
		RouteScores:     in.RouteScores,
		TopMatches:      in.TopMatches,
		ProcessingMS:    in.Elapsed.Milliseconds(),
		MatchedArticle:  in.MatchedArticle,
	}

	if meta.TopMatches == nil {
		meta.TopMatches = []model.TopMatch{}
	}

	if in.Source != model.SourceUnknown && in.DataFile != "" {
		dataFile := in.DataFile
		meta.DataFile = &dataFile
	}

	if in.Source == model.SourceUnknown {
		meta.MatchConfidence = 0
		meta.TopMatches = []model.TopMatch{}
		meta.MatchedArticle = ""
	}

	return meta
}

// Breakdown exposes the inputs and formulas behind a confidence value
func (s *Synthesizer) Breakdown(in Inputs) map[string]interface{} {
	return map[string]interface{}{
		"source":           in.Source,
		"route_scores":     in.RouteScores,
		"route_confidence": in.RouteConfidence,
		"match_confidence": in.MatchConfidence,
		"confidence":       s.Confidence(in.Source, in.RouteConfidence, in.MatchConfidence),
		"formula":          "round(0.4 * route_confidence + 0.6 * match_confidence, 2), 0 when unknown",
		"route_formula":    "(best - second) / best",
		"match_formula":    "min(1, best_match_score / 5)",
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
