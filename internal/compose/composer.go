package compose

import (
	"fmt"
	"strings"

	"github.com/ppiankov/askroute/internal/extract"
	"github.com/ppiankov/askroute/internal/model"
)

// Fixed fallback answers
const (
	UnknownAnswer           = "I could not determine which data source applies to that question."
	NoGeoMatchAnswer        = "No relevant geo match found in the data."
	NoRegulationMatchAnswer = "No relevant regulation match found in the data."
)

const (
	// AnswerSnippetLength bounds the regulation text quoted in an answer
	AnswerSnippetLength = 300
	// MatchSnippetLength bounds the regulation text shown per top match
	MatchSnippetLength = 160
)

// Answer renders the answer string for the chosen source and best record.
// best may be nil when nothing matched.
func Answer(source model.Source, best *model.Record) string {
	switch source {
	case model.SourceGeo:
		if best == nil || best.Geo == nil {
			return NoGeoMatchAnswer
		}
		return GeoAnswer(best.Geo)
	case model.SourceRegulation:
		if best == nil || best.Regulation == nil {
			return NoRegulationMatchAnswer
		}
		return RegulationAnswer(best.Regulation)
	}
	return UnknownAnswer
}

// GeoAnswer fills the geo template; absent fields are left out
func GeoAnswer(r *model.GeoRecord) string {
	var fields []string
	if r.Status != "" {
		fields = append(fields, "status="+r.Status)
	}
	if r.DistanceM != "" {
		fields = append(fields, "distance_m="+r.DistanceM)
	}
	if r.OverlapFraction != "" {
		fields = append(fields, "overlap_fraction="+r.OverlapFraction)
	}
	if details := extract.SummarizeDetails(r.Details); details != "" {
		fields = append(fields, "details="+details)
	}

	if len(fields) == 0 {
		return fmt.Sprintf("Match in geo data: %s.", r.Name)
	}
	return fmt.Sprintf("Match in geo data: %s. %s.", r.Name, strings.Join(fields, "; "))
}

// RegulationAnswer quotes the block text verbatim, whitespace collapsed
func RegulationAnswer(r *model.RegulationRecord) string {
	snippet := extract.Snippet(r.Body, AnswerSnippetLength)
	if r.ArticleID == "" {
		return "From regulation data: " + snippet
	}
	return fmt.Sprintf("From regulation data (%s): %s", r.ArticleID, snippet)
}

// GeoMatch serializes a scored geo record for the top_matches list
func GeoMatch(r model.GeoRecord, score int) model.TopMatch {
	return model.TopMatch{
		Score:           score,
		Name:            r.Name,
		Status:          r.Status,
		DistanceM:       r.DistanceM,
		OverlapFraction: r.OverlapFraction,
		Details:         extract.SummarizeDetails(r.Details),
	}
}

// RegulationMatch serializes a scored regulation record for the top_matches list
func RegulationMatch(r model.RegulationRecord, score int) model.TopMatch {
	return model.TopMatch{
		Score:   score,
		Title:   r.Title,
		Article: r.ArticleID,
		Snippet: extract.Snippet(r.Body, MatchSnippetLength),
	}
}
