package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/askroute/internal/model"
)

// RenderJSON writes the result as indented JSON
func RenderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// RenderSummary writes a human-readable summary of the result
func RenderSummary(w io.Writer, result *model.Result, verbose bool) {
	meta := result.Meta

	fmt.Fprintf(w, "\n%s\n\n", result.Answer)
	fmt.Fprintf(w, "  Source:      %s", result.Source)
	if meta.DataFile != nil {
		fmt.Fprintf(w, " (%s)", *meta.DataFile)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Confidence:  %.2f (route %.2f, match %.2f)\n", meta.Confidence, meta.RouteConfidence, meta.MatchConfidence)

	if !verbose {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "  Scores:      geo=%d regulation=%d\n", meta.RouteScores.Geo, meta.RouteScores.Regulation)
	if meta.MatchedArticle != "" {
		fmt.Fprintf(w, "  Article:     %s\n", meta.MatchedArticle)
	}
	fmt.Fprintf(w, "  Time:        %dms\n", meta.ProcessingMS)

	if len(meta.TopMatches) > 0 {
		fmt.Fprintf(w, "\n  Top matches:\n")
		for i, m := range meta.TopMatches {
			fmt.Fprintf(w, "    %d. [%d] %s\n", i+1, m.Score, matchLabel(m))
		}
	}
	fmt.Fprintln(w)
}

func matchLabel(m model.TopMatch) string {
	if m.Name != "" {
		parts := []string{m.Name}
		if m.Details != "" {
			parts = append(parts, m.Details)
		}
		return strings.Join(parts, " - ")
	}
	return m.Title
}
