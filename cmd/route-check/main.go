// Demo program printing how sample questions are routed and answered
// against the mock datasets
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/askroute/internal/extract"
	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/pipeline"
	"github.com/ppiankov/askroute/internal/route"
	"github.com/ppiankov/askroute/internal/store"
	"go.uber.org/zap"
)

func main() {
	geoFile := flag.String("geo", "data/mock_geo_data.csv", "geo dataset")
	regFile := flag.String("regulation", "data/mock_regulation_data.txt", "regulation dataset")
	flag.Parse()

	fmt.Println("=== Question Routing Check ===")
	fmt.Println()

	st, err := store.New(model.DataConfig{GeoFile: *geoFile, RegulationFile: *regFile}, zap.NewNop(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := st.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	snap, _ := st.Snapshot()

	questions := []string{
		"What is the mobiscore per ha?",
		"Which areas are overstromingsgevoelig?",
		"Wat zegt de bodemkaart over dit perceel?",
		"What does Art. 0.4 say about trees?",
		"Wat is een bouwlaag?",
		"Mag ik een groendak plaatsen zonder vergunning?",
		"What is the capital of France?",
		"map",
	}

	router := route.NewRouter()
	p := pipeline.NewPipeline(st)

	for _, question := range questions {
		fmt.Printf("Q: %s\n", question)
		fmt.Println(strings.Repeat("-", 60))

		decision := router.Route(extract.ParseQuestion(question), snap.Vocab)
		for _, sig := range decision.Signals {
			fmt.Printf("  %-11s score=%-3d hits=%v overlap=%d boost=%d\n",
				sig.Source, sig.Score, sig.Hits, sig.Overlap, sig.Boost)
		}
		if decision.ArticleRef != "" {
			fmt.Printf("  article reference: %s\n", decision.ArticleRef)
		}
		fmt.Printf("  → %s (route confidence %.2f)\n", decision.Source, decision.Confidence)

		result, err := p.Answer(question, 3)
		if err != nil {
			fmt.Printf("  ✗ %v\n\n", err)
			continue
		}
		fmt.Printf("  %s\n", result.Answer)
		fmt.Printf("  confidence %.2f, %d top matches\n\n", result.Meta.Confidence, len(result.Meta.TopMatches))
	}
}
