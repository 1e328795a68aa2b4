package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/askroute/internal/metrics"
	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchTopK    int
	batchOutput  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer many questions from a file in parallel",
	Long: `Batch answers every question in a file concurrently:
- Read questions from the input file (one per line, '#' starts a comment)
- Drop duplicate questions
- Answer in parallel with a configurable worker count
- Write one JSON line per question, in input order

Example:
  askroute batch questions.txt
  askroute batch questions.txt --concurrency 8 --output results.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().IntVar(&batchTopK, "top-k", 0, "number of top matches to report, 1-5 (default from config)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output JSONL path (default: stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

// batchLine is one line of batch output
type batchLine struct {
	Question string        `json:"question"`
	Result   *model.Result `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	topK := cfg.Engine.DefaultTopK
	if cmd.Flags().Changed("top-k") {
		topK = batchTopK
	}

	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  askroute Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Top K:        %d\n", topK)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	eng, err := openEngine(cfg, logger, metrics.NewUnregistered())
	if err != nil {
		return err
	}

	asker := worker.NewBatchAsker(eng.pipeline, cfg.Concurrency.Workers, topK)
	results, err := asker.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	var out io.Writer = os.Stdout
	if batchOutput != "" {
		f, createErr := os.Create(batchOutput)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		out = f
	}

	counts, err := writeBatchResults(out, results)
	if err != nil {
		return err
	}

	// Summary
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:       %d questions\n", len(results))
	fmt.Fprintf(os.Stderr, "  Geo:         %d\n", counts[model.SourceGeo])
	fmt.Fprintf(os.Stderr, "  Regulation:  %d\n", counts[model.SourceRegulation])
	fmt.Fprintf(os.Stderr, "  Unknown:     %d\n", counts[model.SourceUnknown])
	fmt.Fprintf(os.Stderr, "  Failures:    %d\n", counts[""])
	if batchOutput != "" {
		fmt.Fprintf(os.Stderr, "  Output:      %s\n", batchOutput)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// writeBatchResults writes one JSON line per result and counts results by
// source; failures are counted under the empty source
func writeBatchResults(w io.Writer, results []*worker.AskResult) (map[model.Source]int, error) {
	counts := make(map[model.Source]int)
	enc := json.NewEncoder(w)

	for _, r := range results {
		line := batchLine{Question: r.Question, Result: r.Result}
		if r.Error != nil {
			line.Error = r.Error.Error()
			counts[""]++
		} else {
			counts[r.Result.Source]++
		}

		if err := enc.Encode(line); err != nil {
			return counts, fmt.Errorf("write result: %w", err)
		}
	}

	return counts, nil
}
