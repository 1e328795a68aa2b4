package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/askroute/internal/metrics"
	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/natsqa"
	"github.com/ppiankov/askroute/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	askTopK    int
	askJSON    bool
	askNATS    string
	askTimeout time.Duration
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Long: `Ask routes one question to the geo or regulation data and prints the
answer with its confidence.

The question is answered locally from the configured data files, or by a
running 'askroute serve' over NATS when --nats is given.

Example:
  askroute ask "What is the mobiscore per ha?"
  askroute ask "What does Art. 0.4 say about trees?" --json
  askroute ask "Wat is een bouwlaag?" --top-k 5 --nats nats://127.0.0.1:4222`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "number of top matches to report, 1-5 (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
	askCmd.Flags().StringVar(&askNATS, "nats", "", "ask a running server over NATS at this URL")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 5*time.Second, "NATS request timeout")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	topK := cfg.Engine.DefaultTopK
	if cmd.Flags().Changed("top-k") {
		topK = askTopK
	}

	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var result *model.Result
	if askNATS != "" {
		result, err = askRemote(cmd.Context(), cfg, logger, question, topK)
	} else {
		result, err = askLocal(cfg, logger, question, topK)
	}
	if err != nil {
		return err
	}

	if askJSON {
		return pipeline.RenderJSON(os.Stdout, result)
	}
	pipeline.RenderSummary(os.Stdout, result, cfg.Output.Verbose)
	return nil
}

func askLocal(cfg *model.Config, logger *zap.Logger, question string, topK int) (*model.Result, error) {
	eng, err := openEngine(cfg, logger, metrics.NewUnregistered())
	if err != nil {
		return nil, err
	}

	result, err := eng.pipeline.Answer(question, topK)
	if err != nil {
		return nil, fmt.Errorf("ask failed: %w", err)
	}
	return result, nil
}

func askRemote(ctx context.Context, cfg *model.Config, logger *zap.Logger, question string, topK int) (*model.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, askTimeout)
	defer cancel()

	nc, err := natsqa.Connect(askNATS, logger)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	defer nc.Close()

	result, err := natsqa.Ask(ctx, nc, cfg.NATS.Subject, natsqa.AskRequest{
		Question: question,
		TopK:     &topK,
	})
	if err != nil {
		return nil, fmt.Errorf("ask failed: %w", err)
	}
	return result, nil
}
