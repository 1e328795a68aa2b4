package cli

import (
	"fmt"
	"strings"

	"github.com/ppiankov/askroute/internal/cache"
	"github.com/ppiankov/askroute/internal/logging"
	"github.com/ppiankov/askroute/internal/metrics"
	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/pipeline"
	"github.com/ppiankov/askroute/internal/store"
	"go.uber.org/zap"
)

// engine bundles the loaded record store and the pipeline answering from it
type engine struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

// newLogger builds the process logger. One-shot commands raise the default
// info level to warn unless --verbose is set.
func newLogger(cfg *model.Config, oneShot bool) (*zap.Logger, error) {
	logCfg := cfg.Logging
	if oneShot && !cfg.Output.Verbose && strings.EqualFold(logCfg.Level, "info") {
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// openEngine loads both data files and wires the pipeline with the
// configured answer cache
func openEngine(cfg *model.Config, logger *zap.Logger, m *metrics.Metrics) (*engine, error) {
	st, err := store.New(cfg.Data, logger, m)
	if err != nil {
		return nil, err
	}
	if err := st.Load(); err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
	}
	if c := cache.New(cfg.Cache); c != nil {
		opts = append(opts, pipeline.WithCache(c))
	}

	return &engine{
		store:    st,
		pipeline: pipeline.NewPipeline(st, opts...),
		logger:   logger,
	}, nil
}
