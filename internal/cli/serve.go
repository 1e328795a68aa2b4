package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ppiankov/askroute/internal/metrics"
	"github.com/ppiankov/askroute/internal/natsqa"
	"github.com/ppiankov/askroute/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	serveHost  string
	servePort  int
	serveWatch bool
	serveNATS  string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question API over HTTP (and NATS when enabled)",
	Long: `Serve loads both data files and answers questions over HTTP:

  GET  /            service description
  GET  /api/status  loaded snapshot
  POST /api/ask/    {"question": "...", "top_k": 3}
  GET  /metrics     Prometheus metrics

With --watch the data files are reloaded when they change. Requests in
flight keep the snapshot they started with.

Example:
  askroute serve
  askroute serve --port 9000 --watch
  askroute serve --nats nats://127.0.0.1:4222`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload data files when they change")
	serveCmd.Flags().StringVar(&serveNATS, "nats", "", "also answer over NATS at this URL")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if serveWatch {
		cfg.Data.Watch = true
	}
	if serveNATS != "" {
		cfg.NATS.Enabled = true
		cfg.NATS.URL = serveNATS
	}

	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	eng, err := openEngine(cfg, logger, m)
	if err != nil {
		return err
	}

	if cfg.Data.Watch {
		go func() {
			if err := eng.store.Watch(ctx, cfg.Data.Debounce); err != nil {
				logger.Error("data watcher stopped", zap.Error(err))
			}
		}()
	}

	if cfg.NATS.Enabled {
		nc, err := natsqa.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer func() {
			if err := natsqa.Drain(nc, 10*time.Second); err != nil {
				logger.Warn("drain nats", zap.Error(err))
			}
		}()

		if _, err := natsqa.Serve(nc, cfg.NATS.Subject, eng.pipeline, cfg.Engine.DefaultTopK, logger); err != nil {
			return err
		}
	}

	srv, err := server.NewServer(eng.pipeline, eng.store, logger, &server.Config{
		Server:      cfg.Server,
		RateLimit:   cfg.RateLimiting,
		DefaultTopK: cfg.Engine.DefaultTopK,
	}, server.WithMetrics(m, registry))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
