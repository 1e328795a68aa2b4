// Package server provides the HTTP API for askroute.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ppiankov/askroute/internal/metrics"
	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/store"
	"github.com/ppiankov/askroute/internal/validate"
	"github.com/ppiankov/askroute/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "askroute"

// StatusSource exposes the record snapshot currently being served.
type StatusSource interface {
	Snapshot() (*store.Snapshot, error)
}

// Server provides HTTP endpoints for askroute.
type Server struct {
	echo        *echo.Echo
	http        *http.Server
	answerer    worker.Answerer
	records     StatusSource
	limiter     *worker.ClientLimiter // nil when rate limiting is disabled
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	logger      *zap.Logger
	config      *Config
	pruneCtx    context.Context
	pruneCancel context.CancelFunc
}

// Config holds HTTP server configuration.
type Config struct {
	Server      model.ServerConfig
	RateLimit   model.RateLimitConfig
	DefaultTopK int
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics in m and exposes gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// ipExtractor identifies the client for rate limiting. Without trusted
// proxies only the TCP peer counts, so forwarding headers cannot be spoofed.
func ipExtractor(trusted []string) (echo.IPExtractor, error) {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect(), nil
	}

	options := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trusted {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		options = append(options, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(options...), nil
}

// NewServer creates a new HTTP server.
func NewServer(answerer worker.Answerer, records StatusSource, logger *zap.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if answerer == nil {
		return nil, fmt.Errorf("answerer cannot be nil")
	}
	if records == nil {
		return nil, fmt.Errorf("record source cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		defaults := model.DefaultConfig()
		cfg = &Config{
			Server:      defaults.Server,
			RateLimit:   defaults.RateLimiting,
			DefaultTopK: defaults.Engine.DefaultTopK,
		}
	}

	extractor, err := ipExtractor(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = extractor

	s := &Server{
		echo:     e,
		answerer: answerer,
		records:  records,
		logger:   logger.Named("http"),
		config:   cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewUnregistered()
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		s.limiter = worker.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	}

	s.pruneCtx, s.pruneCancel = context.WithCancel(context.Background())
	e.HTTPErrorHandler = s.handleError

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.requestLogger)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	s.registerRoutes()

	s.http = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      otelhttp.NewHandler(e, serviceName),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)

	api := s.echo.Group("/api", s.rateLimit)
	api.GET("/status", s.handleStatus)
	api.POST("/ask", s.handleAsk)
	api.POST("/ask/", s.handleAsk)

	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// AskRequest is the request body for POST /api/ask/.
// Q is accepted as an alias for Question.
type AskRequest struct {
	Question string `json:"question"`
	Q        string `json:"q"`
	TopK     *int   `json:"top_k"`
}

// RootResponse is the response body for GET /.
type RootResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

// StatusResponse is the response body for GET /api/status.
type StatusResponse struct {
	Status            string    `json:"status"`
	SnapshotVersion   uint64    `json:"snapshot_version"`
	Fingerprint       string    `json:"fingerprint"`
	LoadedAt          time.Time `json:"loaded_at"`
	GeoRecords        int       `json:"geo_records"`
	RegulationRecords int       `json:"regulation_records"`
	SkippedRecords    int       `json:"skipped_records"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{
		Status:    "ok",
		Message:   "Question-Answering Agent API",
		Endpoints: map[string]string{"ask": "/api/ask/"},
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	snap, err := s.records.Snapshot()
	if err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, "records not loaded")
	}

	return c.JSON(http.StatusOK, StatusResponse{
		Status:            "ok",
		SnapshotVersion:   snap.Version,
		Fingerprint:       snap.Fingerprint,
		LoadedAt:          snap.LoadedAt,
		GeoRecords:        len(snap.Geo),
		RegulationRecords: len(snap.Regulation),
		SkippedRecords:    snap.Skipped,
	})
}

// handleAsk answers a question. Every non-empty question gets a 200,
// including those routed to "unknown".
func (s *Server) handleAsk(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ask request", zap.Error(err))
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	question := req.Question
	if strings.TrimSpace(question) == "" {
		question = req.Q
	}
	topK := s.config.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	result, err := s.answerer.Answer(question, topK)
	if err != nil {
		if errors.Is(err, validate.ErrEmptyQuestion) {
			return errorJSON(c, http.StatusBadRequest, validate.ErrEmptyQuestion.Error())
		}
		s.logger.Error("answer question",
			zap.Error(err),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return errorJSON(c, http.StatusInternalServerError, "failed to process question")
	}

	return c.JSON(http.StatusOK, result)
}

// rateLimit rejects clients exceeding their per-IP budget.
func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.limiter != nil && !s.limiter.Allow(c.RealIP()) {
			s.metrics.RateLimitedTotal.Inc()
			return errorJSON(c, http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)

		return nil
	}
}

// handleError renders every error in the same envelope as the ask endpoint.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		s.logger.Error("unhandled request error", zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = errorJSON(c, code, message)
}

func errorJSON(c echo.Context, code int, message string) error {
	return c.JSON(code, model.ErrorResponse{
		Error:  message,
		Source: model.SourceUnknown,
	})
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	if s.limiter != nil {
		go s.limiter.RunPruner(s.pruneCtx, time.Minute)
	}

	s.logger.Info("starting http server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.pruneCancel()
	return s.http.Shutdown(ctx)
}
