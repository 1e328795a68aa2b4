package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/askroute/internal/cache"
	"github.com/ppiankov/askroute/internal/compose"
	"github.com/ppiankov/askroute/internal/extract"
	"github.com/ppiankov/askroute/internal/match"
	"github.com/ppiankov/askroute/internal/metrics"
	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/route"
	"github.com/ppiankov/askroute/internal/score"
	"github.com/ppiankov/askroute/internal/store"
	"github.com/ppiankov/askroute/internal/validate"
	"go.uber.org/zap"
)

// SnapshotSource provides the current immutable record snapshot
type SnapshotSource interface {
	Snapshot() (*store.Snapshot, error)
}

// Pipeline answers questions: route, match, synthesize confidence, compose
type Pipeline struct {
	records     SnapshotSource
	router      *route.Router
	geo         *match.Matcher[model.GeoRecord]
	regulation  *match.Matcher[model.RegulationRecord]
	synthesizer *score.Synthesizer
	cache       cache.Cache // Optional, nil disables caching
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithCache enables the answer cache; entries expire per layer defaults
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// WithMetrics records engine metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRouter replaces the default router
func WithRouter(r *route.Router) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.router = r
		}
	}
}

// NewPipeline creates a pipeline reading records from the given source
func NewPipeline(records SnapshotSource, opts ...Option) *Pipeline {
	p := &Pipeline{
		records:     records,
		router:      route.NewRouter(),
		geo:         match.NewGeoMatcher(),
		regulation:  match.NewRegulationMatcher(),
		synthesizer: score.NewSynthesizer(),
		metrics:     metrics.NewUnregistered(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("pipeline")
	return p
}

// Answer answers one question. top_k is clamped to [1,5]. The only input
// error is an empty question (validate.ErrEmptyQuestion); every other
// question produces a Result, "unknown" included.
func (p *Pipeline) Answer(question string, topK int) (*model.Result, error) {
	// 1. Validate input
	if err := validate.Question(question); err != nil {
		p.metrics.RejectedTotal.Inc()
		return nil, fmt.Errorf("answer: %w", err)
	}

	snap, err := p.records.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	topK = match.ClampTopK(topK)
	start := time.Now()

	// 2. Serve from cache when the same snapshot already answered it
	key := cache.AnswerKey(snap.Fingerprint, topK, question)
	if cached := p.lookup(key); cached != nil {
		cached.Meta.ProcessingMS = time.Since(start).Milliseconds()
		p.metrics.QuestionsTotal.WithLabelValues(string(cached.Source)).Inc()
		return cached, nil
	}

	// 3. Route
	q := extract.ParseQuestion(question)
	decision := p.router.Route(q, snap.Vocab)

	// 4. Match within the chosen source only
	var (
		best           *model.Record
		bestScore      int
		topMatches     []model.TopMatch
		matchedArticle string
	)

	switch decision.Source {
	case model.SourceGeo:
		candidates := p.geo.Rank(q, snap.Geo, topK)
		for _, c := range candidates {
			topMatches = append(topMatches, compose.GeoMatch(c.Record, c.Score))
		}
		if len(candidates) > 0 {
			rec := model.GeoRecordOf(&candidates[0].Record)
			best = &rec
			bestScore = candidates[0].Score
		}

	case model.SourceRegulation:
		candidates := p.regulation.Rank(q, snap.Regulation, topK)
		for _, c := range candidates {
			topMatches = append(topMatches, compose.RegulationMatch(c.Record, c.Score))
		}
		if len(candidates) > 0 {
			rec := model.RegulationRecordOf(&candidates[0].Record)
			best = &rec
			bestScore = candidates[0].Score
			if id := rec.Regulation.ArticleID; q.ArticleRef != "" && id == q.ArticleRef {
				matchedArticle = id
			}
		}
	}

	elapsed := time.Since(start)

	// 5. Synthesize confidence and compose the answer
	in := score.Inputs{
		Source:          decision.Source,
		RouteScores:     decision.Scores,
		RouteConfidence: decision.Confidence,
		MatchConfidence: match.Confidence(bestScore),
		TopMatches:      topMatches,
		Elapsed:         elapsed,
		DataFile:        snap.DataFile(decision.Source),
		MatchedArticle:  matchedArticle,
	}

	result := &model.Result{
		Answer: compose.Answer(decision.Source, best),
		Source: decision.Source,
		Meta:   p.synthesizer.Meta(in),
	}

	p.metrics.QuestionsTotal.WithLabelValues(string(result.Source)).Inc()
	p.metrics.AnswerDuration.WithLabelValues(string(result.Source)).Observe(elapsed.Seconds())

	if ce := p.logger.Check(zap.DebugLevel, "question routed"); ce != nil {
		ce.Write(
			zap.String("source", string(decision.Source)),
			zap.Int("geo_score", decision.Scores.Geo),
			zap.Int("regulation_score", decision.Scores.Regulation),
			zap.Strings("geo_hits", decision.Signals[0].Hits),
			zap.Strings("regulation_hits", decision.Signals[1].Hits),
			zap.Int("best_match_score", bestScore),
			zap.Any("confidence", p.synthesizer.Breakdown(in)),
			zap.Uint64("snapshot", snap.Version),
		)
	}

	p.remember(key, result)
	return result, nil
}

// lookup returns a cached result or nil
func (p *Pipeline) lookup(key string) *model.Result {
	if p.cache == nil {
		return nil
	}

	data, found := p.cache.Get(key)
	if !found {
		p.metrics.CacheMissesTotal.Inc()
		return nil
	}

	var result model.Result
	if err := json.Unmarshal(data, &result); err != nil {
		p.logger.Warn("discarding unreadable cache entry", zap.Error(err))
		_ = p.cache.Delete(key)
		p.metrics.CacheMissesTotal.Inc()
		return nil
	}

	p.metrics.CacheHitsTotal.Inc()
	return &result
}

// remember saves a result in the cache; failures only cost a future recompute
func (p *Pipeline) remember(key string, result *model.Result) {
	if p.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		p.logger.Warn("encode result for cache", zap.Error(err))
		return
	}
	if err := p.cache.Set(key, data, 0); err != nil {
		p.logger.Warn("write answer cache", zap.Error(err))
	}
}
