package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/askroute/internal/cache"
	"github.com/ppiankov/askroute/internal/compose"
	"github.com/ppiankov/askroute/internal/extract"
	"github.com/ppiankov/askroute/internal/metrics"
	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/route"
	"github.com/ppiankov/askroute/internal/store"
	"github.com/ppiankov/askroute/internal/validate"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func loadedStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(model.DataConfig{
		GeoFile:        "testdata/mock_geo_data.csv",
		RegulationFile: "testdata/mock_regulation_data.txt",
	}, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("Expected no error creating store, got %v", err)
	}
	if err := s.Load(); err != nil {
		t.Fatalf("Expected no error loading store, got %v", err)
	}
	return s
}

// staticSource serves a fixed snapshot
type staticSource struct {
	snap *store.Snapshot
}

func (s staticSource) Snapshot() (*store.Snapshot, error) {
	return s.snap, nil
}

func TestAnswer_GeoScenario(t *testing.T) {
	p := NewPipeline(loadedStore(t))

	result, err := p.Answer("What is the mobiscore per ha?", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Source != model.SourceGeo {
		t.Fatalf("Expected geo, got %s", result.Source)
	}
	if !strings.Contains(result.Answer, "Mobiscore per ha") {
		t.Errorf("Expected answer to name the record, got %q", result.Answer)
	}
	if len(result.Meta.TopMatches) == 0 || result.Meta.TopMatches[0].Name != "Mobiscore per ha" {
		t.Errorf("Expected 'Mobiscore per ha' as best match, got %+v", result.Meta.TopMatches)
	}
	if result.Meta.Confidence <= 0 {
		t.Errorf("Expected positive confidence, got %v", result.Meta.Confidence)
	}
	if result.Meta.DataFile == nil || *result.Meta.DataFile != "mock_geo_data.csv" {
		t.Errorf("Expected data file mock_geo_data.csv, got %v", result.Meta.DataFile)
	}
}

func TestAnswer_RegulationArticleScenario(t *testing.T) {
	p := NewPipeline(loadedStore(t))

	result, err := p.Answer("What does Art. 0.4 say about trees?", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Source != model.SourceRegulation {
		t.Fatalf("Expected regulation, got %s", result.Source)
	}
	if result.Meta.RouteScores.Regulation <= result.Meta.RouteScores.Geo {
		t.Errorf("Expected regulation score to lead, got %+v", result.Meta.RouteScores)
	}
	if result.Meta.TopMatches[0].Article != "art. 0.4" {
		t.Errorf("Expected art. 0.4 first, got %+v", result.Meta.TopMatches[0])
	}
	if result.Meta.MatchedArticle != "art. 0.4" {
		t.Errorf("Expected matched article art. 0.4, got %q", result.Meta.MatchedArticle)
	}
	if result.Meta.MatchConfidence != 1 {
		t.Errorf("Expected match confidence 1, got %v", result.Meta.MatchConfidence)
	}
	if !strings.HasPrefix(result.Answer, "From regulation data (art. 0.4): Art. 0.4 Bomen") {
		t.Errorf("Unexpected answer %q", result.Answer)
	}
}

func TestAnswer_UnknownScenario(t *testing.T) {
	p := NewPipeline(loadedStore(t))

	result, err := p.Answer("What is the capital of France?", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Source != model.SourceUnknown {
		t.Fatalf("Expected unknown, got %s", result.Source)
	}
	if result.Answer != compose.UnknownAnswer {
		t.Errorf("Expected fallback answer, got %q", result.Answer)
	}
	if result.Meta.Confidence != 0 {
		t.Errorf("Expected confidence 0, got %v", result.Meta.Confidence)
	}
	if result.Meta.RouteScores != (model.RouteScores{}) {
		t.Errorf("Expected zero route scores, got %+v", result.Meta.RouteScores)
	}
	if result.Meta.DataFile != nil {
		t.Errorf("Expected null data file, got %q", *result.Meta.DataFile)
	}
	if result.Meta.TopMatches == nil || len(result.Meta.TopMatches) != 0 {
		t.Errorf("Expected empty top matches, got %v", result.Meta.TopMatches)
	}
}

func TestAnswer_DefinitionSearch(t *testing.T) {
	p := NewPipeline(loadedStore(t))

	result, err := p.Answer("What is a bouwlaag?", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Source != model.SourceRegulation {
		t.Fatalf("Expected regulation, got %s", result.Source)
	}
	if !strings.Contains(result.Answer, "Bouwlaag") {
		t.Errorf("Expected answer to quote the Bouwlaag article, got %q", result.Answer)
	}
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	m := metrics.NewUnregistered()
	p := NewPipeline(loadedStore(t), WithMetrics(m))

	for _, q := range []string{"", "   ", "\n\t"} {
		result, err := p.Answer(q, 3)
		if !errors.Is(err, validate.ErrEmptyQuestion) {
			t.Errorf("Answer(%q): expected ErrEmptyQuestion, got %v", q, err)
		}
		if result != nil {
			t.Errorf("Answer(%q): expected no result, got %+v", q, result)
		}
	}

	if got := testutil.ToFloat64(m.RejectedTotal); got != 3 {
		t.Errorf("Expected 3 rejections, got %v", got)
	}
}

func TestAnswer_NotLoaded(t *testing.T) {
	s, _ := store.New(model.DataConfig{GeoFile: "a.csv", RegulationFile: "b.txt"}, zap.NewNop(), nil)
	p := NewPipeline(s)

	if _, err := p.Answer("mobiscore", 3); !errors.Is(err, store.ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded, got %v", err)
	}
}

func TestAnswer_TopKBoundsAndOrder(t *testing.T) {
	p := NewPipeline(loadedStore(t))

	tests := []struct {
		topK int
		max  int
	}{
		{0, 1},
		{1, 1},
		{3, 3},
		{99, 5},
	}

	for _, tt := range tests {
		result, err := p.Answer("Wat zegt artikel art 1 over bouwlaag, bouwvlak, groendaken en sloop?", tt.topK)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		matches := result.Meta.TopMatches
		if len(matches) > tt.max {
			t.Errorf("top_k=%d: expected at most %d matches, got %d", tt.topK, tt.max, len(matches))
		}
		for i := 1; i < len(matches); i++ {
			if matches[i].Score > matches[i-1].Score {
				t.Errorf("top_k=%d: expected descending scores, got %d after %d", tt.topK, matches[i].Score, matches[i-1].Score)
			}
		}
	}
}

// stripTiming removes the only field allowed to differ between identical calls
func stripTiming(t *testing.T, r *model.Result) []byte {
	t.Helper()
	clone := *r
	clone.Meta.ProcessingMS = 0
	data, err := json.Marshal(clone)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return data
}

func TestAnswer_Idempotent(t *testing.T) {
	questions := []string{
		"What is the mobiscore per ha?",
		"What does Art. 0.4 say about trees?",
		"What is the capital of France?",
		"Wat is het overstromingsgevoelige gebied?",
	}

	withCache := NewPipeline(loadedStore(t), WithCache(cache.NewMemoryCache(time.Minute, time.Minute)))
	without := NewPipeline(loadedStore(t))

	for _, q := range questions {
		first, err := without.Answer(q, 3)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		second, _ := without.Answer(q, 3)
		cachedMiss, _ := withCache.Answer(q, 3)
		cachedHit, _ := withCache.Answer(q, 3)

		want := stripTiming(t, first)
		for name, r := range map[string]*model.Result{"repeat": second, "cache miss": cachedMiss, "cache hit": cachedHit} {
			if got := stripTiming(t, r); !bytes.Equal(got, want) {
				t.Errorf("%q (%s): expected\n%s\ngot\n%s", q, name, want, got)
			}
		}
	}
}

func TestAnswer_CacheCounters(t *testing.T) {
	m := metrics.NewUnregistered()
	p := NewPipeline(loadedStore(t), WithMetrics(m), WithCache(cache.NewMemoryCache(time.Minute, time.Minute)))

	_, _ = p.Answer("What is a bouwlaag?", 3)
	_, _ = p.Answer("What is a bouwlaag?", 3)
	_, _ = p.Answer("What is a bouwlaag?", 2)

	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("Expected 1 cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheMissesTotal); got != 2 {
		t.Errorf("Expected 2 cache misses, got %v", got)
	}
	if got := testutil.ToFloat64(m.QuestionsTotal.WithLabelValues("regulation")); got != 3 {
		t.Errorf("Expected 3 regulation answers, got %v", got)
	}
}

func TestAnswer_DiskCacheKeepsDiskTTL(t *testing.T) {
	cfg := model.DefaultConfig().Cache
	cfg.Dir = t.TempDir()

	p := NewPipeline(loadedStore(t), WithCache(cache.New(cfg)))
	before := time.Now()
	if _, err := p.Answer("What is a bouwlaag?", 3); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	files, err := filepath.Glob(filepath.Join(cfg.Dir, "*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("Expected one disk entry, got %v (err=%v)", files, err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("Expected readable entry, got %v", err)
	}
	var entry struct {
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("Expected JSON entry, got %v", err)
	}

	lifetime := entry.ExpiresAt.Sub(before)
	if lifetime < cfg.DiskTTL-time.Minute || lifetime > cfg.DiskTTL+time.Minute {
		t.Errorf("Expected disk entry to live about %v, got %v", cfg.DiskTTL, lifetime)
	}
}

func TestAnswer_SkipsMalformedRecords(t *testing.T) {
	good := extract.NewGeoRecord(extract.GeoFields{Name: "Bodemkaart", Details: "svnaam=zandleem"}, 1)
	snap := &store.Snapshot{
		Fingerprint: "static",
		Geo: []model.GeoRecord{
			{Order: 0}, // no name, no tokens
			good,
		},
		Vocab: route.Vocabularies{
			Geo:        route.BuildVocabulary([]string{"Bodemkaart"}),
			Regulation: model.TokenSet{},
		},
		GeoFile: "geo.csv",
	}

	p := NewPipeline(staticSource{snap: snap})
	result, err := p.Answer("Toon de bodemkaart", 5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Source != model.SourceGeo {
		t.Fatalf("Expected geo, got %s", result.Source)
	}
	if len(result.Meta.TopMatches) != 1 || result.Meta.TopMatches[0].Name != "Bodemkaart" {
		t.Errorf("Expected only the valid record, got %+v", result.Meta.TopMatches)
	}
}

func TestAnswer_KnownSourceWithoutMatch(t *testing.T) {
	snap := &store.Snapshot{
		Fingerprint:    "static",
		Vocab:          route.Vocabularies{Geo: model.TokenSet{}, Regulation: model.TokenSet{}},
		RegulationFile: "regels.txt",
	}

	p := NewPipeline(staticSource{snap: snap})
	result, err := p.Answer("Welke verordening geldt voor sloop?", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Source != model.SourceRegulation {
		t.Fatalf("Expected regulation, got %s", result.Source)
	}
	if result.Answer != compose.NoRegulationMatchAnswer {
		t.Errorf("Expected no-match fallback, got %q", result.Answer)
	}
	if result.Meta.MatchConfidence != 0 {
		t.Errorf("Expected match confidence 0, got %v", result.Meta.MatchConfidence)
	}
}

func TestRenderSummary(t *testing.T) {
	p := NewPipeline(loadedStore(t))
	result, _ := p.Answer("What does Art. 0.4 say about trees?", 3)

	var buf bytes.Buffer
	RenderSummary(&buf, result, true)
	out := buf.String()

	for _, want := range []string{"Source:      regulation (mock_regulation_data.txt)", "Article:     art. 0.4", "Top matches:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderJSON(&buf, result); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), `"source": "regulation"`) {
		t.Errorf("Expected indented JSON, got %s", buf.String())
	}
}
