package store

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ppiankov/askroute/internal/metrics"
	"github.com/ppiankov/askroute/internal/model"
	"go.uber.org/zap"
)

// ErrNotLoaded is returned when the store is read before Load succeeded
var ErrNotLoaded = errors.New("record store not loaded")

// Store owns the current snapshot of both knowledge sources
type Store struct {
	geoPath        string
	regulationPath string
	logger         *zap.Logger
	metrics        *metrics.Metrics

	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	mu      sync.Mutex // Serializes loads
}

// New creates a store for the configured data files. Nothing is read until Load.
func New(cfg model.DataConfig, logger *zap.Logger, m *metrics.Metrics) (*Store, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.GeoFile == "" || cfg.RegulationFile == "" {
		return nil, fmt.Errorf("both geo_file and regulation_file are required")
	}
	if m == nil {
		m = metrics.NewUnregistered()
	}

	return &Store{
		geoPath:        cfg.GeoFile,
		regulationPath: cfg.RegulationFile,
		logger:         logger.Named("store"),
		metrics:        m,
	}, nil
}

// Load reads both files and publishes a new snapshot. On failure the
// previous snapshot, if any, stays current.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := buildSnapshot(s.geoPath, s.regulationPath)
	if err != nil {
		s.metrics.ReloadsTotal.WithLabelValues("failure").Inc()
		return err
	}

	if prev := s.current.Load(); prev != nil && prev.Fingerprint == snap.Fingerprint {
		s.logger.Debug("data unchanged, keeping snapshot", zap.Uint64("version", prev.Version))
		return nil
	}

	snap.Version = s.version.Add(1)
	s.current.Store(snap)

	s.metrics.ReloadsTotal.WithLabelValues("success").Inc()
	s.metrics.SnapshotRecords.WithLabelValues(string(model.SourceGeo)).Set(float64(len(snap.Geo)))
	s.metrics.SnapshotRecords.WithLabelValues(string(model.SourceRegulation)).Set(float64(len(snap.Regulation)))

	s.logger.Info("snapshot loaded",
		zap.Uint64("version", snap.Version),
		zap.Int("geo_records", len(snap.Geo)),
		zap.Int("regulation_records", len(snap.Regulation)),
		zap.Int("skipped", snap.Skipped),
		zap.String("fingerprint", snap.Fingerprint[:12]),
	)
	if snap.Skipped > 0 {
		s.logger.Warn("malformed records skipped", zap.Int("count", snap.Skipped))
	}

	return nil
}

// Snapshot returns the current snapshot without locking
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Paths returns the watched data files
func (s *Store) Paths() []string {
	return []string{s.geoPath, s.regulationPath}
}
