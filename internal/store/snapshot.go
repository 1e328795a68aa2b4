package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/route"
)

// Snapshot is an immutable view of both knowledge sources. Readers share
// it without locking; a reload replaces it as a whole.
type Snapshot struct {
	Version        uint64
	Fingerprint    string // sha256 over both files' contents
	LoadedAt       time.Time
	Geo            []model.GeoRecord
	Regulation     []model.RegulationRecord
	Vocab          route.Vocabularies
	GeoFile        string // Base name, reported as data_file
	RegulationFile string
	Skipped        int // Malformed rows and blocks left out
}

// DataFile returns the file name to report for a source
func (s *Snapshot) DataFile(source model.Source) string {
	switch source {
	case model.SourceGeo:
		return s.GeoFile
	case model.SourceRegulation:
		return s.RegulationFile
	}
	return ""
}

// buildSnapshot reads and parses both files
func buildSnapshot(geoPath, regulationPath string) (*Snapshot, error) {
	geoData, err := os.ReadFile(geoPath)
	if err != nil {
		return nil, fmt.Errorf("read geo data: %w", err)
	}
	regData, err := os.ReadFile(regulationPath)
	if err != nil {
		return nil, fmt.Errorf("read regulation data: %w", err)
	}

	geo, geoSkipped, err := ParseGeoCSV(geoData)
	if err != nil {
		return nil, fmt.Errorf("parse geo data %s: %w", geoPath, err)
	}
	reg, regSkipped, err := ParseRegulation(regulationPath, regData)
	if err != nil {
		return nil, fmt.Errorf("parse regulation data %s: %w", regulationPath, err)
	}

	names := make([]string, len(geo))
	for i, r := range geo {
		names[i] = r.Name
	}
	titles := make([]string, len(reg))
	for i, r := range reg {
		titles[i] = r.Title
	}

	h := sha256.New()
	h.Write(geoData)
	h.Write([]byte{0})
	h.Write(regData)

	return &Snapshot{
		Fingerprint: hex.EncodeToString(h.Sum(nil)),
		LoadedAt:    time.Now(),
		Geo:         geo,
		Regulation:  reg,
		Vocab: route.Vocabularies{
			Geo:        route.BuildVocabulary(names),
			Regulation: route.BuildVocabulary(titles),
		},
		GeoFile:        filepath.Base(geoPath),
		RegulationFile: filepath.Base(regulationPath),
		Skipped:        geoSkipped + regSkipped,
	}, nil
}
