package extract

import (
	"strings"

	"github.com/ppiankov/askroute/internal/model"
)

// GeoFields are the raw cells of one geo data row
type GeoFields struct {
	Name            string
	Status          string
	DistanceM       string
	OverlapFraction string
	Details         string
}

// NewGeoRecord normalizes a geo row and indexes its searchable tokens
func NewGeoRecord(f GeoFields, order int) model.GeoRecord {
	rec := model.GeoRecord{
		Name:            CleanValue(f.Name),
		Status:          CleanValue(f.Status),
		DistanceM:       CleanValue(f.DistanceM),
		OverlapFraction: CleanValue(f.OverlapFraction),
		DetailsRaw:      CleanValue(f.Details),
		Order:           order,
	}
	rec.Details = ParseDetails(rec.DetailsRaw)

	// Raw details keep free text that does not parse into pairs
	searchable := []string{rec.Name, rec.Status, rec.DistanceM, rec.OverlapFraction, rec.DetailsRaw}
	for _, d := range rec.Details {
		searchable = append(searchable, d.Key, d.Value)
	}
	rec.Tokens = model.NewTokenSet(Keywords(strings.Join(searchable, " "))...)

	return rec
}

// NewRegulationRecord splits a block into title and body and indexes it
func NewRegulationRecord(block string, order int) model.RegulationRecord {
	block = strings.TrimSpace(block)
	title, _, _ := strings.Cut(block, "\n")

	return model.RegulationRecord{
		Title:     strings.TrimSpace(title),
		ArticleID: ArticleReference(title),
		Body:      block,
		Tokens:    model.NewTokenSet(Keywords(block)...),
		Order:     order,
	}
}
