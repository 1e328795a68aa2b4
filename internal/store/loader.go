package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ppiankov/askroute/internal/extract"
	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/validate"
)

// geoColumns maps accepted header names to fields
var geoColumns = map[string]string{
	"name":             "name",
	"naam":             "name",
	"status":           "status",
	"distance_m":       "distance_m",
	"distance":         "distance_m",
	"overlap_fraction": "overlap_fraction",
	"overlap":          "overlap_fraction",
	"api_name":         "details",
	"details":          "details",
}

// ParseGeoCSV reads geo rows from CSV with a header line. Rows without a
// name are skipped and counted. A file without a header is an error, which
// also protects a live snapshot from files caught mid-write.
func ParseGeoCSV(data []byte) ([]model.GeoRecord, int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("empty geo data: missing header")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int)
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if field, ok := geoColumns[col]; ok {
			if _, dup := index[field]; !dup {
				index[field] = i
			}
		}
	}
	if _, ok := index["name"]; !ok {
		return nil, 0, fmt.Errorf("header has no name column: %v", header)
	}

	cell := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []model.GeoRecord
	skipped := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A broken row is skipped; the rest of the file stays usable
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		rec := extract.NewGeoRecord(extract.GeoFields{
			Name:            cell(row, "name"),
			Status:          cell(row, "status"),
			DistanceM:       cell(row, "distance_m"),
			OverlapFraction: cell(row, "overlap_fraction"),
			Details:         cell(row, "details"),
		}, len(records))

		if validate.GeoRecord(rec) != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// ParseRegulation splits regulation text into records. HTML input is
// recognized by the file extension of name.
func ParseRegulation(name string, data []byte) ([]model.RegulationRecord, int, error) {
	var blocks []string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		var err error
		blocks, err = extract.HTMLBlocks(bytes.NewReader(data))
		if err != nil {
			return nil, 0, fmt.Errorf("parse html: %w", err)
		}
	default:
		blocks = extract.TextBlocks(string(data))
	}

	var records []model.RegulationRecord
	skipped := 0
	for _, block := range blocks {
		rec := extract.NewRegulationRecord(block, len(records))
		if validate.RegulationRecord(rec) != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}
