package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/askroute/internal/model"
)

// ErrEmptyQuestion is returned for empty or whitespace-only questions
var ErrEmptyQuestion = errors.New("question is required")

// ErrMalformedRecord marks a record that cannot take part in matching
var ErrMalformedRecord = errors.New("malformed record")

// Question rejects input that cannot be answered
func Question(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyQuestion
	}
	return nil
}

// GeoRecord checks that a geo row has a name to match and display
func GeoRecord(r model.GeoRecord) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: geo row %d has no name", ErrMalformedRecord, r.Order)
	}
	return nil
}

// RegulationRecord checks that a regulation block has a title and text
func RegulationRecord(r model.RegulationRecord) error {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Body) == "" {
		return fmt.Errorf("%w: regulation block %d is empty", ErrMalformedRecord, r.Order)
	}
	return nil
}
