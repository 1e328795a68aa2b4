package validate

import (
	"errors"
	"testing"

	"github.com/ppiankov/askroute/internal/model"
)

func TestQuestion(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n", true},
		{"What is the mobiscore per ha?", false},
		{"?", false},
	}

	for _, tt := range tests {
		err := Question(tt.input)
		if tt.wantErr && !errors.Is(err, ErrEmptyQuestion) {
			t.Errorf("Question(%q): expected ErrEmptyQuestion, got %v", tt.input, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("Question(%q): expected no error, got %v", tt.input, err)
		}
	}
}

func TestGeoRecord(t *testing.T) {
	if err := GeoRecord(model.GeoRecord{Name: "Bodemkaart"}); err != nil {
		t.Errorf("Expected valid record, got %v", err)
	}

	err := GeoRecord(model.GeoRecord{Name: "  ", Order: 7})
	if !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Expected ErrMalformedRecord, got %v", err)
	}
}

func TestRegulationRecord(t *testing.T) {
	if err := RegulationRecord(model.RegulationRecord{Title: "Art. 1.1", Body: "Art. 1.1"}); err != nil {
		t.Errorf("Expected valid record, got %v", err)
	}
	if err := RegulationRecord(model.RegulationRecord{}); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Expected ErrMalformedRecord, got %v", err)
	}
}
