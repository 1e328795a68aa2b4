package extract

import (
	"testing"

	"github.com/ppiankov/askroute/internal/model"
)

func TestParseDetails_JSONKeepsOrder(t *testing.T) {
	details := ParseDetails(`{"score": 7.8, "legende": "Mobiscore per hectare", "empty": "", "gone": null, "nested": {"a": 1}, "id": "MS-12"}`)

	want := []model.Detail{
		{Key: "score", Value: "7.8"},
		{Key: "legende", Value: "Mobiscore per hectare"},
		{Key: "id", Value: "MS-12"},
	}
	if len(details) != len(want) {
		t.Fatalf("Expected %d details, got %d: %v", len(want), len(details), details)
	}
	for i := range want {
		if details[i] != want[i] {
			t.Errorf("Detail %d: expected %v, got %v", i, want[i], details[i])
		}
	}
}

func TestParseDetails_KeyValueBlob(t *testing.T) {
	details := ParseDetails("naam=Bodemkaart Vlaanderen; svnaam = zandleem; leeg=NULL; nonsense")

	if len(details) != 2 {
		t.Fatalf("Expected 2 details, got %d: %v", len(details), details)
	}
	if details[0].Key != "naam" || details[0].Value != "Bodemkaart Vlaanderen" {
		t.Errorf("Unexpected first detail %v", details[0])
	}
	if details[1].Key != "svnaam" || details[1].Value != "zandleem" {
		t.Errorf("Unexpected second detail %v", details[1])
	}
}

func TestParseDetails_Empty(t *testing.T) {
	if d := ParseDetails("   "); d != nil {
		t.Errorf("Expected nil, got %v", d)
	}
}

func TestSummarizeDetails(t *testing.T) {
	tests := []struct {
		name    string
		details []model.Detail
		want    string
	}{
		{
			name: "preferred keys in fixed order",
			details: []model.Detail{
				{Key: "legende", Value: "L"},
				{Key: "zzz", Value: "Z"},
				{Key: "id", Value: "7"},
				{Key: "naam", Value: "N"},
				{Key: "score", Value: "3"},
			},
			want: "naam=N, id=7, score=3",
		},
		{
			name: "alphabetical fallback",
			details: []model.Detail{
				{Key: "delta", Value: "4"},
				{Key: "alpha", Value: "1"},
				{Key: "charlie", Value: "3"},
				{Key: "bravo", Value: "2"},
			},
			want: "alpha=1, bravo=2, charlie=3",
		},
		{
			name: "empty",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SummarizeDetails(tt.details); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCleanValue(t *testing.T) {
	for _, in := range []string{"", "  ", "NULL", "null", " Null "} {
		if got := CleanValue(in); got != "" {
			t.Errorf("Expected %q to clean to empty, got %q", in, got)
		}
	}
	if got := CleanValue(" 12.5 "); got != "12.5" {
		t.Errorf("Expected '12.5', got %q", got)
	}
}
