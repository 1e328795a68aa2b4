package model

// Result is the engine output for one question
type Result struct {
	Answer string `json:"answer"`
	Source Source `json:"source"`
	Meta   Meta   `json:"meta"`
}

// Meta is the confidence envelope attached to every result
type Meta struct {
	Confidence      float64     `json:"confidence"`                // Overall confidence in [0,1]
	RouteConfidence float64     `json:"route_confidence"`          // Routing margin in [0,1]
	MatchConfidence float64     `json:"match_confidence"`          // Best match strength in [0,1]
	RouteScores     RouteScores `json:"route_scores"`              // Raw per-source routing scores
	TopMatches      []TopMatch  `json:"top_matches"`               // Ranked matches, best first
	ProcessingMS    int64       `json:"processing_ms"`             // Time spent routing and matching
	DataFile        *string     `json:"data_file"`                 // Base name of the searched file, null when unknown
	MatchedArticle  string      `json:"matched_article,omitempty"` // Article reference matched exactly
}

// RouteScores holds the raw routing score per source
type RouteScores struct {
	Geo        int `json:"geo"`
	Regulation int `json:"regulation"`
}

// Best returns the larger and smaller of the two scores
func (s RouteScores) Best() (best, second int) {
	if s.Geo >= s.Regulation {
		return s.Geo, s.Regulation
	}
	return s.Regulation, s.Geo
}

// TopMatch is the serialized form of a ranked candidate
type TopMatch struct {
	Score int `json:"score"`

	// Geo fields
	Name            string `json:"name,omitempty"`
	Status          string `json:"status,omitempty"`
	DistanceM       string `json:"distance_m,omitempty"`
	OverlapFraction string `json:"overlap_fraction,omitempty"`
	Details         string `json:"details,omitempty"`

	// Regulation fields
	Title   string `json:"title,omitempty"`
	Article string `json:"article,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// ErrorResponse is the envelope returned by transports when no result can be produced
type ErrorResponse struct {
	Error  string `json:"error"`
	Source Source `json:"source"`
}
