package model

// GeoRecord is one row of the geo feature dataset
type GeoRecord struct {
	Name            string   `json:"name"`
	Status          string   `json:"status,omitempty"`
	DistanceM       string   `json:"distance_m,omitempty"`
	OverlapFraction string   `json:"overlap_fraction,omitempty"`
	DetailsRaw      string   `json:"details_raw,omitempty"` // Semi-structured key=value or JSON blob
	Details         []Detail `json:"details,omitempty"`     // Parsed pairs in source order
	Tokens          TokenSet `json:"-"`                     // Searchable tokens over all fields
	Order           int      `json:"order"`                 // Position in the source file
}

// Detail is one key/value pair extracted from a geo record's details blob
type Detail struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RegulationRecord is one blank-line separated block of the regulation text
type RegulationRecord struct {
	Title     string   `json:"title"`                // First line of the block
	ArticleID string   `json:"article_id,omitempty"` // Normalized "art. N", if the block has one
	Body      string   `json:"body"`                 // Raw block text, title included
	Tokens    TokenSet `json:"-"`
	Order     int      `json:"order"`
}

// Record is a tagged union over the two record variants
type Record struct {
	Source     Source
	Geo        *GeoRecord
	Regulation *RegulationRecord
}

// GeoRecordOf wraps a geo record
func GeoRecordOf(r *GeoRecord) Record {
	return Record{Source: SourceGeo, Geo: r}
}

// RegulationRecordOf wraps a regulation record
func RegulationRecordOf(r *RegulationRecord) Record {
	return Record{Source: SourceRegulation, Regulation: r}
}
