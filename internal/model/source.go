package model

// Source identifies which knowledge source answers a question
type Source string

const (
	SourceGeo        Source = "geo"        // Geo feature dataset (CSV rows)
	SourceRegulation Source = "regulation" // Regulation text dataset (article blocks)
	SourceUnknown    Source = "unknown"    // No source could be chosen
)

// String returns the source literal
func (s Source) String() string {
	return string(s)
}

// Valid reports whether s is one of the three known literals
func (s Source) Valid() bool {
	switch s {
	case SourceGeo, SourceRegulation, SourceUnknown:
		return true
	}
	return false
}
