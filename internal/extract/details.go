package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/askroute/internal/model"
)

// preferredDetailKeys are shown first when summarizing a details blob
var preferredDetailKeys = []string{
	"naam", "name", "id", "gid", "height", "score", "projectnummer",
	"fasedatum", "svnaam", "legende", "wegcategorie", "wegsegmentstatus",
}

// maxSummaryDetails caps how many pairs end up in a summary
const maxSummaryDetails = 3

// CleanValue trims a raw cell and maps "NULL" and blanks to ""
func CleanValue(raw string) string {
	v := strings.TrimSpace(raw)
	if strings.EqualFold(v, "null") {
		return ""
	}
	return v
}

// ParseDetails extracts key/value pairs from a details blob. A JSON object
// is decoded in source order (scalar values only); anything else is read as
// "key=value" pairs separated by ';', ',' or newlines. Pairs with absent
// values are dropped.
func ParseDetails(raw string) []model.Detail {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "{") {
		if details, err := parseJSONDetails(raw); err == nil {
			return details
		}
	}

	return parsePairDetails(raw)
}

func parseJSONDetails(raw string) ([]model.Detail, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("details: expected JSON object")
	}

	var details []model.Detail
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("details key: %w", err)
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("details value: %w", err)
		}

		if v, ok := scalarString(value); ok && v != "" && key != "" {
			details = append(details, model.Detail{Key: key, Value: v})
		}
	}

	return details, nil
}

// scalarString renders a JSON scalar as text; objects and arrays are rejected
func scalarString(raw json.RawMessage) (string, bool) {
	var v interface{}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", false
	}

	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return CleanValue(val), true
	case json.Number:
		return val.String(), true
	case bool:
		return fmt.Sprintf("%t", val), true
	}
	return "", false
}

func parsePairDetails(raw string) []model.Detail {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ',' || r == '\n'
	})

	var details []model.Detail
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			key, value, ok = strings.Cut(field, ":")
		}
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = CleanValue(strings.Trim(strings.TrimSpace(value), `"'`))
		if key == "" || value == "" {
			continue
		}
		details = append(details, model.Detail{Key: key, Value: value})
	}

	return details
}

// SummarizeDetails renders up to three pairs as "k=v, k=v". Preferred keys
// come first in their fixed order; without any, keys are taken alphabetically.
func SummarizeDetails(details []model.Detail) string {
	if len(details) == 0 {
		return ""
	}

	byKey := make(map[string]string, len(details))
	for _, d := range details {
		if _, seen := byKey[d.Key]; !seen {
			byKey[d.Key] = d.Value
		}
	}

	var keys []string
	for _, k := range preferredDetailKeys {
		if _, ok := byKey[k]; ok {
			keys = append(keys, k)
		}
		if len(keys) == maxSummaryDetails {
			break
		}
	}

	if len(keys) == 0 {
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > maxSummaryDetails {
			keys = keys[:maxSummaryDetails]
		}
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + byKey[k]
	}
	return strings.Join(parts, ", ")
}
