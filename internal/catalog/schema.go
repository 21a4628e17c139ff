package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// rawSchema constrains the shape of the raw catalog file. Semantic problems
// (empty description, duplicates) are handled per-row by Normalize; the
// schema only rejects structurally malformed input.
const rawSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name", "description"],
    "properties": {
      "name":             {"type": "string"},
      "url":              {"type": "string"},
      "description":      {"type": "string"},
      "tags":             {"type": "array", "items": {"type": "string"}},
      "duration":         {"type": "integer", "minimum": 0},
      "test_type":        {"type": "string"},
      "remote_support":   {"type": "string"},
      "adaptive_support": {"type": "string"}
    }
  }
}`

// ParseRaw reads and validates a raw catalog JSON file and returns its rows.
func ParseRaw(path string) ([]rawEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog %s: %w", path, err)
	}
	return parseRawBytes(data)
}

func parseRawBytes(data []byte) ([]rawEntry, error) {
	res, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(rawSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("catalog schema violation: %s", strings.Join(msgs, "; "))
	}

	var rows []rawEntry
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("cannot parse catalog JSON: %w", err)
	}
	return rows, nil
}

// LoadNormalized parses, validates and normalizes a raw catalog file in one step.
func LoadNormalized(path string) ([]Entry, []RowError, error) {
	rows, err := ParseRaw(path)
	if err != nil {
		return nil, nil, err
	}
	return Normalize(rows)
}
