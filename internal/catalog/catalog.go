package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Entry represents one normalized assessment in the catalog.
//
// ID is the dense 0-based ordinal assigned at normalize time. It doubles as
// the row position in both the metadata table and the vector index, so the
// two stay positionally aligned.
type Entry struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	URL             string   `json:"url,omitempty"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags,omitempty"`
	Duration        int      `json:"duration,omitempty"`
	TestType        string   `json:"test_type,omitempty"`
	RemoteSupport   string   `json:"remote_support,omitempty"`
	AdaptiveSupport string   `json:"adaptive_support,omitempty"`
}

// RowError records a rejected raw catalog row. Collected, not fatal: the
// normalizer continues with the remaining valid rows.
type RowError struct {
	Row    int
	Name   string
	Reason string
}

func (e RowError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d (%s): %s", e.Row, e.Name, e.Reason)
}

// rawEntry mirrors one object of the raw catalog JSON.
type rawEntry struct {
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	Duration        int      `json:"duration"`
	TestType        string   `json:"test_type"`
	RemoteSupport   string   `json:"remote_support"`
	AdaptiveSupport string   `json:"adaptive_support"`
}

// CleanText returns s NFC-normalized with all runs of whitespace collapsed to
// a single space and leading/trailing whitespace removed.
func CleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Normalize validates and cleans raw catalog rows into Entry values.
//
// Rules:
//   - All text fields are NFC-normalized and whitespace-collapsed.
//   - Rows with an empty name or description are rejected into rowErrs.
//   - Duplicate names (case-insensitive after cleaning) are dropped; the
//     first occurrence wins, since source order is the only available signal.
//   - IDs are assigned densely in surviving-row order.
//
// A catalog with zero surviving rows is an error.
func Normalize(rows []rawEntry) ([]Entry, []RowError, error) {
	var (
		entries []Entry
		rowErrs []RowError
		seen    = make(map[string]struct{}, len(rows))
	)
	for i, r := range rows {
		name := CleanText(r.Name)
		desc := CleanText(r.Description)
		if name == "" {
			rowErrs = append(rowErrs, RowError{Row: i, Reason: "empty name"})
			continue
		}
		if desc == "" {
			rowErrs = append(rowErrs, RowError{Row: i, Name: name, Reason: "empty description"})
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			rowErrs = append(rowErrs, RowError{Row: i, Name: name, Reason: "duplicate name, first occurrence kept"})
			continue
		}
		seen[key] = struct{}{}

		tags := make([]string, 0, len(r.Tags))
		for _, t := range r.Tags {
			if ct := CleanText(t); ct != "" {
				tags = append(tags, ct)
			}
		}
		if len(tags) == 0 {
			tags = nil
		}

		entries = append(entries, Entry{
			ID:              len(entries),
			Name:            name,
			URL:             strings.TrimSpace(r.URL),
			Description:     desc,
			Tags:            tags,
			Duration:        r.Duration,
			TestType:        CleanText(r.TestType),
			RemoteSupport:   CleanText(r.RemoteSupport),
			AdaptiveSupport: CleanText(r.AdaptiveSupport),
		})
	}
	if len(entries) == 0 {
		return nil, rowErrs, fmt.Errorf("no valid catalog rows (%d rejected)", len(rowErrs))
	}
	return entries, rowErrs, nil
}
