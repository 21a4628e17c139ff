package catalog

import (
	"strings"
	"testing"
)

func TestCleanText_CollapsesWhitespace(t *testing.T) {
	got := CleanText("  Assesses \t Python\n programming  ")
	if got != "Assesses Python programming" {
		t.Fatalf("unexpected clean text: %q", got)
	}
}

func TestNormalize_HappyPath(t *testing.T) {
	rows := []rawEntry{
		{Name: " Python Test ", URL: " https://example.com/python ", Description: "Assesses  Python skill", Tags: []string{" coding ", ""}},
		{Name: "Java Test", Description: "Assesses Java skill", TestType: "K"},
	}
	entries, rowErrs, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrs)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != 0 || entries[1].ID != 1 {
		t.Fatalf("ids not dense: %d, %d", entries[0].ID, entries[1].ID)
	}
	if entries[0].Name != "Python Test" {
		t.Fatalf("name not cleaned: %q", entries[0].Name)
	}
	if entries[0].Description != "Assesses Python skill" {
		t.Fatalf("description not cleaned: %q", entries[0].Description)
	}
	if entries[0].URL != "https://example.com/python" {
		t.Fatalf("url not trimmed: %q", entries[0].URL)
	}
	if len(entries[0].Tags) != 1 || entries[0].Tags[0] != "coding" {
		t.Fatalf("tags not cleaned: %v", entries[0].Tags)
	}
}

func TestNormalize_RejectsEmptyDescription(t *testing.T) {
	rows := []rawEntry{
		{Name: "Valid", Description: "ok"},
		{Name: "Blank", Description: "   \t "},
	}
	entries, rowErrs, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if len(rowErrs) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(rowErrs))
	}
	if !strings.Contains(rowErrs[0].Error(), "empty description") {
		t.Fatalf("unexpected row error: %v", rowErrs[0])
	}
}

func TestNormalize_DuplicateNameFirstWins(t *testing.T) {
	rows := []rawEntry{
		{Name: "Python Test", Description: "first copy"},
		{Name: "python  test", Description: "second copy"},
	}
	entries, rowErrs, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after dedupe, got %d", len(entries))
	}
	if entries[0].Description != "first copy" {
		t.Fatalf("first occurrence did not win: %q", entries[0].Description)
	}
	if len(rowErrs) != 1 {
		t.Fatalf("duplicate should be recorded, got %v", rowErrs)
	}
}

func TestNormalize_AllRowsInvalid(t *testing.T) {
	rows := []rawEntry{
		{Name: "", Description: "no name"},
		{Name: "No Description", Description: ""},
	}
	_, _, err := Normalize(rows)
	if err == nil {
		t.Fatal("expected error for catalog with zero valid rows")
	}
}
