package index

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkarlsen/assessrec/internal/catalog"
)

func writeTestIndex(t *testing.T, dir string, m Manifest, rows []metaRow, vectors []float32) {
	t.Helper()
	mb, _ := json.Marshal(m)
	if err := os.WriteFile(filepath.Join(dir, "index_manifest.json"), mb, 0o644); err != nil {
		t.Fatal(err)
	}

	var lines []byte
	for _, r := range rows {
		b, _ := json.Marshal(r)
		lines = append(lines, b...)
		lines = append(lines, '\n')
	}
	if err := os.WriteFile(filepath.Join(dir, "assessments.jsonl"), lines, 0o644); err != nil {
		t.Fatal(err)
	}

	vf, err := os.Create(filepath.Join(dir, "vectors.f32"))
	if err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(vf, binary.LittleEndian, vectors); err != nil {
		_ = vf.Close()
		t.Fatal(err)
	}
	_ = vf.Close()
}

func testManifest() Manifest {
	return Manifest{
		IndexVersion: 1,
		CreatedAt:    "2026-01-01T00:00:00Z",
		ModelID:      "fake:test",
		Dim:          2,
		Metric:       MetricCosine,
		Normalize:    true,
		Entries:      2,
		VectorFile:   "vectors.f32",
		MetadataFile: "assessments.jsonl",
	}
}

func TestLoad_HappyPath(t *testing.T) {
	dir := t.TempDir()
	rows := []metaRow{
		{Entry: catalog.Entry{ID: 0, Name: "A", Description: "a"}, TextHash: "h0"},
		{Entry: catalog.Entry{ID: 1, Name: "B", Description: "b"}, TextHash: "h1"},
	}
	writeTestIndex(t, dir, testManifest(), rows, []float32{1, 0, 0, 1})

	idx, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Manifest.Dim != 2 {
		t.Fatal("dim mismatch")
	}
	if len(idx.Entries) != 2 {
		t.Fatal("entries mismatch")
	}
	if len(idx.Vectors) != 4 {
		t.Fatal("vectors mismatch")
	}
	if idx.TextHashAt(1) != "h1" {
		t.Fatalf("text hash not loaded: %q", idx.TextHashAt(1))
	}
	if got := idx.Vector(1); got[0] != 0 || got[1] != 1 {
		t.Fatalf("wrong vector slice: %v", got)
	}
}

func TestLoad_EmptyMetadataFails(t *testing.T) {
	dir := t.TempDir()
	m := testManifest()
	m.Entries = 0
	writeTestIndex(t, dir, m, nil, nil)

	_, err := Load(dir)
	if !errors.Is(err, ErrEmptyIndex) {
		t.Fatalf("expected ErrEmptyIndex, got %v", err)
	}
}

func TestLoad_VectorSizeMismatchFails(t *testing.T) {
	dir := t.TempDir()
	rows := []metaRow{
		{Entry: catalog.Entry{ID: 0, Name: "A", Description: "a"}},
		{Entry: catalog.Entry{ID: 1, Name: "B", Description: "b"}},
	}
	// only one vector's worth of floats for two entries
	writeTestIndex(t, dir, testManifest(), rows, []float32{1, 0})

	if _, err := Load(dir); err == nil {
		t.Fatal("expected load failure on misaligned vector file")
	}
}

func TestLoad_OutOfOrderIDsFail(t *testing.T) {
	dir := t.TempDir()
	rows := []metaRow{
		{Entry: catalog.Entry{ID: 1, Name: "B", Description: "b"}},
		{Entry: catalog.Entry{ID: 0, Name: "A", Description: "a"}},
	}
	writeTestIndex(t, dir, testManifest(), rows, []float32{1, 0, 0, 1})

	if _, err := Load(dir); err == nil {
		t.Fatal("expected load failure on out-of-order metadata")
	}
}

func TestLoad_UnknownMetricFails(t *testing.T) {
	dir := t.TempDir()
	m := testManifest()
	m.Metric = "euclidean"
	rows := []metaRow{
		{Entry: catalog.Entry{ID: 0, Name: "A", Description: "a"}},
		{Entry: catalog.Entry{ID: 1, Name: "B", Description: "b"}},
	}
	writeTestIndex(t, dir, m, rows, []float32{1, 0, 0, 1})

	if _, err := Load(dir); err == nil {
		t.Fatal("expected load failure on unsupported metric")
	}
}

func TestLoad_ManifestEntryCountMismatchFails(t *testing.T) {
	dir := t.TempDir()
	m := testManifest()
	m.Entries = 5
	rows := []metaRow{
		{Entry: catalog.Entry{ID: 0, Name: "A", Description: "a"}},
		{Entry: catalog.Entry{ID: 1, Name: "B", Description: "b"}},
	}
	writeTestIndex(t, dir, m, rows, []float32{1, 0, 0, 1})

	if _, err := Load(dir); err == nil {
		t.Fatal("expected load failure on manifest entry count mismatch")
	}
}
