package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mkarlsen/assessrec/internal/catalog"
)

// Load reads an index from dir and verifies the invariants required before
// serving: a sane manifest, a non-empty metadata table, dense ids matching
// row positions, and a vector file exactly aligned with the metadata.
//
// Any violation is a configuration error: the caller must not serve queries.
func Load(dir string) (*Index, error) {
	manifestPath := filepath.Join(dir, "index_manifest.json")
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", manifestPath, err)
	}
	if m.Dim <= 0 {
		return nil, fmt.Errorf("invalid dim in manifest: %d", m.Dim)
	}
	if m.Metric != "" && m.Metric != MetricCosine {
		return nil, fmt.Errorf("unsupported metric in manifest: %q (want %q)", m.Metric, MetricCosine)
	}
	if m.VectorFile == "" {
		m.VectorFile = "vectors.f32"
	}
	if m.MetadataFile == "" {
		m.MetadataFile = "assessments.jsonl"
	}

	entries, hashes, err := loadMetadata(filepath.Join(dir, m.MetadataFile))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyIndex, dir)
	}
	if m.Entries != 0 && m.Entries != len(entries) {
		return nil, fmt.Errorf("metadata length mismatch: manifest says %d entries, file has %d", m.Entries, len(entries))
	}
	for i, e := range entries {
		if e.ID != i {
			return nil, fmt.Errorf("metadata out of order: entry at position %d has id %d", i, e.ID)
		}
	}

	vectors, err := loadVectors(filepath.Join(dir, m.VectorFile), len(entries), m.Dim)
	if err != nil {
		return nil, err
	}

	return &Index{Manifest: m, Entries: entries, Vectors: vectors, hashes: hashes}, nil
}

func loadMetadata(path string) ([]catalog.Entry, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open metadata file %s: %w", path, err)
	}
	defer f.Close()

	var entries []catalog.Entry
	var hashes []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row metaRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, nil, fmt.Errorf("invalid metadata JSONL %s: %w", path, err)
		}
		entries = append(entries, row.Entry)
		hashes = append(hashes, row.TextHash)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("cannot read metadata file %s: %w", path, err)
	}
	return entries, hashes, nil
}

func loadVectors(path string, nEntries, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vector file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat vector file %s: %w", path, err)
	}
	if st.Size()%4 != 0 {
		return nil, fmt.Errorf("vector file size is not multiple of 4 bytes: %d", st.Size())
	}

	expected := int64(nEntries * dim * 4)
	if expected != st.Size() {
		return nil, fmt.Errorf("vector file size mismatch: got %d want %d (entries=%d dim=%d)", st.Size(), expected, nEntries, dim)
	}

	out := make([]float32, nEntries*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return out, nil
}
