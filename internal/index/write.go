package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mkarlsen/assessrec/internal/catalog"
)

// metaRow is one line of the metadata JSONL file: the catalog entry plus the
// hash of the text that was embedded for it.
type metaRow struct {
	catalog.Entry
	TextHash string `json:"text_hash,omitempty"`
}

// Write writes index artifacts to dir.
func Write(dir string, manifest Manifest, entries []catalog.Entry, hashes []string, vectors []float32) error {
	if manifest.Dim <= 0 {
		return fmt.Errorf("invalid dim: %d", manifest.Dim)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries to write")
	}
	if len(hashes) != len(entries) {
		return fmt.Errorf("hash count mismatch: got %d want %d", len(hashes), len(entries))
	}
	if len(vectors) != len(entries)*manifest.Dim {
		return fmt.Errorf("vector length mismatch: got %d want %d", len(vectors), len(entries)*manifest.Dim)
	}
	if manifest.Metric == "" {
		manifest.Metric = MetricCosine
	}
	if manifest.VectorFile == "" {
		manifest.VectorFile = "vectors.f32"
	}
	if manifest.MetadataFile == "" {
		manifest.MetadataFile = "assessments.jsonl"
	}
	if manifest.CreatedAt == "" {
		manifest.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	manifest.Entries = len(entries)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}

	// manifest
	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "index_manifest.json"), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}

	// metadata jsonl
	mf, err := os.Create(filepath.Join(dir, manifest.MetadataFile))
	if err != nil {
		return fmt.Errorf("cannot create metadata file: %w", err)
	}
	bw := bufio.NewWriter(mf)
	for i, e := range entries {
		line, err := json.Marshal(metaRow{Entry: e, TextHash: hashes[i]})
		if err != nil {
			_ = mf.Close()
			return err
		}
		if _, err := bw.Write(line); err != nil {
			_ = mf.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			_ = mf.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = mf.Close()
		return err
	}
	if err := mf.Close(); err != nil {
		return err
	}

	// vectors
	vf, err := os.Create(filepath.Join(dir, manifest.VectorFile))
	if err != nil {
		return fmt.Errorf("cannot create vectors file: %w", err)
	}
	if err := binary.Write(vf, binary.LittleEndian, vectors); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	if err := vf.Close(); err != nil {
		return err
	}

	return nil
}
