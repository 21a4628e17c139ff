package index

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mkarlsen/assessrec/internal/catalog"
	"github.com/mkarlsen/assessrec/internal/embeddings"
)

// BuildOptions controls index building.
type BuildOptions struct {
	// OutDir receives the artifacts. Callers wanting crash safety should
	// build into a temp dir and install with AtomicSwap.
	OutDir string
	// PrevDir optionally points at an existing index whose vectors are
	// reused for entries with an unchanged text hash.
	PrevDir string
	// Force disables vector reuse and re-embeds every entry.
	Force bool
}

// Build embeds every catalog entry and writes index artifacts to opts.OutDir.
//
// Entries whose embedding fails are skipped with a logged warning; the
// surviving entries are re-assigned dense ids in catalog order so the
// metadata table and vector file stay positionally aligned. A build in which
// every entry fails is an error and writes nothing.
func Build(ctx context.Context, prov embeddings.Provider, entries []catalog.Entry, opts BuildOptions) (*Index, error) {
	if opts.OutDir == "" {
		return nil, fmt.Errorf("out dir is required")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no catalog entries to index")
	}

	// Previous index for vector reuse.
	var prev *Index
	if opts.PrevDir != "" && !opts.Force {
		prev, _ = Load(opts.PrevDir)
		if prev != nil && prev.Manifest.ModelID != prov.ModelID() {
			prev = nil // model changed, nothing is reusable
		}
	}
	reuse := map[string][]float32{}
	if prev != nil {
		for i := range prev.Entries {
			if h := prev.TextHashAt(i); h != "" {
				reuse[h] = prev.Vector(i)
			}
		}
	}

	// Embed all rows missing a reusable vector in one bounded-concurrency
	// batch. A batch failure falls back to per-row embedding below so one bad
	// row only skips itself.
	texts := make([]string, len(entries))
	hashOf := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = CanonicalText(e)
		hashOf[i] = TextHash(texts[i])
	}
	var missing []string
	var missingAt []int
	for i := range entries {
		if _, ok := reuse[hashOf[i]]; !ok {
			missing = append(missing, texts[i])
			missingAt = append(missingAt, i)
		}
	}
	batched := map[int][]float32{}
	if len(missing) > 0 {
		if vecs, err := prov.EmbedBatch(ctx, missing); err == nil {
			for j, v := range vecs {
				batched[missingAt[j]] = NormalizeL2(v)
			}
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		} else {
			log.Printf("warning: batch embedding failed, retrying per row: %v", err)
		}
	}

	var (
		kept    []catalog.Entry
		hashes  []string
		vectors []float32
		dim     int
		skipped int
	)
	for i, e := range entries {
		h := hashOf[i]

		emb, ok := reuse[h]
		if !ok {
			emb, ok = batched[i]
		}
		if !ok {
			var err error
			emb, err = prov.Embed(ctx, texts[i])
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Printf("warning: skipping %q: %v", e.Name, err)
				skipped++
				continue
			}
			emb = NormalizeL2(emb)
		}

		if dim == 0 {
			dim = len(emb)
		}
		if len(emb) != dim {
			return nil, fmt.Errorf("embedding dim changed mid-run: got %d want %d", len(emb), dim)
		}

		e.ID = len(kept)
		kept = append(kept, e)
		hashes = append(hashes, h)
		vectors = append(vectors, emb...)
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("index build failed: all %d entries were skipped", skipped)
	}
	if skipped > 0 {
		log.Printf("warning: %d of %d entries skipped during index build", skipped, len(entries))
	}

	manifest := Manifest{
		IndexVersion: 1,
		ModelID:      prov.ModelID(),
		Dim:          dim,
		Metric:       MetricCosine,
		Normalize:    true,
		Entries:      len(kept),
		VectorFile:   "vectors.f32",
		MetadataFile: "assessments.jsonl",
	}

	if err := Write(opts.OutDir, manifest, kept, hashes, vectors); err != nil {
		return nil, err
	}

	return &Index{Manifest: manifest, Entries: kept, Vectors: vectors, hashes: hashes}, nil
}

// AtomicSwap replaces destDir with srcDir by renaming, so a serving process
// never observes a partially written index.
func AtomicSwap(srcDir, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	backup := destDir + ".bak"
	_ = os.RemoveAll(backup)
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	_ = os.RemoveAll(backup)
	return nil
}
