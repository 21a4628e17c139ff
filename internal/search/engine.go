// Package search exposes K-nearest-neighbor retrieval over a loaded index.
package search

import (
	"fmt"
	"sort"

	"github.com/mkarlsen/assessrec/internal/catalog"
	"github.com/mkarlsen/assessrec/internal/embeddings"
	"github.com/mkarlsen/assessrec/internal/index"
)

// Hit is one retrieval result: a catalog id with its similarity score.
type Hit struct {
	ID    int
	Score float64
}

// Engine answers nearest-neighbor queries over an immutable loaded index.
// It is safe for concurrent use: the index is never mutated after Load.
type Engine struct {
	idx *index.Index
}

// Load reads the index from dir and returns an Engine ready to serve.
// Every load-time invariant violation (missing artifacts, misalignment,
// empty metadata) surfaces here, before any query is accepted.
func Load(dir string) (*Engine, error) {
	idx, err := index.Load(dir)
	if err != nil {
		return nil, err
	}
	return &Engine{idx: idx}, nil
}

// NewEngine wraps an already-loaded index. Used by tests and by the builder
// to query a freshly built index without a round-trip through disk.
func NewEngine(idx *index.Index) *Engine {
	return &Engine{idx: idx}
}

// Dim returns the index vector dimensionality.
func (e *Engine) Dim() int { return e.idx.Manifest.Dim }

// ModelID returns the embedding model the index was built with.
func (e *Engine) ModelID() string { return e.idx.Manifest.ModelID }

// Len returns the number of indexed entries.
func (e *Engine) Len() int { return len(e.idx.Entries) }

// Entry returns the catalog entry with the given id.
func (e *Engine) Entry(id int) catalog.Entry { return e.idx.Entries[id] }

// VerifyProvider checks that prov matches the model recorded in the index
// manifest. A mismatch means query vectors would live in a different space
// than the indexed ones.
func (e *Engine) VerifyProvider(prov embeddings.Provider) error {
	if prov.ModelID() != e.idx.Manifest.ModelID {
		return fmt.Errorf("embeddings model mismatch: index=%s provider=%s", e.idx.Manifest.ModelID, prov.ModelID())
	}
	return nil
}

// Search returns the k entries most similar to query, best first.
// Ties are broken by catalog id ascending to keep ordering deterministic.
func (e *Engine) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(query) != e.idx.Manifest.Dim {
		return nil, fmt.Errorf("query dim mismatch: got %d want %d", len(query), e.idx.Manifest.Dim)
	}
	if e.idx.Manifest.Normalize {
		query = index.NormalizeL2(query)
	}

	hits := make([]Hit, 0, len(e.idx.Entries))
	for i := range e.idx.Entries {
		score, err := index.Cosine(query, e.idx.Vector(i))
		if err != nil {
			return nil, err
		}
		hits = append(hits, Hit{ID: i, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Readiness describes whether the engine can serve queries, for the health
// contract of the surrounding service.
type Readiness struct {
	Ready   bool   `json:"ready"`
	Entries int    `json:"entries"`
	Dim     int    `json:"dim"`
	ModelID string `json:"model_id"`
	Metric  string `json:"metric"`
}

// Ready reports the engine's readiness state. An Engine that loaded
// successfully is always ready; the struct carries the alignment facts the
// health endpoint exposes.
func (e *Engine) Ready() Readiness {
	return Readiness{
		Ready:   len(e.idx.Entries) > 0,
		Entries: len(e.idx.Entries),
		Dim:     e.idx.Manifest.Dim,
		ModelID: e.idx.Manifest.ModelID,
		Metric:  e.idx.Manifest.Metric,
	}
}
