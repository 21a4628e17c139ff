package index

import "github.com/mkarlsen/assessrec/internal/catalog"

// MetricCosine is the only similarity metric the index supports. It is
// recorded in the manifest so a reader using a different metric fails loudly
// instead of returning silently wrong rankings.
const MetricCosine = "cosine"

// Manifest describes a persisted index and how to interpret it.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	CreatedAt    string `json:"created_at"`
	ModelID      string `json:"model_id"`
	Dim          int    `json:"dim"`
	Metric       string `json:"metric"`
	Normalize    bool   `json:"normalize"`
	Entries      int    `json:"entries"`
	VectorFile   string `json:"vector_file"`
	MetadataFile string `json:"metadata_file"`
}

// Index is a loaded vector index with its positionally aligned metadata.
// Entry i of Entries owns Vectors[i*Dim : (i+1)*Dim].
type Index struct {
	Manifest Manifest
	Entries  []catalog.Entry
	Vectors  []float32

	// hashes holds the persisted text hash per entry, used for vector reuse
	// on incremental rebuilds.
	hashes []string
}

// TextHashAt returns the persisted text hash for entry i, or "".
func (idx *Index) TextHashAt(i int) string {
	if i < 0 || i >= len(idx.hashes) {
		return ""
	}
	return idx.hashes[i]
}

// Vector returns the embedding for entry i.
func (idx *Index) Vector(i int) []float32 {
	d := idx.Manifest.Dim
	return idx.Vectors[i*d : (i+1)*d]
}
