package index

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mkarlsen/assessrec/internal/catalog"
)

// CanonicalText returns the canonical text embedded for one entry.
//
// The field order is fixed: it determines the resulting vector and so every
// future query result. Changing it requires a full index rebuild.
func CanonicalText(e catalog.Entry) string {
	parts := []string{
		"name: " + strings.TrimSpace(e.Name),
		"description: " + strings.TrimSpace(e.Description),
	}
	if len(e.Tags) > 0 {
		parts = append(parts, "tags: "+strings.Join(e.Tags, ", "))
	}
	return strings.Join(parts, "\n")
}

// TextHash returns a sha256 hash (hex) of the canonical text. Used to reuse
// vectors for unchanged rows on incremental rebuilds.
func TextHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
