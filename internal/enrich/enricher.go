// Package enrich provides optional query-text enrichment for retrieval.
//
// Enrichment is best effort: the pipeline treats any failure as a signal to
// continue with the raw query text, never as a request error.
package enrich

import (
	"context"

	"github.com/mkarlsen/assessrec/internal/config"
)

// Focus codes classify what a query is mostly asking for. They mirror the
// catalog's test_type codes so results can be re-ranked toward the focus.
const (
	FocusKnowledge = "K"
	FocusPersonal  = "P"
	FocusAptitude  = "A"
	FocusMix       = "MIX"
)

// Analysis is the outcome of enriching a query.
type Analysis struct {
	// Query is the expanded query text to embed. Never empty on success.
	Query string
	// Focus is one of the Focus* codes above.
	Focus string
	// Skills lists skills extracted from the query, informational only.
	Skills []string
}

// Enricher analyzes free-text queries before embedding.
type Enricher interface {
	// Extract returns an enriched query and focus classification for text.
	// Callers must treat any error as "use the original text unchanged".
	Extract(ctx context.Context, text string) (Analysis, error)
}

// Noop passes query text through untouched. Used when no enrichment
// credentials are configured.
type Noop struct{}

func (Noop) Extract(_ context.Context, text string) (Analysis, error) {
	return Analysis{Query: text, Focus: FocusMix}, nil
}

// NewFromEnv selects an enricher based on credential availability: a
// chat-model-backed one when an API key is configured, Noop otherwise.
func NewFromEnv() Enricher {
	apiKey := config.GetConfigValue("ASSESSREC_ENRICH_API_KEY")
	if apiKey == "" {
		apiKey = config.GetConfigValue("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return Noop{}
	}
	model := config.GetConfigValue("ASSESSREC_ENRICH_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return NewOpenAI(apiKey, model)
}
