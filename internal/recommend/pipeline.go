// Package recommend orchestrates query embedding, retrieval, re-ranking and
// result shaping, plus the offline recall evaluator.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mkarlsen/assessrec/internal/embeddings"
	"github.com/mkarlsen/assessrec/internal/enrich"
	"github.com/mkarlsen/assessrec/internal/search"
)

// ErrInvalidQuery is returned for empty or whitespace-only query text.
var ErrInvalidQuery = errors.New("query text is empty")

// ErrInvalidK is returned for a non-positive result count.
var ErrInvalidK = errors.New("k must be positive")

// Options configures a Pipeline.
type Options struct {
	// TopK is the default result count for callers that do not pass their
	// own k. Recommend itself still rejects k <= 0.
	TopK int
	// Oversample multiplies k at retrieval time to leave room for
	// deduplication. Fixed per pipeline; trades latency for completeness.
	Oversample int
	// MinScore drops candidates below this similarity, 0 disables.
	MinScore float64
	// ShowScores includes similarity scores in shaped results.
	ShowScores bool
}

// Recommendation is one shaped result entry.
type Recommendation struct {
	AssessmentName string  `json:"assessment_name"`
	AssessmentURL  string  `json:"assessment_url"`
	Score          float64 `json:"score,omitempty"`
}

// Result is an ordered, deduplicated recommendation list, best first.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// Pipeline holds the immutable loaded state a recommendation request needs.
// Construct once at startup and share across concurrent requests.
type Pipeline struct {
	engine   *search.Engine
	provider embeddings.Provider
	enricher enrich.Enricher
	opts     Options
}

// New builds a Pipeline. A nil enricher degrades to the no-op passthrough.
func New(engine *search.Engine, provider embeddings.Provider, enricher enrich.Enricher, opts Options) *Pipeline {
	if enricher == nil {
		enricher = enrich.Noop{}
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.Oversample <= 0 {
		opts.Oversample = 3
	}
	return &Pipeline{engine: engine, provider: provider, enricher: enricher, opts: opts}
}

// TopK returns the configured default result count.
func (p *Pipeline) TopK() int { return p.opts.TopK }

// Recommend returns at most k deduplicated recommendations for query text.
//
// Enrichment is best effort: any failure falls back to the raw query text.
// Embedding and retrieval failures are real errors.
func (p *Pipeline) Recommend(ctx context.Context, query string, k int) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, ErrInvalidQuery
	}
	if k <= 0 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	text := query
	focus := enrich.FocusMix
	if analysis, err := p.enricher.Extract(ctx, query); err != nil {
		log.Printf("enrichment failed, using raw query: %v", err)
	} else if strings.TrimSpace(analysis.Query) != "" {
		text = analysis.Query
		focus = analysis.Focus
	}

	return p.run(ctx, text, focus, k)
}

// recommendPlain runs the pipeline without enrichment. Used by the evaluator
// for reproducible retrieval.
func (p *Pipeline) recommendPlain(ctx context.Context, query string, k int) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, ErrInvalidQuery
	}
	if k <= 0 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	return p.run(ctx, query, enrich.FocusMix, k)
}

func (p *Pipeline) run(ctx context.Context, text, focus string, k int) (Result, error) {
	qv, err := p.provider.Embed(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("cannot embed query: %w", err)
	}

	hits, err := p.engine.Search(qv, k*p.opts.Oversample)
	if err != nil {
		return Result{}, err
	}

	if p.opts.MinScore > 0 {
		kept := hits[:0]
		for _, h := range hits {
			if h.Score >= p.opts.MinScore {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	hits = rerankByFocus(p.engine, hits, focus)
	recs := dedupe(p.engine, hits, k, p.opts.ShowScores)
	return Result{Recommendations: recs}, nil
}

// rerankByFocus stable-moves candidates whose test_type matches a K or P
// focus ahead of the rest. MIX and unknown focus codes leave order untouched.
func rerankByFocus(e *search.Engine, hits []search.Hit, focus string) []search.Hit {
	if focus != enrich.FocusKnowledge && focus != enrich.FocusPersonal {
		return hits
	}
	primary := make([]search.Hit, 0, len(hits))
	secondary := make([]search.Hit, 0, len(hits))
	for _, h := range hits {
		if e.Entry(h.ID).TestType == focus {
			primary = append(primary, h)
		} else {
			secondary = append(secondary, h)
		}
	}
	return append(primary, secondary...)
}

// dedupe collapses hits sharing an assessment name, keeping the first (and
// therefore best-ranked) occurrence, and shapes the top k survivors.
func dedupe(e *search.Engine, hits []search.Hit, k int, showScores bool) []Recommendation {
	out := make([]Recommendation, 0, k)
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		entry := e.Entry(h.ID)
		key := strings.ToLower(entry.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		rec := Recommendation{
			AssessmentName: entry.Name,
			AssessmentURL:  entry.URL,
		}
		if showScores {
			rec.Score = h.Score
		}
		out = append(out, rec)
		if len(out) == k {
			break
		}
	}
	return out
}
