package cmd

import (
	"fmt"

	"github.com/mkarlsen/assessrec/internal/config"
	"github.com/mkarlsen/assessrec/internal/embeddings"
	"github.com/mkarlsen/assessrec/internal/enrich"
	"github.com/mkarlsen/assessrec/internal/recommend"
	"github.com/mkarlsen/assessrec/internal/search"
)

// service bundles the process-wide loaded state shared by the query-side
// commands: the index engine, the embedding provider and the pipeline.
// Everything in it is immutable once constructed.
type service struct {
	cfg      *config.Config
	engine   *search.Engine
	provider embeddings.Provider
	pipeline *recommend.Pipeline
}

// loadService loads config, index and model, verifying their alignment.
// Any failure here is a configuration error: callers must not serve.
// forceScores includes similarity scores in results regardless of config.
func loadService(withEnrichment, forceScores bool) (*service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'assessrec init' first.", err)
	}

	engine, err := search.Load(cfg.IndexDir())
	if err != nil {
		return nil, fmt.Errorf("cannot load index from %s: %w\nRun 'assessrec build' first.", cfg.IndexDir(), err)
	}

	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		return nil, err
	}
	prov, err := embeddings.NewFromConfig(embCfg)
	if err != nil {
		return nil, err
	}
	if err := engine.VerifyProvider(prov); err != nil {
		return nil, err
	}

	var enricher enrich.Enricher = enrich.Noop{}
	if withEnrichment {
		enricher = enrich.NewFromEnv()
	}

	pipeline := recommend.New(engine, prov, enricher, recommend.Options{
		TopK:       cfg.EffectiveTopK(),
		Oversample: cfg.EffectiveOversample(),
		MinScore:   cfg.MinScore,
		ShowScores: cfg.ShowScores || forceScores,
	})

	return &service{cfg: cfg, engine: engine, provider: prov, pipeline: pipeline}, nil
}
