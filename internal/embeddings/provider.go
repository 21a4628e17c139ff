package embeddings

import (
	"context"
	"fmt"

	"github.com/mkarlsen/assessrec/internal/config"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Config contains the resolved embeddings configuration.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
}

// LoadConfig resolves embeddings config from environment variables. Call
// config.LoadDotEnv first so ~/.assessrec/.env values are visible.
func LoadConfig() (*Config, error) {
	model := config.GetConfigValue("ASSESSREC_EMBEDDINGS_MODEL")
	if model == "" {
		model = "text-embedding-3-small"
	}
	apiKey := config.GetConfigValue("ASSESSREC_EMBEDDINGS_API_KEY")
	if apiKey == "" {
		apiKey = config.GetConfigValue("OPENAI_API_KEY")
	}
	baseURL := config.GetConfigValue("ASSESSREC_EMBEDDINGS_BASE_URL")

	return &Config{
		Model:   model,
		APIKey:  apiKey,
		BaseURL: baseURL,
	}, nil
}

// NewFromConfig returns an embeddings provider, failing fast when the
// configuration cannot support one.
func NewFromConfig(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embeddings model is not configured (set ASSESSREC_EMBEDDINGS_MODEL)")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embeddings API key is not configured (set ASSESSREC_EMBEDDINGS_API_KEY or OPENAI_API_KEY)")
	}
	return NewOpenAI(cfg), nil
}
