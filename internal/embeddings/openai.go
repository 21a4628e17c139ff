package embeddings

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// batchConcurrency bounds parallel embedding API calls during index builds.
const batchConcurrency = 8

type openAIProvider struct {
	client *openai.Client
	model  string

	mu  sync.Mutex
	dim int // learned from the first response
}

// NewOpenAI constructs an embeddings provider backed by an OpenAI-compatible
// embeddings endpoint.
func NewOpenAI(cfg *Config) Provider {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &openAIProvider{
		client: openai.NewClientWithConfig(c),
		model:  cfg.Model,
	}
}

func (p *openAIProvider) ModelID() string {
	return "openai:" + p.model
}

func (p *openAIProvider) Dim() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dim
}

func (p *openAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response missing embedding")
	}

	out := resp.Data[0].Embedding

	p.mu.Lock()
	if p.dim == 0 {
		p.dim = len(out)
	}
	p.mu.Unlock()

	return out, nil
}

// EmbedBatch embeds texts with bounded concurrency, preserving input order.
// The first failure aborts the batch.
func (p *openAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	sem := make(chan struct{}, batchConcurrency)
	errCh := make(chan error, len(texts))

	var wg sync.WaitGroup
	for i := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			v, err := p.Embed(ctx, texts[idx])
			if err != nil {
				errCh <- fmt.Errorf("embedding text %d: %w", idx, err)
				return
			}
			out[idx] = v
		}(i)
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	return out, nil
}
