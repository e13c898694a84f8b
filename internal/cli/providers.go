package cli

import (
	"fmt"
	"time"

	"github.com/dup0630/param-ext-mcgill-phac/config"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/docint"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/embedding"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/genai"
	"github.com/dup0630/param-ext-mcgill-phac/internal/adapter/store"
	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
	"github.com/dup0630/param-ext-mcgill-phac/internal/port"
)

func newLLM(cfg *config.Config) (port.LLM, error) {
	switch cfg.OpenAI.Provider {
	case "azure", "":
		return genai.NewAzureClient(genai.AzureOptions{
			Endpoint:          cfg.OpenAI.ResolveEndpoint(),
			APIVersion:        cfg.OpenAI.ResolveAPIVersion(),
			APIKeyEnv:         cfg.OpenAI.APIKeyEnv,
			Deployment:        cfg.OpenAI.Deployment,
			Timeout:           time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
			RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		})
	case "mock":
		return genai.NewMockLLM(), nil
	default:
		return nil, fmt.Errorf("unsupported openai provider: %s", cfg.OpenAI.Provider)
	}
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "azure", "":
		return embedding.NewAzureEmbedder(embedding.AzureOptions{
			Endpoint:          cfg.Embedding.ResolveEndpoint(),
			APIVersion:        cfg.Embedding.ResolveAPIVersion(),
			APIKeyEnv:         cfg.Embedding.APIKeyEnv,
			Model:             cfg.Embedding.Model,
			Dimension:         cfg.Embedding.Dimension,
			BatchSize:         cfg.Embedding.BatchSize,
			Timeout:           time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
			RequestsPerMinute: cfg.Embedding.RequestsPerMinute,
		})
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// newAnalyzer builds the layout analyzer, wrapped in the bbolt layout
// cache when one is configured. The returned closer is a no-op without a
// cache.
func newAnalyzer(cfg *config.Config) (port.Analyzer, func(), error) {
	client, err := docint.NewClient(docint.Options{
		Endpoint:     cfg.DocIntel.ResolveEndpoint(),
		APIVersion:   cfg.DocIntel.APIVersion,
		APIKeyEnv:    cfg.DocIntel.APIKeyEnv,
		Timeout:      time.Duration(cfg.DocIntel.TimeoutSeconds) * time.Second,
		PollInterval: time.Duration(cfg.DocIntel.PollSeconds) * time.Second,
		PollTimeout:  time.Duration(cfg.DocIntel.PollTimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create document intelligence client: %w", err)
	}

	if cfg.RAG.LayoutCache == "" {
		return client, func() {}, nil
	}

	cache, err := store.NewLayoutCache(cfg.RAG.LayoutCache, store.ComputeConfigHash(cfg.DocIntel.APIVersion))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open layout cache: %w", err)
	}
	return store.NewCachingAnalyzer(client, cache), func() { cache.Close() }, nil
}

func configParameters(cfg *config.Config) []domain.Parameter {
	params := make([]domain.Parameter, len(cfg.Parameters))
	for i, p := range cfg.Parameters {
		params[i] = domain.Parameter{Name: p.Name, Definition: p.Definition}
	}
	return params
}
