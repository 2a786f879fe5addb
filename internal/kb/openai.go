package kb

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Embedding defaults.
const (
	DefaultEmbeddingModel  = "text-embedding-3-small"
	DefaultBatchSize       = 64
	DefaultRequestsPerSec  = 5.0
	defaultAzureAPIVersion = "2024-02-01"
	providerHash           = "hash"
	providerAzure          = "azure"
	providerOpenAI         = "openai"
)

// Environment variables consulted for embedding credentials.
const (
	EnvOpenAIKey            = "OPENAI_API_KEY"
	EnvAzureKey             = "AZURE_OPENAI_API_KEY"
	EnvAzureEndpoint        = "AZURE_OPENAI_ENDPOINT"
	EnvAzureAPIVersion      = "AZURE_OPENAI_API_VERSION"
	EnvAzureEmbedDeployment = "AZURE_OPENAI_EMBED_DEPLOYMENT"
	EnvAzureEmbeddings      = "AZURE_OPENAI_EMBEDDINGS"
)

// EmbedConfig selects and tunes the embedding backend.
type EmbedConfig struct {
	// Provider is "openai", "azure", "hash", or empty for auto-detection.
	Provider          string  `koanf:"provider" json:"provider"`
	Model             string  `koanf:"model" json:"model"`
	Deployment        string  `koanf:"deployment" json:"deployment"`
	Endpoint          string  `koanf:"endpoint" json:"endpoint"`
	APIVersion        string  `koanf:"api_version" json:"api_version"`
	RequestsPerSecond float64 `koanf:"requests_per_second" json:"requests_per_second"`
	BatchSize         int     `koanf:"batch_size" json:"batch_size"`
	HashDims          int     `koanf:"hash_dims" json:"hash_dims"`
}

// EmbeddingClient is the part of the go-openai client the embedder uses.
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder embeds texts with an OpenAI-compatible embeddings endpoint.
// Requests are batched and rate limited.
type OpenAIEmbedder struct {
	client  EmbeddingClient
	name    string
	model   string
	batch   int
	limiter *rate.Limiter
}

// NewOpenAIEmbedder wraps client. name is the provider label used in Name.
func NewOpenAIEmbedder(client EmbeddingClient, name, model string, cfg EmbedConfig) *OpenAIEmbedder {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSec
	}
	return &OpenAIEmbedder{
		client:  client,
		name:    name,
		model:   model,
		batch:   batch,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name implements Embedder.
func (e *OpenAIEmbedder) Name() string {
	return e.name + ":" + e.model
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for lo := 0; lo < len(texts); lo += e.batch {
		hi := min(lo+e.batch, len(texts))
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedding rate limit: %w", err)
		}
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[lo:hi],
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != hi-lo {
			return nil, fmt.Errorf("create embeddings: got %d vectors for %d inputs", len(resp.Data), hi-lo)
		}
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= hi-lo {
				return nil, fmt.Errorf("create embeddings: index %d out of range", d.Index)
			}
			out[lo+d.Index] = d.Embedding
		}
	}
	return out, nil
}

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(string) string

// NewEmbedder builds the embedder described by cfg using process
// environment credentials.
func NewEmbedder(cfg EmbedConfig, logger *slog.Logger) Embedder {
	return NewEmbedderWithEnv(cfg, os.Getenv, logger)
}

// NewEmbedderWithEnv builds the embedder described by cfg.
//
// With no explicit provider, Azure is used when its key and endpoint are set,
// then OpenAI when its key is set. Missing credentials fall back to the
// hashing embedder so search keeps working offline.
func NewEmbedderWithEnv(cfg EmbedConfig, getenv Getenv, logger *slog.Logger) Embedder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fallback := func(reason string) Embedder {
		h := NewHashEmbedder(cfg.HashDims)
		if reason != "" {
			logger.Debug("using hashing embedder", "reason", reason)
		}
		return h
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		switch {
		case getenv(EnvAzureKey) != "" && firstNonEmpty(cfg.Endpoint, getenv(EnvAzureEndpoint)) != "":
			provider = providerAzure
		case getenv(EnvOpenAIKey) != "":
			provider = providerOpenAI
		default:
			return fallback("no embedding credentials")
		}
	}

	switch provider {
	case providerHash:
		return fallback("")
	case providerAzure:
		key := getenv(EnvAzureKey)
		endpoint := firstNonEmpty(cfg.Endpoint, getenv(EnvAzureEndpoint))
		if key == "" || endpoint == "" {
			return fallback("azure credentials incomplete")
		}
		deployment := firstNonEmpty(cfg.Deployment, getenv(EnvAzureEmbedDeployment), getenv(EnvAzureEmbeddings), DefaultEmbeddingModel)
		config := openai.DefaultAzureConfig(key, endpoint)
		config.APIVersion = firstNonEmpty(cfg.APIVersion, getenv(EnvAzureAPIVersion), defaultAzureAPIVersion)
		config.AzureModelMapperFunc = func(string) string { return deployment }
		logger.Debug("initializing Azure OpenAI embedder", "deployment", deployment)
		return NewOpenAIEmbedder(openai.NewClientWithConfig(config), providerAzure, deployment, cfg)
	case providerOpenAI:
		key := getenv(EnvOpenAIKey)
		if key == "" {
			return fallback("no OpenAI credentials")
		}
		config := openai.DefaultConfig(key)
		if cfg.Endpoint != "" {
			config.BaseURL = cfg.Endpoint
		}
		model := firstNonEmpty(cfg.Model, DefaultEmbeddingModel)
		logger.Debug("initializing OpenAI embedder", "model", model)
		return NewOpenAIEmbedder(openai.NewClientWithConfig(config), providerOpenAI, model, cfg)
	default:
		logger.Warn("unknown embedding provider", "provider", cfg.Provider)
		return fallback("unknown provider")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
