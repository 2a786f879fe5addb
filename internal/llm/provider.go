package llm

import (
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Provider defaults.
const (
	DefaultModel           = "gpt-4o-mini"
	DefaultAzureAPIVersion = "2024-02-01"
)

// Environment variables consulted for credentials and defaults.
const (
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOpenAIModel     = "OPENAI_MODEL"
	EnvAzureKey        = "AZURE_OPENAI_API_KEY"
	EnvAzureEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvAzureDeployment = "AZURE_OPENAI_DEPLOYMENT"
	EnvAzureAPIVersion = "AZURE_OPENAI_API_VERSION"
)

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(string) string

// New builds the augmenter described by cfg using process environment
// credentials.
func New(cfg core.LLMConfig, logger *slog.Logger) Augmenter {
	return NewWithEnv(cfg, os.Getenv, logger)
}

// NewWithEnv builds the augmenter described by cfg.
//
// Azure is used when the provider is "azure" or when both Azure credentials
// are present in the environment; otherwise OpenAI is used when its key is
// set. Any other case, and a disabled config, yields Disabled.
func NewWithEnv(cfg core.LLMConfig, getenv Getenv, logger *slog.Logger) Augmenter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !cfg.Enabled {
		return Disabled{}
	}

	useAzure := strings.EqualFold(cfg.Provider, "azure") ||
		(getenv(EnvAzureKey) != "" && getenv(EnvAzureEndpoint) != "")
	if useAzure {
		return newAzure(cfg, getenv, logger)
	}

	key := getenv(EnvOpenAIKey)
	if key == "" {
		logger.Debug("llm enabled but no OpenAI credentials; skipping augmentation")
		return Disabled{}
	}
	model := firstNonEmpty(cfg.Model, getenv(EnvOpenAIModel), DefaultModel)

	config := openai.DefaultConfig(key)
	if cfg.Endpoint != "" {
		config.BaseURL = cfg.Endpoint
	}
	logger.Debug("initializing OpenAI augmenter", "model", model)
	return NewClient(openai.NewClientWithConfig(config), "openai", model, cfg, logger)
}

func newAzure(cfg core.LLMConfig, getenv Getenv, logger *slog.Logger) Augmenter {
	key := getenv(EnvAzureKey)
	endpoint := firstNonEmpty(cfg.Endpoint, getenv(EnvAzureEndpoint))
	if key == "" || endpoint == "" {
		logger.Debug("llm provider is azure but credentials are incomplete; skipping augmentation")
		return Disabled{}
	}
	deployment := firstNonEmpty(cfg.Deployment, getenv(EnvAzureDeployment), DefaultModel)
	apiVersion := firstNonEmpty(cfg.APIVersion, getenv(EnvAzureAPIVersion), DefaultAzureAPIVersion)

	config := openai.DefaultAzureConfig(key, endpoint)
	config.APIVersion = apiVersion
	config.AzureModelMapperFunc = func(string) string { return deployment }

	logger.Debug("initializing Azure OpenAI augmenter", "deployment", deployment, "api_version", apiVersion)
	return NewClient(openai.NewClientWithConfig(config), "azure", deployment, cfg, logger)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
