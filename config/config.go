package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables used when the corresponding config values are
// empty. Keys are never stored in the config file itself.
const (
	EnvOpenAIEndpoint    = "OPENAI_ENDPOINT"
	EnvOpenAIVersion     = "OPENAI_VERSION"
	EnvEmbeddingEndpoint = "OPENAI_EMBEDDING_ENDPOINT"
	EnvEmbeddingVersion  = "OPENAI_EMBEDDING_VERSION"
	EnvDocIntelEndpoint  = "DOCINT_ENDPOINT"
)

// Config holds all configuration for the extraction pipeline.
type Config struct {
	OpenAI     OpenAIConfig    `yaml:"openai"`
	Embedding  EmbeddingConfig `yaml:"embedding"`
	DocIntel   DocIntelConfig  `yaml:"docint"`
	RAG        RAGConfig       `yaml:"rag"`
	Refine     RefineConfig    `yaml:"refine"`
	CFR        CFRConfig       `yaml:"cfr"`
	Prompts    PromptsConfig   `yaml:"prompts"`
	Parameters []Parameter     `yaml:"parameters"`
	Logging    LoggingConfig   `yaml:"logging"`
}

// Parameter is one extraction target.
type Parameter struct {
	Name       string `yaml:"name"`
	Definition string `yaml:"definition,omitempty"`
}

// OpenAIConfig holds Azure OpenAI chat completion configuration.
type OpenAIConfig struct {
	Provider          string `yaml:"provider"`    // "azure", "mock"
	Deployment        string `yaml:"deployment"`  // e.g., "gpt-4o-mini"
	Endpoint          string `yaml:"endpoint"`    // Falls back to $OPENAI_ENDPOINT
	APIVersion        string `yaml:"api_version"` // Falls back to $OPENAI_VERSION
	APIKeyEnv         string `yaml:"api_key_env"` // Environment variable for API key
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	RequestsPerMinute int    `yaml:"requests_per_minute"` // 0 = no rate limit
}

// EmbeddingConfig holds Azure OpenAI embedding configuration.
type EmbeddingConfig struct {
	Provider          string `yaml:"provider"`    // "azure", "mock"
	Model             string `yaml:"model"`       // e.g., "text-embedding-3-large"
	Endpoint          string `yaml:"endpoint"`    // Falls back to $OPENAI_EMBEDDING_ENDPOINT
	APIVersion        string `yaml:"api_version"` // Falls back to $OPENAI_EMBEDDING_VERSION
	APIKeyEnv         string `yaml:"api_key_env"` // Environment variable for API key
	Dimension         int    `yaml:"dimension"`
	BatchSize         int    `yaml:"batch_size"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	RequestsPerMinute int    `yaml:"requests_per_minute"` // 0 = no rate limit
}

// DocIntelConfig holds Azure Document Intelligence configuration.
type DocIntelConfig struct {
	Endpoint       string `yaml:"endpoint"`    // Falls back to $DOCINT_ENDPOINT
	APIVersion     string `yaml:"api_version"` // Layout analysis API version
	APIKeyEnv      string `yaml:"api_key_env"` // Environment variable for API key
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PollSeconds    int    `yaml:"poll_seconds"`      // Delay between result polls
	PollTimeoutSec int    `yaml:"poll_timeout_sec"`  // Give up polling after this long
}

// RAGConfig holds retrieval configuration.
type RAGConfig struct {
	TopK        int    `yaml:"top_k"`
	Metric      string `yaml:"metric"`       // "cosine", "l2", "dot"
	LayoutCache string `yaml:"layout_cache"` // bbolt path; empty disables the cache
	Snapshot    string `yaml:"snapshot"`     // Index snapshot path; empty disables
}

// RefineConfig holds prompt-refinement loop configuration.
type RefineConfig struct {
	TextLimit    int               `yaml:"text_limit"` // Document characters sent per extraction
	PreambleFile string            `yaml:"preamble_file"`
	Parameters   []RefineParameter `yaml:"parameters"`
}

// RefineParameter binds a ground-truth CSV column to the parameter text
// used in prompts and ledger records.
type RefineParameter struct {
	Column    string `yaml:"column"`
	Parameter string `yaml:"parameter"`
}

// CFRConfig holds CFR-specific extraction configuration.
type CFRConfig struct {
	TableLimit       int    `yaml:"table_limit"` // Table CSV characters sent per extraction
	TextLimit        int    `yaml:"text_limit"`  // Document characters sent per extraction
	ExtractionPrompt string `yaml:"extraction_prompt,omitempty"` // Empty uses the built-in prompt
	StandardPrompt   string `yaml:"standard_prompt,omitempty"`   // Empty uses the built-in prompt
}

// PromptsConfig holds the pipeline prompts.
type PromptsConfig struct {
	RAGSystem string `yaml:"rag_system"` // System prompt for the retrieval pipeline
	System    string `yaml:"system"`     // System prompt for the two-stage pipeline
	Refine    string `yaml:"refine"`     // Shared second-pass formatting prompt
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the default configuration. Prompts and parameters
// have no defaults; commands that need them fail fast when they are empty.
func DefaultConfig() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Provider:       "azure",
			Deployment:     "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_KEY",
			TimeoutSeconds: 120,
		},
		Embedding: EmbeddingConfig{
			Provider:       "azure",
			Model:          "text-embedding-3-large",
			APIKeyEnv:      "OPENAI_KEY",
			Dimension:      3072,
			BatchSize:      100,
			TimeoutSeconds: 60,
		},
		DocIntel: DocIntelConfig{
			APIVersion:     "2024-11-30",
			APIKeyEnv:      "DOCINT_KEY",
			TimeoutSeconds: 60,
			PollSeconds:    2,
			PollTimeoutSec: 300,
		},
		RAG: RAGConfig{
			TopK:   5,
			Metric: "cosine",
		},
		Refine: RefineConfig{
			TextLimit: 16000,
		},
		CFR: CFRConfig{
			TableLimit: 10000,
			TextLimit:  25000,
		},
		Logging: LoggingConfig{
			Verbose: false,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for
// paramext.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "paramext.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".paramext", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// APIKey reads the chat API key from the environment.
func (c OpenAIConfig) APIKey() string { return os.Getenv(c.APIKeyEnv) }

// ResolveEndpoint returns the configured endpoint or its environment
// fallback.
func (c OpenAIConfig) ResolveEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return os.Getenv(EnvOpenAIEndpoint)
}

func (c OpenAIConfig) ResolveAPIVersion() string {
	if c.APIVersion != "" {
		return c.APIVersion
	}
	return os.Getenv(EnvOpenAIVersion)
}

func (c EmbeddingConfig) APIKey() string { return os.Getenv(c.APIKeyEnv) }

func (c EmbeddingConfig) ResolveEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return os.Getenv(EnvEmbeddingEndpoint)
}

func (c EmbeddingConfig) ResolveAPIVersion() string {
	if c.APIVersion != "" {
		return c.APIVersion
	}
	return os.Getenv(EnvEmbeddingVersion)
}

func (c DocIntelConfig) APIKey() string { return os.Getenv(c.APIKeyEnv) }

func (c DocIntelConfig) ResolveEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return os.Getenv(EnvDocIntelEndpoint)
}

// ValidateExtraction checks the keys the retrieval pipeline requires.
func (c *Config) ValidateExtraction() error {
	if len(c.Parameters) == 0 {
		return fmt.Errorf("config: parameters is required")
	}
	if c.Prompts.RAGSystem == "" {
		return fmt.Errorf("config: prompts.rag_system is required")
	}
	if c.Prompts.Refine == "" {
		return fmt.Errorf("config: prompts.refine is required")
	}
	return nil
}

// ValidateTwoStage checks the keys the two-stage pipeline requires.
func (c *Config) ValidateTwoStage() error {
	if len(c.Parameters) == 0 {
		return fmt.Errorf("config: parameters is required")
	}
	if c.Prompts.System == "" {
		return fmt.Errorf("config: prompts.system is required")
	}
	if c.Prompts.Refine == "" {
		return fmt.Errorf("config: prompts.refine is required")
	}
	return nil
}

// ValidateRefine checks the keys the refinement loop requires.
func (c *Config) ValidateRefine() error {
	if len(c.Refine.Parameters) == 0 {
		return fmt.Errorf("config: refine.parameters is required")
	}
	if c.Refine.PreambleFile == "" {
		return fmt.Errorf("config: refine.preamble_file is required")
	}
	return nil
}
