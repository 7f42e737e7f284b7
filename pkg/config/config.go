// Package config loads process configuration from config.yaml with
// environment variable overrides. Secrets must only come from environment
// variables (yaml:"-" fields).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for AIQuery.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Completion capability (OpenAI-compatible endpoint or Anthropic)
	LLM LLMConfig `yaml:"llm"`

	// Pipeline resource bounds
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Seed files for the demo catalog (optional)
	AgentSeedPath    string `yaml:"agent_seed_path" env:"AGENT_SEED_PATH" env-default:""`
	SemanticSeedPath string `yaml:"semantic_seed_path" env:"SEMANTIC_SEED_PATH" env-default:""`
	ExampleSeedPath  string `yaml:"example_seed_path" env:"EXAMPLE_SEED_PATH" env-default:""`
}

// LLMConfig holds completion and embedding endpoint settings.
type LLMConfig struct {
	// Provider selects the client implementation: "openai" (any
	// OpenAI-compatible endpoint) or "anthropic".
	Provider       string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint       string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model          string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	EmbeddingModel string `yaml:"embedding_model" env:"LLM_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	APIKey         string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	Temperature    float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0"`
	// TimeoutSeconds bounds a single completion or embedding call.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`
}

// Timeout returns the completion call timeout as a duration.
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PipelineConfig holds the per-request resource bounds of the query pipeline.
type PipelineConfig struct {
	// MaxRows caps the row count of any executed query. The validator
	// rewrites unbounded SELECTs to this cap.
	MaxRows int `yaml:"max_rows" env:"PIPELINE_MAX_ROWS" env-default:"1000"`
	// ExecutionTimeoutSeconds bounds a single connector call.
	ExecutionTimeoutSeconds int `yaml:"execution_timeout_seconds" env:"PIPELINE_EXECUTION_TIMEOUT_SECONDS" env-default:"30"`
	// ExemplarK is the number of few-shot examples retrieved per question.
	ExemplarK int `yaml:"exemplar_k" env:"PIPELINE_EXEMPLAR_K" env-default:"3"`
	// CacheTTLSeconds is how long identical (agent, source, question)
	// results are served from cache. 0 disables the cache.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" env:"PIPELINE_CACHE_TTL_SECONDS" env-default:"300"`
}

// ExecutionTimeout returns the connector call timeout as a duration.
func (c *PipelineConfig) ExecutionTimeout() time.Duration {
	return time.Duration(c.ExecutionTimeoutSeconds) * time.Second
}

// CacheTTL returns the result cache TTL as a duration.
func (c *PipelineConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml is absent, environment variables and defaults
// alone are used.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Pipeline.MaxRows <= 0 {
		return fmt.Errorf("pipeline.max_rows must be positive")
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "anthropic" {
		return fmt.Errorf("llm.provider must be \"openai\" or \"anthropic\", got %q", c.LLM.Provider)
	}
	return nil
}
