package ai

import (
	"errors"
	"time"

	"github.com/wayfarerhq/wayfarer/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Cache     CacheConfig
	Retrieval RetrievalConfig
	Merge     MergeConfig
	Enabled   bool
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// LLMConfig represents answer generation configuration.
type LLMConfig struct {
	Provider    string // openai, deepseek, openrouter, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     int // request timeout in seconds
	RPM         int // outbound requests per minute, 0 disables the limiter
}

// CacheConfig represents semantic answer cache configuration.
type CacheConfig struct {
	Driver              string // memory, redis, db
	SimilarityThreshold float32
	TTL                 time.Duration
	MaxEntries          int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// RetrievalConfig represents dual retrieval configuration.
type RetrievalConfig struct {
	// Timeout bounds each retrieval branch independently.
	Timeout       time.Duration
	VectorTopK    int
	GraphMaxFacts int
	GraphMaxHops  int
}

// MergeConfig bounds the merged prompt context.
type MergeConfig struct {
	MaxChars           int
	MaxVectorFragments int
	MaxGraphFacts      int
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.Embedding = EmbeddingConfig{
		Model:      p.EmbeddingModel,
		APIKey:     p.EmbeddingAPIKey,
		BaseURL:    p.EmbeddingBaseURL,
		Dimensions: p.EmbeddingDimensions,
	}

	cfg.LLM = LLMConfig{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   p.LLMMaxTokens,
		Temperature: float32(p.LLMTemperature),
		Timeout:     p.LLMTimeout,
		RPM:         p.LLMRPM,
	}

	cfg.Cache = CacheConfig{
		Driver:              p.CacheDriver,
		SimilarityThreshold: float32(p.CacheSimilarity),
		TTL:                 time.Duration(p.CacheTTL) * time.Second,
		MaxEntries:          p.CacheMaxEntries,
		RedisAddr:           p.RedisAddr,
		RedisPassword:       p.RedisPassword,
		RedisDB:             p.RedisDB,
	}

	cfg.Retrieval = RetrievalConfig{
		Timeout:       time.Duration(p.RetrievalTimeout) * time.Second,
		VectorTopK:    p.VectorTopK,
		GraphMaxFacts: p.GraphMaxFacts,
		GraphMaxHops:  p.GraphMaxHops,
	}

	cfg.Merge = MergeConfig{
		MaxChars:           p.ContextMaxChars,
		MaxVectorFragments: p.ContextMaxVectorFragments,
		MaxGraphFacts:      p.ContextMaxGraphFacts,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.LLM.Provider != "ollama" && c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}

	if c.Cache.SimilarityThreshold <= 0 || c.Cache.SimilarityThreshold > 1 {
		return errors.New("cache similarity threshold must be in (0, 1]")
	}
	if c.Cache.Driver == "redis" && c.Cache.RedisAddr == "" {
		return errors.New("redis address is required for the redis cache driver")
	}

	if c.Retrieval.Timeout <= 0 {
		return errors.New("retrieval timeout must be positive")
	}

	return nil
}
